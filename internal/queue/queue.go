package queue

import (
	"sync"

	"streetfire-server/pkg/api"
)

// Queue - неограниченная FIFO-очередь команд между сетевыми горутинами
// (много производителей) и циклом симуляции (один потребитель).
//
// Политика закрытия: после Close новые команды отбрасываются (Push вернёт false
// и увеличит счётчик Dropped), а Pop сначала отдаёт то, что уже лежит в очереди,
// и только потом сообщает о закрытии.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []api.Command
	head   int
	closed bool

	pushed  uint64
	popped  uint64
	dropped uint64
}

// Stats - счётчики для /debug/queue и тестов.
type Stats struct {
	Pending int    `json:"pending"`
	Pushed  uint64 `json:"pushed"`
	Popped  uint64 `json:"popped"`
	Dropped uint64 `json:"dropped"`
	Closed  bool   `json:"closed"`
}

func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push добавляет команду в конец очереди. Никогда не блокируется.
func (q *Queue) Push(cmd api.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.dropped++
		return false
	}
	q.items = append(q.items, cmd)
	q.pushed++
	q.cond.Signal()
	return true
}

// Pop блокируется до появления команды. ok == false означает,
// что очередь закрыта и пуста.
func (q *Queue) Pop() (api.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.takeLocked()
}

// TryPop - неблокирующий вариант Pop.
func (q *Queue) TryPop() (api.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.takeLocked()
}

// Drain забирает все накопленные команды в порядке поступления.
func (q *Queue) Drain() []api.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.lenLocked()
	if n == 0 {
		return nil
	}
	out := make([]api.Command, n)
	copy(out, q.items[q.head:])
	q.popped += uint64(n)
	q.items = nil
	q.head = 0
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Close закрывает очередь и будит всех, кто ждёт в Pop. Повторный вызов безопасен.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending: q.lenLocked(),
		Pushed:  q.pushed,
		Popped:  q.popped,
		Dropped: q.dropped,
		Closed:  q.closed,
	}
}

func (q *Queue) lenLocked() int {
	return len(q.items) - q.head
}

func (q *Queue) takeLocked() (api.Command, bool) {
	if q.lenLocked() == 0 {
		return nil, false
	}
	cmd := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	q.popped++

	// Сжимаем хвост, когда прочитанная часть занимает больше половины слайса.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return cmd, true
}
