package queue

import (
	"sync"
	"testing"
	"time"

	"streetfire-server/pkg/api"
)

func TestQueueFIFO(t *testing.T) {
	q := New()

	sent := []api.Command{
		api.Refresh{},
		api.InitiateNextState{State: api.RingmasterState},
		api.KillGame{},
	}
	for _, c := range sent {
		if !q.Push(c) {
			t.Fatalf("Push(%v) returned false on open queue", c)
		}
	}

	if q.Len() != 3 {
		t.Fatalf("Expected length 3, got %d", q.Len())
	}

	for i, want := range sent {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d: queue reported closed", i)
		}
		if got != want {
			t.Errorf("Pop %d = %v, want %v", i, got, want)
		}
	}

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop on empty queue must return false")
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New()
	got := make(chan api.Command, 1)

	go func() {
		cmd, ok := q.Pop()
		if ok {
			got <- cmd
		}
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(api.TogglePause{})

	select {
	case cmd := <-got:
		if cmd.Kind() != api.KindTogglePause {
			t.Errorf("unexpected command %v", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestQueueCloseWakesPop(t *testing.T) {
	q := New()
	done := make(chan bool, 1)

	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop on closed empty queue must report closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake a blocked Pop")
	}
}

func TestQueueClosePolicy(t *testing.T) {
	q := New()
	q.Push(api.Refresh{})
	q.Push(api.KillGame{})

	q.Close()
	q.Close() // повторный вызов безопасен

	if q.Push(api.TogglePause{}) {
		t.Error("Push after Close must return false")
	}

	// Накопленное до закрытия всё ещё выдаётся по порядку.
	if cmd, ok := q.Pop(); !ok || cmd.Kind() != api.KindRefresh {
		t.Errorf("first Pop after Close = %v, %v", cmd, ok)
	}
	if cmd, ok := q.Pop(); !ok || cmd.Kind() != api.KindKillGame {
		t.Errorf("second Pop after Close = %v, %v", cmd, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on drained closed queue must report closed")
	}

	st := q.Stats()
	if st.Pushed != 2 || st.Popped != 2 || st.Dropped != 1 || !st.Closed || st.Pending != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500

	q := New()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(player uint8) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				// Номер производителя кодируем в Entities, порядковый номер - в Index.
				q.Push(api.ActivateEmitter{Location: api.OuterRing, Index: uint16(i), Entities: api.EntitySet(player)})
			}
		}(uint8(p))
	}

	// Единственный потребитель читает параллельно с производителями.
	received := make(chan []api.Command, 1)
	go func() {
		var out []api.Command
		for len(out) < producers*perProducer {
			cmd, ok := q.Pop()
			if !ok {
				break
			}
			out = append(out, cmd)
		}
		received <- out
	}()

	wg.Wait()

	var out []api.Command
	select {
	case out = <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not receive all commands")
	}

	if len(out) != producers*perProducer {
		t.Fatalf("expected %d commands, got %d", producers*perProducer, len(out))
	}

	next := make(map[api.EntitySet]uint16)
	for _, c := range out {
		e := c.(api.ActivateEmitter)
		if e.Index != next[e.Entities] {
			t.Fatalf("producer %d: got index %d, want %d", e.Entities, e.Index, next[e.Entities])
		}
		next[e.Entities]++
	}
}

func TestQueueDrain(t *testing.T) {
	q := New()
	if q.Drain() != nil {
		t.Error("Drain on empty queue must return nil")
	}

	for i := 0; i < 100; i++ {
		q.Push(api.ActivateEmitter{Location: api.LeftRail, Index: uint16(i)})
		if i%3 == 0 {
			q.TryPop()
		}
	}

	rest := q.Drain()
	if len(rest) != 66 {
		t.Fatalf("expected 66 drained commands, got %d", len(rest))
	}
	if q.Len() != 0 {
		t.Errorf("queue must be empty after Drain, len=%d", q.Len())
	}
}
