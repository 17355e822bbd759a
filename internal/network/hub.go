package network

import (
	"errors"
	"sort"
	"sync"
	"time"

	"streetfire-server/pkg/logger"
	"streetfire-server/pkg/transport"
	"streetfire-server/pkg/utils"
)

var (
	ErrUnknownPeer = errors.New("unknown peer")
	ErrOutboxFull  = errors.New("peer outbox is full")
)

// DefaultOutboxSize - сколько кадров может ждать отправки одному GUI.
const DefaultOutboxSize = 256

// Peer - одно подключённое GUI.
type Peer struct {
	ID    string
	Conn  transport.Conn
	Since time.Time

	// Кадры пишет только writeLoop, поэтому порядок сохраняется.
	outbox chan []byte
	quit   chan struct{}
	once   sync.Once
}

// enqueue кладёт кадр в очередь, не блокируясь.
func (p *Peer) enqueue(frame []byte) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.outbox <- frame:
		return true
	default:
		return false
	}
}

func (p *Peer) stop() {
	p.once.Do(func() { close(p.quit) })
}

// writeLoop - один на соединение. Ошибка записи закрывает соединение:
// его цикл чтения проснётся и снимет регистрацию.
func (p *Peer) writeLoop() {
	for {
		select {
		case <-p.quit:
			return
		case frame := <-p.outbox:
			if err := p.Conn.WriteFrame(frame); err != nil {
				logger.Log.WithError(err).WithField("peer", p.ID).Warn("Write failed, closing connection")
				p.stop()
				p.Conn.Close()
				return
			}
		}
	}
}

// PeerInfo - снимок для /debug/connections.
type PeerInfo struct {
	ID      string `json:"id"`
	Remote  string `json:"remote"`
	Network string `json:"network"`
	State   string `json:"state"`
	Since   string `json:"since"`
	Pending int    `json:"pending"`
}

// Broadcaster хранит открытые соединения и рассылает им кадры.
// У каждого соединения своя очередь и своя горутина записи: медленный
// GUI не задерживает ни рассылку, ни игровой цикл.
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: PeerID -> соединение
	peers map[string]*Peer

	outboxSize int
}

// NewBroadcaster создаёт хаб. outboxSize <= 0 - DefaultOutboxSize.
func NewBroadcaster(outboxSize int) *Broadcaster {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Broadcaster{
		peers:      make(map[string]*Peer),
		outboxSize: outboxSize,
	}
}

// Register добавляет соединение, выдаёт ему новый идентификатор
// и запускает горутину записи.
func (b *Broadcaster) Register(conn transport.Conn) *Peer {
	p := &Peer{
		ID:     utils.GenerateID("gui"),
		Conn:   conn,
		Since:  time.Now(),
		outbox: make(chan []byte, b.outboxSize),
		quit:   make(chan struct{}),
	}

	b.mu.Lock()
	b.peers[p.ID] = p
	b.mu.Unlock()

	go p.writeLoop()
	return p
}

// Unregister удаляет подписчика и останавливает его запись.
// Неотправленные кадры теряются. Возвращает false, если подписчика уже не было.
func (b *Broadcaster) Unregister(id string) bool {
	b.mu.Lock()
	p, ok := b.peers[id]
	delete(b.peers, id)
	b.mu.Unlock()

	if !ok {
		return false
	}
	p.stop()
	return true
}

// SendTo ставит кадр в очередь конкретного соединения (Unicast).
func (b *Broadcaster) SendTo(id string, frame []byte) error {
	b.mu.RLock()
	p, ok := b.peers[id]
	b.mu.RUnlock()

	if !ok {
		return ErrUnknownPeer
	}
	if !p.enqueue(frame) {
		return ErrOutboxFull
	}
	return nil
}

// Broadcast ставит кадр в очередь каждому соединению и возвращает тех,
// чья очередь переполнена (или уже остановлена). Решение о разрыве
// принимает владелец (сервер).
func (b *Broadcaster) Broadcast(frame []byte) (queued int, overflowed []*Peer) {
	for _, p := range b.snapshot() {
		if !p.enqueue(frame) {
			overflowed = append(overflowed, p)
			continue
		}
		queued++
	}
	return queued, overflowed
}

// Has проверяет, зарегистрировано ли соединение.
func (b *Broadcaster) Has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.peers[id]
	return ok
}

// Count возвращает количество активных подписчиков.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.peers)
}

// Peers - все зарегистрированные соединения (копия списка).
func (b *Broadcaster) Peers() []*Peer {
	return b.snapshot()
}

// Snapshot - описание соединений, отсортированное по времени подключения.
func (b *Broadcaster) Snapshot() []PeerInfo {
	peers := b.snapshot()
	sort.Slice(peers, func(i, j int) bool { return peers[i].Since.Before(peers[j].Since) })

	out := make([]PeerInfo, 0, len(peers))
	for _, p := range peers {
		out = append(out, PeerInfo{
			ID:      p.ID,
			Remote:  p.Conn.RemoteAddr(),
			Network: p.Conn.Network(),
			State:   p.Conn.State().String(),
			Since:   p.Since.UTC().Format(time.RFC3339),
			Pending: len(p.outbox),
		})
	}
	return out
}

func (b *Broadcaster) snapshot() []*Peer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Peer, 0, len(b.peers))
	for _, p := range b.peers {
		out = append(out, p)
	}
	return out
}
