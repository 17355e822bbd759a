package discovery

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestDiscoveryFindsResponder(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		wantHost string
	}{
		{"explicit host", "10.1.2.3", "10.1.2.3"},
		{"empty host uses sender", "", "127.0.0.1"},
		{"unspecified host uses sender", "0.0.0.0", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Listen("127.0.0.1:0", Announcement{Name: "arena", Host: tt.host, Port: 45000, Protocol: 1})
			if err != nil {
				t.Fatalf("Listen: %v", err)
			}
			defer r.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()

			found, err := Probe(ctx, r.Addr().String())
			if err != nil {
				t.Fatalf("Probe: %v", err)
			}
			if len(found) != 1 {
				t.Fatalf("found %d servers, want 1", len(found))
			}
			got := found[0]
			if got.Name != "arena" || got.Port != 45000 || got.Protocol != 1 {
				t.Errorf("announcement = %+v", got)
			}
			if got.Host != tt.wantHost {
				t.Errorf("host = %q, want %q", got.Host, tt.wantHost)
			}
		})
	}
}

func TestDiscoveryWithoutResponders(t *testing.T) {
	// Свободный порт, на котором никто не слушает.
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	addr := pc.LocalAddr().String()
	pc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	found, err := Probe(ctx, addr)
	if err != nil {
		// На Linux ICMP port unreachable может вернуть ошибку чтения; это тоже "никого нет".
		t.Logf("Probe returned %v", err)
	}
	if len(found) != 0 {
		t.Errorf("found %v, want none", found)
	}
	if time.Since(start) > time.Second {
		t.Error("Probe must respect the context deadline")
	}
}

func TestResponderIgnoresGarbage(t *testing.T) {
	r, err := Listen("127.0.0.1:0", Announcement{Name: "arena", Port: 1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer r.Close()

	conn, err := net.DialUDP("udp4", nil, r.Addr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer conn.Close()

	conn.Write([]byte("hello"))
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, maxPacket)
	if n, err := conn.Read(buf); err == nil {
		t.Errorf("unexpected reply %q", buf[:n])
	}
}

func TestResponderCloseTwice(t *testing.T) {
	r, err := Listen("127.0.0.1:0", Announcement{Port: 1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestCancelledDiscoveryReturnsEarly(t *testing.T) {
	r, err := Listen("127.0.0.1:0", Announcement{Port: 1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if _, err := Probe(ctx, r.Addr().String()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not stop the probe")
	}
}

// downConn - сокет, чтение из которого падает, пока его не закроют.
type downConn struct {
	reads  atomic.Int64
	closed atomic.Bool
}

func (c *downConn) ReadFromUDP([]byte) (int, *net.UDPAddr, error) {
	c.reads.Add(1)
	if c.closed.Load() {
		return 0, nil, net.ErrClosed
	}
	return 0, nil, errors.New("network is down")
}
func (c *downConn) WriteToUDP(b []byte, _ *net.UDPAddr) (int, error) { return len(b), nil }
func (c *downConn) LocalAddr() net.Addr                                { return &net.UDPAddr{} }
func (c *downConn) Close() error {
	c.closed.Store(true)
	return nil
}

func TestResponderBacksOffOnReadErrors(t *testing.T) {
	conn := &downConn{}
	r := &Responder{conn: conn, done: make(chan struct{})}
	go r.serve()

	const window = 200 * time.Millisecond
	time.Sleep(window)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Без паузы за это время были бы миллионы чтений.
	limit := int64(window/readBackoff) + 3
	if n := conn.reads.Load(); n > limit {
		t.Errorf("%d reads in %s, want at most %d", n, window, limit)
	}
}
