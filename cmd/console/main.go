package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streetfire-server/internal/agent"
	"streetfire-server/internal/capture"
	"streetfire-server/internal/config"
	"streetfire-server/internal/discovery"
	"streetfire-server/internal/version"
	"streetfire-server/pkg/api"
	"streetfire-server/pkg/client"
	"streetfire-server/pkg/logger"
)

func init() {
	logger.Init()
	// stdout занят событиями.
	logger.SetOutput(os.Stderr)
}

func main() {
	var (
		host      string
		port      int
		wsPath    string
		discover  bool
		replay    string
		autopilot bool
		seed      int64
	)
	flag.StringVar(&host, "host", "127.0.0.1", "Server address")
	flag.IntVar(&port, "port", config.DefaultPort, "Server GUI port")
	flag.StringVar(&wsPath, "ws", "", "Connect over WebSocket at this path (e.g. /ws), port is then the HTTP port")
	flag.BoolVar(&discover, "discover", false, "Find the server on the local network")
	flag.StringVar(&replay, "replay", "", "Print a session capture file and exit")
	flag.BoolVar(&autopilot, "autopilot", false, "Let the bot run the game")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Autopilot random seed")
	flag.Parse()

	logger.Log.Info(version.String())

	if replay != "" {
		if err := printCapture(os.Stdout, replay); err != nil {
			logger.Log.Fatal("Failed to read capture: ", err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if discover {
		cfg, err := config.Load()
		if err != nil {
			logger.Log.Fatal("Failed to load config: ", err)
		}
		ann, err := findServer(ctx, cfg.DiscoveryAddr)
		if err != nil {
			logger.Log.Fatal(err)
		}
		host, port = ann.Host, ann.Port
		if wsPath != "" {
			port = ann.HTTPPort
		}
	}

	var opts []client.Option
	if wsPath != "" {
		opts = append(opts, client.WithWebSocket(wsPath))
	}
	c := client.New(host, port, opts...)

	c.OnEvent(func(ev api.Event) { printEvent(os.Stdout, ev) })
	c.OnDisconnect(func(err error) {
		if err != nil {
			logger.Log.WithError(err).Warn("Disconnected")
		}
	})

	if err := c.Connect(ctx); err != nil {
		logger.Log.Fatal("Connect failed: ", err)
	}
	defer c.Disconnect()
	logger.Log.WithField("addr", c.Addr()).Info("Connected")

	if autopilot {
		err := agent.NewBot(c, seed).Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.WithError(err).Error("Autopilot stopped")
		}
		return
	}

	repl(ctx, c, os.Stdin)
}

// repl читает команды построчно до quit, EOF, сигнала или разрыва соединения.
func repl(ctx context.Context, c *client.Client, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	fmt.Fprintln(os.Stderr, help)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			err := execute(c, line)
			switch {
			case err == nil:
			case errors.Is(err, errQuit):
				return
			case errors.Is(err, errHelp):
				fmt.Fprintln(os.Stderr, help)
			default:
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}
	}
}

func findServer(ctx context.Context, addr string) (discovery.Announcement, error) {
	if addr == "" {
		addr = discovery.DefaultAddr
	}
	probeCtx, cancel := context.WithTimeout(ctx, discovery.DefaultProbeTimeout)
	defer cancel()

	found, err := discovery.Probe(probeCtx, addr)
	if err != nil {
		return discovery.Announcement{}, fmt.Errorf("discovery: %w", err)
	}
	if len(found) == 0 {
		return discovery.Announcement{}, errors.New("no servers found")
	}
	for _, ann := range found {
		logger.Log.WithField("addr", ann.Addr()).Infof("Found %q (%s)", ann.Name, ann.Version)
	}
	return found[0], nil
}

func printEvent(w io.Writer, ev api.Event) {
	fmt.Fprintf(w, "%-30s %+v\n", ev.Kind(), ev)
}

// printCapture выводит запись сессии: смещение, направление, сообщение.
func printCapture(w io.Writer, path string) error {
	rd, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer rd.Close()

	records, err := rd.ReadAll()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "capture started %s, %d frames\n", rd.Started.Format(time.RFC3339), len(records))
	for _, rec := range records {
		msg, err := rec.Message()
		if err != nil {
			fmt.Fprintf(w, "%10s %-4s <%v>\n", rec.Offset.Round(time.Millisecond), rec.Direction, err)
			continue
		}
		fmt.Fprintf(w, "%10s %-4s %-30s %+v\n", rec.Offset.Round(time.Millisecond), rec.Direction, msg.Kind(), msg)
	}
	return nil
}
