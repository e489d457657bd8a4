// peersim is a bench stand-in for the game controller: it serves the
// cabinet protocol over WebSocket and plays scripted games forever,
// broadcasting the same game to every connected cabinet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cbodonnell/cabinet/pkg/clients"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/messages"
	"github.com/cbodonnell/cabinet/pkg/version"
	"nhooyr.io/websocket"
)

const writeTimeout = 3 * time.Second

func main() {
	addr := flag.String("addr", ":8080", "address to listen on")
	tick := flag.Duration("tick", time.Second, "interval between score and time updates")
	idle := flag.Duration("idle", 5*time.Second, "time spent idle before each game")
	starting := flag.Duration("starting", 3*time.Second, "time spent starting")
	play := flag.Duration("play", 20*time.Second, "length of each game")
	maxPoints := flag.Int("max-points", 50, "most points scored per tick")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Starting peer simulator version %s", version.Get())

	opts := scriptOptions{
		Tick:      *tick,
		Idle:      *idle,
		Starting:  *starting,
		Play:      *play,
		MaxPoints: *maxPoints,
	}
	if opts.Tick <= 0 {
		panic("tick must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := &game{
		clientManager: clients.NewClientManager(),
		opts:          opts,
	}
	go g.run(ctx, rand.New(rand.NewSource(time.Now().UnixNano())))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWebSocket)
	server := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("Peer simulator listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server error: %v", err)
		os.Exit(1)
	}
	log.Info("Peer simulator stopped")
}

// game plays rounds forever and broadcasts every line to all cabinets.
type game struct {
	clientManager *clients.ClientManager
	opts          scriptOptions
	// state is the last reported peer state, sent first to new cabinets
	state atomic.Int32
}

func (g *game) run(ctx context.Context, rng *rand.Rand) {
	for {
		for _, s := range round(rng, g.opts) {
			if s.After > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.After):
				}
			}
			if m := messages.Decode(s.Line); m.ID == messages.MessageTypeGameState {
				if n, ok := m.Int(); ok {
					g.state.Store(int32(n))
				}
			}
			g.clientManager.Broadcast(s.Line)
			log.Trace("Sent %s", s.Line)
		}
	}
}

func (g *game) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("Failed to accept WebSocket connection: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	client, err := g.clientManager.AddClient(r.RemoteAddr)
	if err != nil {
		log.Error("Failed to add client: %v", err)
		return
	}
	defer g.clientManager.RemoveClient(client.ID)

	logger := log.With("client", client.ID).With("remote", r.RemoteAddr)
	logger.Info("Cabinet connected")

	// the cabinet never sends over the socket; this only watches for close
	ctx := conn.CloseRead(r.Context())
	if err := send(ctx, conn, messages.Encode(messages.MessageTypeGameState, int(g.state.Load()))); err != nil {
		logger.Info("Cabinet disconnected: %v", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			logger.Info("Cabinet disconnected: %v", ctx.Err())
			return
		case line, ok := <-client.Outbox:
			if !ok {
				return
			}
			if err := send(ctx, conn, line); err != nil {
				logger.Info("Cabinet disconnected: %v", err)
				return
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, line string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, []byte(line))
}
