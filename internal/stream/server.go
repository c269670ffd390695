// Package stream serves simulation frames to browser clients over
// websockets. Every connection gets its own run.
package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/san-kum/gravsim/internal/render"
)

const (
	DefaultFrameInterval = 33 * time.Millisecond
	DefaultPingInterval  = 5 * time.Second
	writeTimeout         = 2 * time.Second
)

// SourceFactory builds a fresh run for a new connection.
type SourceFactory func() (render.Source, error)

type Server struct {
	upgrader      websocket.Upgrader
	newSource     SourceFactory
	interval      time.Duration
	pingInterval  time.Duration
	stepsPerFrame int
	logger        *log.Logger
}

type Option func(*Server)

func WithFrameInterval(d time.Duration) Option {
	return func(s *Server) { s.interval = d }
}

// WithPingInterval sets the keepalive interval. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

// WithStepsPerFrame advances the run n steps between frames sent.
func WithStepsPerFrame(n int) Option {
	return func(s *Server) { s.stepsPerFrame = max(n, 1) }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(factory SourceFactory, opts ...Option) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		newSource:     factory,
		interval:      DefaultFrameInterval,
		pingInterval:  DefaultPingInterval,
		stepsPerFrame: 1,
		logger:        log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultFrameInterval
	}
	return s
}

// Handler routes /ws to the stream and /healthz to a liveness probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	sw := NewSafeWriter(conn, writeTimeout)
	defer sw.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Info("client connected", "remote", remote)
	defer s.logger.Info("client disconnected", "remote", remote)

	src, err := s.newSource()
	if err != nil {
		s.logger.Error("building run", "remote", remote, "err", err)
		_ = sw.WriteJSON(EndMessage{Type: MessageTypeEnd, Error: err.Error()})
		_ = sw.CloseNormal("run failed")
		return
	}
	if err := sw.WriteJSON(InfoMessage{Type: MessageTypeInfo, Message: "connected"}); err != nil {
		return
	}

	commands := make(chan string, 8)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var cmd CommandMessage
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("read failed", "remote", remote, "err", err)
				}
				return
			}
			select {
			case commands <- cmd.Type:
			default:
			}
		}
	}()

	s.stream(sw, src, commands, closed, remote)
}

func (s *Server) stream(sw *SafeWriter, src render.Source, commands <-chan string, closed <-chan struct{}, remote string) {
	frames := time.NewTicker(s.interval)
	defer frames.Stop()

	var ping <-chan time.Time
	if s.pingInterval > 0 {
		t := time.NewTicker(s.pingInterval)
		defer t.Stop()
		ping = t.C
	}

	seq := 0
	paused := false
	for {
		select {
		case <-closed:
			return
		case cmd := <-commands:
			switch cmd {
			case CommandPause:
				paused = true
			case CommandResume:
				paused = false
			case CommandReset:
				src.Reset()
				paused = false
			default:
				s.logger.Debug("unknown command", "remote", remote, "type", cmd)
			}
		case <-ping:
			if err := sw.WritePing(); err != nil {
				return
			}
		case <-frames.C:
			if paused {
				continue
			}
			var last render.Frame
			var ok bool
			for i := 0; i < s.stepsPerFrame; i++ {
				f, more := src.NextFrame()
				if !more {
					break
				}
				last, ok = f, true
			}
			if !ok {
				end := EndMessage{Type: MessageTypeEnd, Frames: seq}
				if err := src.Err(); err != nil {
					end.Error = err.Error()
					s.logger.Warn("run failed", "remote", remote, "err", err)
				}
				_ = sw.WriteJSON(end)
				_ = sw.CloseNormal("run finished")
				return
			}
			if err := sw.WriteJSON(NewFrameMessage(seq, last)); err != nil {
				s.logger.Debug("write failed", "remote", remote, "err", err)
				return
			}
			seq++
		}
	}
}
