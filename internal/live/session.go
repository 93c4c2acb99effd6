package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/backend/patchstream"
	"github.com/vango-dev/liveui/pkg/executor"
	"github.com/vango-dev/liveui/pkg/list"
	"github.com/vango-dev/liveui/pkg/metrics"
	"github.com/vango-dev/liveui/pkg/reactive"
	"github.com/vango-dev/liveui/pkg/reconcile"
	"github.com/vango-dev/liveui/pkg/render"
	"github.com/vango-dev/liveui/pkg/scoped"
)

// SessionConfig configures a session.
type SessionConfig struct {
	Items           int
	Tick            time.Duration
	MaxRetained     int
	MaxPollsPerTick int
	JSON            bool
	WriteTimeout    time.Duration
	Seed            int64
	Logger          *slog.Logger
	Metrics         *metrics.Recorder
}

// Session drives one connection.
type Session struct {
	conn   *websocket.Conn
	config SessionConfig
	logger *slog.Logger

	stream *patchstream.Stream
	model  *list.Model[string]
	ex     *executor.Executor
	rec    *reconcile.Reconciler[string, patchstream.NodeID]
	rng    *rand.Rand
	next   int
}

// NewSession prepares a session on conn.
func NewSession(conn *websocket.Conn, config SessionConfig) *Session {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}

	s := &Session{
		conn:   conn,
		config: config,
		logger: config.Logger,
		stream: patchstream.NewStream(),
		ex: executor.New(
			executor.WithLogger(config.Logger),
			executor.WithMetrics(config.Metrics),
			executor.WithMaxPollsPerTick(config.MaxPollsPerTick),
		),
		rng: rand.New(rand.NewSource(config.Seed)),
	}

	items := make([]string, config.Items)
	for i := range items {
		items[i] = s.label()
	}
	s.model = list.New(items...)
	s.model.SetMaxRetained(config.MaxRetained)

	s.rec = reconcile.List[string, patchstream.NodeID](s.model, s.renderItem, s.stream, s.stream.Root(), reconcile.Config{
		Spawn:   func(r *scoped.Remote) scoped.Task { return s.ex.Spawn(r) },
		Name:    "live",
		Logger:  config.Logger,
		Metrics: config.Metrics,
	})
	return s
}

func (s *Session) label() string {
	s.next++
	return fmt.Sprintf("item %d", s.next)
}

func (s *Session) renderItem(item string, el patchstream.NodeID) async.Future[struct{}] {
	return render.Text[patchstream.NodeID](s.stream, el, reactive.Constant(item), render.WithLogger(s.logger))
}

// Run streams frames until ctx is done or the connection fails. Edits and
// executor runs happen on the calling goroutine.
func (s *Session) Run(ctx context.Context) error {
	defer s.rec.Close()
	s.ex.Spawn(s.rec)

	ticker := time.NewTicker(s.config.Tick)
	defer ticker.Stop()

	for {
		s.ex.RunUntilStalled()
		if err := s.flush(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.edit()
		}
	}
}

// edit applies one random change, keeping the list between half and
// twice its initial size.
func (s *Session) edit() {
	s.model.Edit(func(e *list.Editor[string]) {
		n := e.Len()
		switch {
		case n == 0 || (n < s.config.Items/2+1 && s.rng.Intn(2) == 0):
			e.Insert(s.rng.Intn(n+1), s.label())
		case n > 2*s.config.Items:
			e.Remove(s.rng.Intn(n))
		default:
			switch s.rng.Intn(4) {
			case 0:
				e.Insert(s.rng.Intn(n+1), s.label())
			case 1:
				e.Remove(s.rng.Intn(n))
			case 2:
				e.Set(s.rng.Intn(n), s.label())
			default:
				e.Splice(0, 1)
				e.Push(s.label())
			}
		}
	})
}

func (s *Session) flush() error {
	frame := s.stream.Flush()
	if frame == nil {
		return nil
	}

	msgType, data := websocket.BinaryMessage, frame.Encode()
	if s.config.JSON {
		var err error
		if data, err = json.Marshal(frame); err != nil {
			return err
		}
		msgType = websocket.TextMessage
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(msgType, data); err != nil {
		return fmt.Errorf("write frame %d: %w", frame.Seq, err)
	}
	s.logger.Debug("frame sent", "seq", frame.Seq, "patches", len(frame.Patches), "bytes", len(data))
	return nil
}
