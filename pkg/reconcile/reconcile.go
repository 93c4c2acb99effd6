package reconcile

import (
	"context"
	stderrors "errors"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/list"
	"github.com/vango-dev/liveui/pkg/metrics"
	"github.com/vango-dev/liveui/pkg/scoped"
)

// Backend creates and places elements of type N.
type Backend[N any] interface {
	CreateElement() (N, error)
	InsertFirst(parent, child N) error
	InsertAfter(parent, child, sibling N) error
	Remove(parent, child N) error
}

// RenderFunc returns the future that renders item into el. It runs for as
// long as the item is in the list.
type RenderFunc[T, N any] func(item T, el N) async.Future[struct{}]

// Config configures a reconciler.
type Config struct {
	// Spawn hands item tasks to an executor. Required.
	Spawn scoped.SpawnFunc

	// Name labels logs and spans.
	Name string

	// Logger defaults to the logger of the enclosing scope.
	Logger *slog.Logger

	// Metrics defaults to the recorder of the enclosing scope.
	Metrics *metrics.Recorder

	// Tracer defaults to otel.Tracer("liveui").
	Tracer trace.Tracer
}

type item[N any] struct {
	el       N
	attached bool
	remote   *scoped.Remote
	task     scoped.Task
}

// Reconciler is the future returned by List. It must be polled and closed
// on the executor's goroutine.
type Reconciler[T, N any] struct {
	model   *list.Model[T]
	render  RenderFunc[T, N]
	backend Backend[N]
	parent  N
	cfg     Config
	logger  *slog.Logger

	scope  *scoped.Scope
	guard  *scoped.Guard
	cursor *list.Cursor[T]
	items  []item[N]
	closed bool
}

// List creates a reconciler rendering model into the children of parent.
// Its scope is a child of the scope active at the call, if any, so
// disposing that scope closes the reconciler.
func List[T, N any](model *list.Model[T], render RenderFunc[T, N], backend Backend[N], parent N, cfg Config) *Reconciler[T, N] {
	if cfg.Spawn == nil {
		errors.Panic("S007", "")
	}
	if cfg.Name == "" {
		cfg.Name = "list"
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("liveui")
	}

	scope := scoped.NewScope(scoped.Current())
	if cfg.Logger != nil {
		scope.SetLogger(cfg.Logger)
	}
	if cfg.Metrics != nil {
		scope.SetMetrics(cfg.Metrics)
	}
	cfg.Logger = scope.Logger()
	cfg.Metrics = scope.Metrics()

	r := &Reconciler[T, N]{
		model:   model,
		render:  render,
		backend: backend,
		parent:  parent,
		cfg:     cfg,
		logger:  cfg.Logger.With("list", cfg.Name),
		scope:   scope,
		guard:   scoped.NewGuard(scope),
	}
	scope.OnCleanup(r.teardown)
	return r
}

// Poll applies pending changes and waits for the next edit. It completes
// only after Close.
func (r *Reconciler[T, N]) Poll(cx *async.Context) (struct{}, bool) {
	if r.closed {
		return struct{}{}, true
	}
	r.scope.Enter(func() {
		r.pass(cx)
	})
	return struct{}{}, r.closed
}

func (r *Reconciler[T, N]) pass(cx *async.Context) {
	start := time.Now()
	_, span := r.cfg.Tracer.Start(context.Background(), "reconcile.pass",
		trace.WithAttributes(attribute.String("list", r.cfg.Name)))
	defer span.End()

	applied := 0
	if r.cursor == nil {
		cursor, snapshot := r.model.Subscribe()
		r.cursor = cursor
		r.splice(0, 0, snapshot)
	}

	for {
		changes, err := r.cursor.Pull()
		switch {
		case stderrors.Is(err, list.ErrResyncRequired):
			span.AddEvent("resync")
			r.resync()
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Error("reconcile: pull failed", "error", err)
			return
		}

		for _, c := range changes {
			r.apply(c)
		}
		applied += len(changes)

		r.cursor.AddWaker(cx.Waker())
		if !r.cursor.Pending() {
			break
		}
	}

	span.SetAttributes(
		attribute.Int("changes", applied),
		attribute.Int("items", len(r.items)),
		attribute.Int64("version", int64(r.cursor.Version())),
	)
	r.cfg.Metrics.ReconcilePass(time.Since(start))
}

func (r *Reconciler[T, N]) apply(c list.Change[T]) {
	switch c.Kind {
	case list.KindSplice:
		r.splice(c.Index, c.End, c.Values)
	case list.KindInsert:
		r.splice(c.Index, c.Index, []T{c.Value})
	case list.KindRemove:
		r.splice(c.Index, c.Index+1, nil)
	}
	r.cfg.Metrics.ListChange(c.Kind.String())
}

// splice replaces the entries in [start, end) with entries for values.
// New elements are chained: each one goes right after the previous one.
func (r *Reconciler[T, N]) splice(start, end int, values []T) {
	if start < 0 || end < start || end > len(r.items) {
		errors.Panic("L010", "splice [%d:%d] on %d items", start, end, len(r.items))
	}

	for i := start; i < end; i++ {
		r.drop(&r.items[i])
	}

	prev, hasPrev := r.anchor(start)
	added := make([]item[N], len(values))
	for k, v := range values {
		added[k] = r.create(v, prev, hasPrev)
		if added[k].attached {
			prev, hasPrev = added[k].el, true
		}
	}

	r.items = slices.Replace(r.items, start, end, added...)
	r.cfg.Metrics.LiveItems(len(values) - (end - start))
}

// anchor returns the element new items at index i go after: the closest
// attached element before i.
func (r *Reconciler[T, N]) anchor(i int) (N, bool) {
	for j := i - 1; j >= 0; j-- {
		if r.items[j].attached {
			return r.items[j].el, true
		}
	}
	var zero N
	return zero, false
}

func (r *Reconciler[T, N]) create(v T, prev N, hasPrev bool) item[N] {
	el, err := r.backend.CreateElement()
	if err != nil {
		r.backendError("create", err)
		return item[N]{}
	}
	it := item[N]{el: el}

	if hasPrev {
		err = r.backend.InsertAfter(r.parent, el, prev)
	} else {
		err = r.backend.InsertFirst(r.parent, el)
	}
	if err != nil {
		r.backendError("insert", err)
	} else {
		it.attached = true
	}

	it.remote = r.guard.Convert(r.render(v, el))
	it.task = r.cfg.Spawn(it.remote)
	return it
}

// drop aborts the item's task before its element goes away.
func (r *Reconciler[T, N]) drop(it *item[N]) {
	if it.remote != nil {
		it.remote.Abort()
	}
	if it.task != nil {
		it.task.Cancel()
	}
	if it.attached {
		// The element is gone either way.
		_ = r.backend.Remove(r.parent, it.el)
	}
	*it = item[N]{}
}

func (r *Reconciler[T, N]) resync() {
	r.cfg.Metrics.Resync()
	r.logger.Debug("reconcile: resync", "items", len(r.items))
	snapshot := r.cursor.Resync()
	r.splice(0, len(r.items), snapshot)
}

func (r *Reconciler[T, N]) backendError(op string, err error) {
	r.cfg.Metrics.BackendError(op)
	r.logger.Warn("reconcile: backend "+op+" failed", "error", err)
}

// Len returns the number of items in the table.
func (r *Reconciler[T, N]) Len() int {
	return len(r.items)
}

// Elements returns the element of every item in list order. Items whose
// element could not be created have the zero N.
func (r *Reconciler[T, N]) Elements() []N {
	out := make([]N, len(r.items))
	for i, it := range r.items {
		out[i] = it.el
	}
	return out
}

// Scope returns the scope owning the item tasks.
func (r *Reconciler[T, N]) Scope() *scoped.Scope {
	return r.scope
}

// Close aborts every item task in list order, removes every element and
// releases the list cursor. It returns after all of them are done.
func (r *Reconciler[T, N]) Close() {
	r.teardown()
	r.scope.Dispose()
}

func (r *Reconciler[T, N]) teardown() {
	if r.closed {
		return
	}
	r.closed = true

	n := len(r.items)
	for i := range r.items {
		r.drop(&r.items[i])
	}
	r.items = nil
	r.cfg.Metrics.LiveItems(-n)

	if r.cursor != nil {
		r.cursor.Close()
	}
}
