package executor

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/metrics"
)

// ErrStalled is returned by Await when no task can make progress and the
// awaited future is still pending.
var ErrStalled = stderrors.New("executor: stalled")

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithMaxPollsPerTick bounds the number of polls done by one call to
// RunUntilStalled. Zero means no bound.
func WithMaxPollsPerTick(n int) Option {
	return func(e *Executor) { e.maxPolls = n }
}

// Executor is a single-threaded task executor.
type Executor struct {
	logger   *slog.Logger
	metrics  *metrics.Recorder
	maxPolls int

	mu     sync.Mutex
	tasks  map[uint64]*Task
	queue  []uint64
	queued mapset.Set[uint64]
	nextID uint64

	signal  chan struct{}
	running atomic.Bool
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger: slog.Default(),
		tasks:  make(map[uint64]*Task),
		queued: mapset.NewThreadUnsafeSet[uint64](),
		signal: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Task is a future spawned on an executor.
type Task struct {
	id   uint64
	ex   *Executor
	fut  async.Future[struct{}]
	cx   *async.Context
	done chan struct{}

	finished  atomic.Bool
	cancelled atomic.Bool
	closeOnce sync.Once
}

// ID returns the task identifier.
func (t *Task) ID() uint64 {
	return t.id
}

// Wake schedules the task to be polled.
func (t *Task) Wake() {
	t.ex.schedule(t.id)
}

// Cancel drops the task. It is never polled again.
func (t *Task) Cancel() {
	if t.finished.Load() || t.cancelled.Swap(true) {
		return
	}
	t.ex.remove(t.id)
	t.close()
	t.ex.metrics.TaskCancelled()
	t.ex.logger.Debug("executor: task cancelled", "task", t.id)
}

// Done is closed when the task completes or is cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished reports whether the task ran to completion.
func (t *Task) Finished() bool {
	return t.finished.Load()
}

// Cancelled reports whether the task was cancelled.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

func (t *Task) close() {
	t.closeOnce.Do(func() { close(t.done) })
}

// Spawn adds fut as a new task and schedules its first poll.
func (e *Executor) Spawn(fut async.Future[struct{}]) *Task {
	e.mu.Lock()
	e.nextID++
	t := &Task{
		id:   e.nextID,
		ex:   e,
		fut:  fut,
		done: make(chan struct{}),
	}
	t.cx = async.NewContext(t)
	e.tasks[t.id] = t
	e.mu.Unlock()

	e.metrics.TaskSpawned()
	e.schedule(t.id)
	return t
}

// Len returns the number of live tasks.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Pending returns the number of tasks waiting to be polled.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Executor) schedule(id uint64) {
	e.mu.Lock()
	if _, ok := e.tasks[id]; !ok || !e.queued.Add(id) {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, id)
	e.mu.Unlock()

	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *Executor) remove(id uint64) {
	e.mu.Lock()
	delete(e.tasks, id)
	e.mu.Unlock()
}

// next pops the next live task off the queue.
func (e *Executor) next() *Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		id := e.queue[0]
		e.queue[0] = 0
		e.queue = e.queue[1:]
		e.queued.Remove(id)
		if t, ok := e.tasks[id]; ok {
			return t
		}
	}
	return nil
}

// RunUntilStalled polls woken tasks until none is left, and returns the
// number of polls. Calling it from inside a task panics.
func (e *Executor) RunUntilStalled() int {
	if !e.running.CompareAndSwap(false, true) {
		errors.Panic("X001", "")
	}
	defer e.running.Store(false)

	polls := 0
	for e.maxPolls <= 0 || polls < e.maxPolls {
		t := e.next()
		if t == nil {
			break
		}
		e.poll(t)
		polls++
	}
	return polls
}

func (e *Executor) poll(t *Task) {
	_, ok := t.fut.Poll(t.cx)
	e.metrics.TaskPolled()
	if !ok || t.cancelled.Load() {
		return
	}
	t.finished.Store(true)
	t.fut = nil
	e.remove(t.id)
	t.close()
	e.metrics.TaskCompleted()
}

// Run spawns fut and drives the executor until fut completes or ctx is
// done, sleeping while no task is woken.
func (e *Executor) Run(ctx context.Context, fut async.Future[struct{}]) error {
	root := e.Spawn(fut)
	for {
		e.RunUntilStalled()
		if root.Finished() {
			return nil
		}
		if e.Pending() > 0 {
			continue
		}
		select {
		case <-root.Done():
			if root.Finished() {
				return nil
			}
			return context.Canceled
		case <-ctx.Done():
			root.Cancel()
			e.logger.Debug("executor: run stopped", "err", ctx.Err())
			return ctx.Err()
		case <-e.signal:
		}
	}
}

// Await spawns fut, runs the executor until it stalls and returns the
// output of fut, or ErrStalled if it is still pending.
func Await[T any](e *Executor, fut async.Future[T]) (T, error) {
	var out T
	t := e.Spawn(async.FutureFunc[struct{}](func(cx *async.Context) (struct{}, bool) {
		v, ok := fut.Poll(cx)
		if ok {
			out = v
		}
		return struct{}{}, ok
	}))
	e.RunUntilStalled()
	if !t.Finished() {
		t.Cancel()
		var zero T
		return zero, ErrStalled
	}
	return out, nil
}
