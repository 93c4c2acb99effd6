package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	liveerrors "github.com/vango-dev/liveui/internal/errors"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/backend/memdom"
	"github.com/vango-dev/liveui/pkg/executor"
	"github.com/vango-dev/liveui/pkg/list"
	"github.com/vango-dev/liveui/pkg/metrics"
	"github.com/vango-dev/liveui/pkg/reactive"
	"github.com/vango-dev/liveui/pkg/render"
	"github.com/vango-dev/liveui/pkg/scoped"
)

type harness struct {
	ex    *executor.Executor
	doc   *memdom.Document
	model *list.Model[string]
	rec   *Reconciler[string, *memdom.Node]
}

func newHarness(t *testing.T, cfg Config, items ...string) *harness {
	t.Helper()
	h := &harness{
		ex:    executor.New(),
		doc:   memdom.New("li"),
		model: list.New(items...),
	}
	cfg.Spawn = func(r *scoped.Remote) scoped.Task { return h.ex.Spawn(r) }
	h.rec = List[string, *memdom.Node](h.model, func(s string, el *memdom.Node) async.Future[struct{}] {
		return render.Text[*memdom.Node](h.doc, el, reactive.Constant(s))
	}, h.doc, h.doc.Root(), cfg)
	h.ex.Spawn(h.rec)
	h.run()
	t.Cleanup(h.rec.Close)
	return h
}

func (h *harness) run() {
	h.ex.RunUntilStalled()
}

func (h *harness) edit(fn func(e *list.Editor[string])) {
	h.model.Edit(fn)
	h.run()
}

func (h *harness) texts() []string {
	return h.doc.Texts(h.doc.Root())
}

// structural returns the logged insertions and removals.
func (h *harness) structural() []string {
	var out []string
	for _, op := range h.doc.Ops() {
		if strings.HasPrefix(op.Kind, "insert") || op.Kind == "remove" {
			out = append(out, op.String())
		}
	}
	return out
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return total
}

func TestInitialRender(t *testing.T) {
	h := newHarness(t, Config{}, "A", "B", "C")
	assert.Equal(t, []string{"A", "B", "C"}, h.texts())
	assert.Equal(t, 3, h.rec.Len())
	assert.Equal(t, h.doc.Children(h.doc.Root()), h.rec.Elements())
	assert.Equal(t, 1, h.model.Subscribers())
}

func TestSpliceChainsInsertions(t *testing.T) {
	h := newHarness(t, Config{}, "A", "B", "C")
	h.doc.ResetOps()

	h.edit(func(e *list.Editor[string]) { e.Splice(1, 2, "X", "Y") })

	assert.Equal(t, []string{"A", "X", "Y", "C"}, h.texts())
	assert.Equal(t, []string{
		"remove #2 from #0",
		"insert #4 after #1 in #0",
		"insert #5 after #4 in #0",
	}, h.structural())
	for _, op := range h.doc.Ops() {
		assert.NotEqual(t, 3, op.Node, "C is untouched")
	}
}

func TestInsertAtZeroBecomesFirstChild(t *testing.T) {
	h := newHarness(t, Config{}, "A", "B")
	h.doc.ResetOps()

	h.edit(func(e *list.Editor[string]) { e.Insert(0, "Z") })

	assert.Equal(t, []string{"Z", "A", "B"}, h.texts())
	assert.Equal(t, []string{"insert #3 first in #0"}, h.structural())
}

func TestRemoveAbortsItemTask(t *testing.T) {
	h := newHarness(t, Config{}, "A", "B")
	require.Equal(t, 3, h.ex.Len())

	h.edit(func(e *list.Editor[string]) { e.Remove(0) })
	assert.Equal(t, []string{"B"}, h.texts())
	assert.Equal(t, 2, h.ex.Len())
}

func TestTableMatchesListUnderRandomEdits(t *testing.T) {
	h := newHarness(t, Config{})
	rng := rand.New(rand.NewSource(42))
	next := 0
	fresh := func() string {
		next++
		return fmt.Sprint(next)
	}

	for round := 0; round < 300; round++ {
		edits := 1 + rng.Intn(3)
		for k := 0; k < edits; k++ {
			h.model.Edit(func(e *list.Editor[string]) {
				n := e.Len()
				switch op := rng.Intn(8); {
				case op == 0 || n == 0:
					e.Insert(rng.Intn(n+1), fresh())
				case op == 1:
					e.Remove(rng.Intn(n))
				case op == 2:
					start := rng.Intn(n + 1)
					end := start + rng.Intn(n-start+1)
					values := make([]string, rng.Intn(4))
					for i := range values {
						values[i] = fresh()
					}
					e.Splice(start, end, values...)
				case op == 3:
					e.Push(fresh())
				case op == 4:
					e.Swap(rng.Intn(n), rng.Intn(n))
				case op == 5:
					e.Sort(strings.Compare)
				case op == 6 && rng.Intn(10) == 0:
					e.Clear()
				default:
					e.Set(rng.Intn(n), fresh())
				}
			})
		}
		h.run()

		want := h.model.Snapshot()
		if len(want) == 0 {
			want = []string{}
		}
		require.Equal(t, want, h.texts(), "round %d", round)
		require.Equal(t, len(want), h.rec.Len(), "round %d", round)
		require.Equal(t, 1+len(want), h.ex.Len(), "one task per item plus the reconciler")
	}
}

func TestInsertFailureKeepsEntry(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	h := newHarness(t, Config{
		Metrics: metrics.New(metrics.WithRegistry(reg)),
		Logger:  slog.New(slog.NewTextHandler(&buf, nil)),
	}, "A", "B")

	h.doc.FailInserts(func(*memdom.Node) error { return errors.New("no room") })
	h.edit(func(e *list.Editor[string]) { e.Push("X") })

	assert.Equal(t, 3, h.rec.Len())
	assert.Equal(t, []string{"A", "B"}, h.texts())
	assert.Contains(t, buf.String(), "no room")
	assert.Equal(t, 1.0, metricValue(t, reg, "liveui_backend_errors_total"))

	h.doc.FailInserts(nil)
	h.edit(func(e *list.Editor[string]) { e.Push("Y") })
	assert.Equal(t, []string{"A", "B", "Y"}, h.texts())

	h.edit(func(e *list.Editor[string]) { e.Remove(2) })
	assert.Equal(t, 3, h.rec.Len())
	assert.Equal(t, []string{"A", "B", "Y"}, h.texts())
	assert.Equal(t, 3.0, metricValue(t, reg, "liveui_live_items"))
}

func TestResyncRebuildsTable(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, Config{Metrics: metrics.New(metrics.WithRegistry(reg))}, "A")
	h.model.SetMaxRetained(1)

	h.model.Edit(func(e *list.Editor[string]) { e.Push("B") })
	h.model.Edit(func(e *list.Editor[string]) { e.Push("C") })
	h.model.Edit(func(e *list.Editor[string]) { e.Remove(0) })
	h.run()

	assert.Equal(t, []string{"B", "C"}, h.texts())
	assert.Equal(t, 2, h.rec.Len())
	assert.Equal(t, 3, h.ex.Len())
	assert.Equal(t, 1.0, metricValue(t, reg, "liveui_list_resyncs_total"))
}

func TestCappedMultiChangeEditResyncs(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, Config{Metrics: metrics.New(metrics.WithRegistry(reg))}, "A", "B", "C")
	h.model.SetMaxRetained(1)

	h.edit(func(e *list.Editor[string]) {
		e.Splice(0, 1)
		e.Push("D")
	})

	assert.Equal(t, []string{"B", "C", "D"}, h.texts())
	assert.Equal(t, 3, h.rec.Len())
	assert.Equal(t, 4, h.ex.Len())
	assert.Equal(t, 1.0, metricValue(t, reg, "liveui_list_resyncs_total"))

	rng := rand.New(rand.NewSource(5))
	for round := 0; round < 100; round++ {
		h.edit(func(e *list.Editor[string]) {
			for op := rng.Intn(3) + 1; op > 0; op-- {
				if n := e.Len(); n > 0 && rng.Intn(2) == 0 {
					e.Remove(rng.Intn(n))
				} else {
					e.Insert(rng.Intn(n+1), fmt.Sprint(round, op))
				}
			}
		})
		want := h.model.Snapshot()
		require.Equal(t, len(want), h.rec.Len(), "round %d", round)
		if len(want) > 0 {
			require.Equal(t, want, h.texts(), "round %d", round)
		}
	}
}

func TestCloseAbortsInTableOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newHarness(t, Config{Logger: logger}, "A", "B", "C")

	h.rec.Close()

	var ids []int
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.Contains(line, "remote aborted") {
			continue
		}
		m := regexp.MustCompile(`remote=(\d+)`).FindStringSubmatch(line)
		require.Len(t, m, 2, line)
		id, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Len(t, ids, 3)
	assert.True(t, slices.IsSorted(ids), "aborted %v", ids)
}

func TestCloseTearsDown(t *testing.T) {
	h := newHarness(t, Config{}, "A", "B")
	h.rec.Close()

	assert.Empty(t, h.texts())
	assert.Equal(t, 0, h.rec.Len())
	assert.Equal(t, 0, h.model.Subscribers())
	assert.Equal(t, 1, h.ex.Len(), "only the reconciler task is left")

	_, done := h.rec.Poll(async.NewContext(nil))
	assert.True(t, done)
}

func TestDisposingEnclosingScopeCloses(t *testing.T) {
	ex := executor.New()
	doc := memdom.New("li")
	model := list.New("A")
	root := scoped.NewRoot(async.Pending[struct{}]())

	var rec *Reconciler[string, *memdom.Node]
	root.Scope().Enter(func() {
		rec = List[string, *memdom.Node](model, func(s string, el *memdom.Node) async.Future[struct{}] {
			return render.Text[*memdom.Node](doc, el, reactive.Constant(s))
		}, doc, doc.Root(), Config{Spawn: func(r *scoped.Remote) scoped.Task { return ex.Spawn(r) }})
	})
	assert.Same(t, root.Scope(), rec.Scope().Parent())

	ex.Spawn(rec)
	ex.RunUntilStalled()
	require.Equal(t, []string{"A"}, doc.Texts(doc.Root()))

	root.Close()
	assert.Empty(t, doc.Texts(doc.Root()))
	assert.Equal(t, 0, model.Subscribers())
}

func TestListRequiresSpawn(t *testing.T) {
	defer func() {
		v, ok := liveerrors.IsViolation(recover())
		require.True(t, ok)
		assert.Equal(t, "S007", v.Code())
	}()
	doc := memdom.New("")
	List[string, *memdom.Node](list.New[string](), nil, doc, doc.Root(), Config{})
}
