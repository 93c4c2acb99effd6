package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(WithRegistry(reg), WithNamespace("test"), WithConstLabels(prometheus.Labels{"app": "x"}))

	r.TaskSpawned()
	r.TaskSpawned()
	r.TaskPolled()
	r.TaskCancelled()
	r.TaskCompleted()
	r.ScopedSpawn()
	r.RemoteAborted()
	r.ListChange("splice")
	r.ListChange("insert")
	r.ListChange("insert")
	r.LiveItems(3)
	r.LiveItems(-1)
	r.BackendError("insert")
	r.Resync()
	r.ReconcilePass(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.tasksSpawned))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.remotesAborted))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.listChanges.WithLabelValues("insert")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.liveItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.backendErrors.WithLabelValues("insert")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["test_reconcile_duration_seconds"])
	assert.True(t, names["test_task_polls_total"])
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.TaskSpawned()
		r.TaskPolled()
		r.TaskCancelled()
		r.TaskCompleted()
		r.ScopedSpawn()
		r.RemoteAborted()
		r.ListChange("remove")
		r.ReconcilePass(time.Second)
		r.LiveItems(1)
		r.BackendError("remove")
		r.Resync()
	})
}

func TestSubsystemAndBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(WithRegistry(reg), WithSubsystem("ui"), WithBuckets([]float64{0.1, 1}))
	r.ReconcilePass(50 * time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "liveui_ui_reconcile_duration_seconds" {
			found = true
			assert.Len(t, f.GetMetric()[0].GetHistogram().GetBucket(), 2)
		}
	}
	assert.True(t, found)
}
