// Package metrics exposes Prometheus collectors for the executor, the
// scoped spawner and the list reconciler.
//
// A nil *Recorder is valid and records nothing, so components can take an
// optional recorder without nil checks at every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "liveui").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for reconcile passes.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "liveui",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder holds the collectors.
type Recorder struct {
	tasksSpawned   prometheus.Counter
	taskPolls      prometheus.Counter
	tasksCancelled prometheus.Counter
	tasksCompleted prometheus.Counter

	scopedSpawns   prometheus.Counter
	remotesAborted prometheus.Counter

	listChanges       *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	liveItems         prometheus.Gauge
	backendErrors     *prometheus.CounterVec
	resyncs           prometheus.Counter
}

// New registers the collectors and returns a recorder.
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Recorder{
		tasksSpawned:   counter("tasks_spawned_total", "Total number of tasks spawned on executors"),
		taskPolls:      counter("task_polls_total", "Total number of task polls"),
		tasksCancelled: counter("tasks_cancelled_total", "Total number of tasks cancelled before completion"),
		tasksCompleted: counter("tasks_completed_total", "Total number of tasks that ran to completion"),

		scopedSpawns:   counter("scoped_spawns_total", "Total number of scoped futures handed to an executor"),
		remotesAborted: counter("remotes_aborted_total", "Total number of scoped futures aborted by their owner"),

		listChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "list_changes_total",
			Help:        "Total number of list change records applied by reconcilers",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		reconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_duration_seconds",
			Help:        "Duration of a reconcile pass in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		liveItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_items",
			Help:        "Number of live items across all reconcilers",
			ConstLabels: config.ConstLabels,
		}),

		backendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "backend_errors_total",
			Help:        "Total number of render backend errors",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		resyncs: counter("list_resyncs_total", "Total number of full list resyncs"),
	}
}

// TaskSpawned records a task spawn.
func (r *Recorder) TaskSpawned() {
	if r != nil {
		r.tasksSpawned.Inc()
	}
}

// TaskPolled records a task poll.
func (r *Recorder) TaskPolled() {
	if r != nil {
		r.taskPolls.Inc()
	}
}

// TaskCancelled records a cancellation.
func (r *Recorder) TaskCancelled() {
	if r != nil {
		r.tasksCancelled.Inc()
	}
}

// TaskCompleted records a task finishing.
func (r *Recorder) TaskCompleted() {
	if r != nil {
		r.tasksCompleted.Inc()
	}
}

// ScopedSpawn records a scoped future handed to an executor.
func (r *Recorder) ScopedSpawn() {
	if r != nil {
		r.scopedSpawns.Inc()
	}
}

// RemoteAborted records an owner aborting its remote.
func (r *Recorder) RemoteAborted() {
	if r != nil {
		r.remotesAborted.Inc()
	}
}

// ListChange records one applied change record of the given kind.
func (r *Recorder) ListChange(kind string) {
	if r != nil {
		r.listChanges.WithLabelValues(kind).Inc()
	}
}

// ReconcilePass records the duration of a reconcile pass.
func (r *Recorder) ReconcilePass(d time.Duration) {
	if r != nil {
		r.reconcileDuration.Observe(d.Seconds())
	}
}

// LiveItems adjusts the live item gauge by delta.
func (r *Recorder) LiveItems(delta int) {
	if r != nil {
		r.liveItems.Add(float64(delta))
	}
}

// BackendError records a failed backend operation.
func (r *Recorder) BackendError(op string) {
	if r != nil {
		r.backendErrors.WithLabelValues(op).Inc()
	}
}

// Resync records a full list resync.
func (r *Recorder) Resync() {
	if r != nil {
		r.resyncs.Inc()
	}
}
