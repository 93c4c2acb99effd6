package render

import (
	"log/slog"

	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/reactive"
)

// TextBackend sets the text content of an element.
type TextBackend[N any] interface {
	SetText(el N, text string) error
}

// Option configures a renderer.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for backend errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Text returns a future that sets the text of el to the value of obs, then
// again after every change. It never completes.
func Text[N any](backend TextBackend[N], el N, obs reactive.Observable[string], opts ...Option) async.Future[struct{}] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return reactive.Watch(obs, func(s string) {
		if err := backend.SetText(el, s); err != nil {
			o.logger.Warn("render: set text failed", "error", err)
		}
	})
}

// Textf is Text for any observable, formatted with format.
func Textf[T, N any](backend TextBackend[N], el N, obs reactive.Observable[T], format func(T) string, opts ...Option) async.Future[struct{}] {
	return Text(backend, el, reactive.Map(obs, format), opts...)
}
