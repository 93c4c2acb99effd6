package render

import (
	"bytes"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/backend/memdom"
	"github.com/vango-dev/liveui/pkg/reactive"
)

func TestTextFollowsObservable(t *testing.T) {
	doc := memdom.New("span")
	el, _ := doc.CreateElement()
	label := reactive.NewCell("hello")

	fut := Text[*memdom.Node](doc, el, label)
	wake := &async.Flag{}
	cx := async.NewContext(wake)

	_, done := fut.Poll(cx)
	assert.False(t, done)
	assert.Equal(t, "hello", el.Text)

	label.Set("world")
	assert.True(t, wake.Take())
	fut.Poll(cx)
	assert.Equal(t, "world", el.Text)

	// A poll without a change does not touch the backend.
	doc.ResetOps()
	fut.Poll(cx)
	assert.Empty(t, doc.Ops())
}

func TestTextf(t *testing.T) {
	doc := memdom.New("span")
	el, _ := doc.CreateElement()
	count := reactive.NewCell(1)

	fut := Textf[int, *memdom.Node](doc, el, count, strconv.Itoa)
	fut.Poll(async.NewContext(nil))
	assert.Equal(t, "1", el.Text)

	count.Update(func(n *int) { *n++ })
	fut.Poll(async.NewContext(nil))
	assert.Equal(t, "2", el.Text)
}

type failingBackend struct{}

func (failingBackend) SetText(int, string) error { return errors.New("gone") }

func TestTextLogsBackendErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	fut := Text[int](failingBackend{}, 1, reactive.Constant("x"), WithLogger(logger))
	_, done := fut.Poll(async.NewContext(nil))
	assert.False(t, done)
	assert.Contains(t, buf.String(), "set text failed")
	assert.Contains(t, buf.String(), "gone")
}
