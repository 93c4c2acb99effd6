package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/liveui/internal/config"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/backend/memdom"
	"github.com/vango-dev/liveui/pkg/executor"
	"github.com/vango-dev/liveui/pkg/list"
	"github.com/vango-dev/liveui/pkg/reactive"
	"github.com/vango-dev/liveui/pkg/reconcile"
	"github.com/vango-dev/liveui/pkg/render"
	"github.com/vango-dev/liveui/pkg/scoped"
)

type demoStep struct {
	name string
	edit func(e *list.Editor[string])
}

var demoSteps = []demoStep{
	{"splice [1:2] -> X, Y", func(e *list.Editor[string]) { e.Splice(1, 2, "X", "Y") }},
	{"insert Z at 0", func(e *list.Editor[string]) { e.Insert(0, "Z") }},
	{"remove at 2", func(e *list.Editor[string]) { e.Remove(2) }},
	{"push W", func(e *list.Editor[string]) { e.Push("W") }},
	{"sort", func(e *list.Editor[string]) { e.Sort(strings.Compare) }},
	{"retain vowels", func(e *list.Editor[string]) {
		e.Retain(func(s string) bool { return slices.Contains([]string{"A", "E", "I", "O", "U", "Y"}, s) })
	}},
	{"clear", func(e *list.Editor[string]) { e.Clear() }},
}

func demoCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run scripted list edits on an in-memory document",
		Long: `Run a fixed script of list edits through a reconciler rendering into an
in-memory document, printing the document and the backend operations
after each step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runDemo(cfg)
		},
	}
}

func runDemo(cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)
	ex := executor.New(executor.WithLogger(logger), executor.WithMaxPollsPerTick(cfg.Executor.MaxPollsPerTick))
	doc := memdom.New(cfg.List.Tag)
	model := list.New("A", "B", "C")
	model.SetMaxRetained(cfg.List.MaxRetained)

	rec := reconcile.List[string, *memdom.Node](model, func(item string, el *memdom.Node) async.Future[struct{}] {
		return render.Text[*memdom.Node](doc, el, reactive.Constant(item), render.WithLogger(logger))
	}, doc, doc.Root(), reconcile.Config{
		Spawn:  func(r *scoped.Remote) scoped.Task { return ex.Spawn(r) },
		Name:   "demo",
		Logger: logger,
	})
	defer rec.Close()
	ex.Spawn(rec)

	polls := ex.RunUntilStalled()
	fmt.Printf("initial (%s polls)\n%s\n", humanize.Comma(int64(polls)), doc.Render())

	for _, step := range demoSteps {
		doc.ResetOps()
		model.Edit(step.edit)
		polls := ex.RunUntilStalled()

		fmt.Printf("%s (%s polls, %s tasks)\n", step.name, humanize.Comma(int64(polls)), humanize.Comma(int64(ex.Len())))
		for _, op := range doc.Ops() {
			info("%s", op)
		}
		fmt.Print(doc.Render())
		fmt.Printf("digest %016x\n\n", doc.Digest())
	}

	success("%d steps, %d items left", len(demoSteps), rec.Len())
	return nil
}
