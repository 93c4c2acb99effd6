package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/liveui/internal/config"
	"github.com/vango-dev/liveui/pkg/async"
	"github.com/vango-dev/liveui/pkg/backend/memdom"
	"github.com/vango-dev/liveui/pkg/executor"
	"github.com/vango-dev/liveui/pkg/list"
	"github.com/vango-dev/liveui/pkg/reconcile"
	"github.com/vango-dev/liveui/pkg/scoped"
)

type benchCase struct {
	name string
	edit func(e *list.Editor[int], rng *rand.Rand)
}

var benchCases = []benchCase{
	{"insert", func(e *list.Editor[int], rng *rand.Rand) { e.Insert(rng.Intn(e.Len()+1), rng.Int()) }},
	{"remove+push", func(e *list.Editor[int], rng *rand.Rand) {
		e.Remove(rng.Intn(e.Len()))
		e.Push(rng.Int())
	}},
	{"splice 10", func(e *list.Editor[int], rng *rand.Rand) {
		start := rng.Intn(max(e.Len()-10, 1))
		values := make([]int, 10)
		for i := range values {
			values[i] = rng.Int()
		}
		e.Splice(start, min(start+10, e.Len()), values...)
	}},
	{"set", func(e *list.Editor[int], rng *rand.Rand) { e.Set(rng.Intn(e.Len()), rng.Int()) }},
}

func benchCmd(load func() (*config.Config, error)) *cobra.Command {
	var items, rounds int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time reconcile passes",
		Long: `Time one edit plus the reconcile pass that applies it, for several
kinds of edits on a list of --items items.

Examples:
  liveui bench
  liveui bench --items 10000 --rounds 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if items > 0 {
				cfg.Bench.Items = items
			}
			if rounds > 0 {
				cfg.Bench.Rounds = rounds
			}
			return runBench(cfg)
		},
	}

	cmd.Flags().IntVarP(&items, "items", "n", 0, "Initial list size (default from liveui.json)")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 0, "Edits per case (default from liveui.json)")
	return cmd
}

func runBench(cfg *config.Config) error {
	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("reconcile, %s items", humanize.Comma(int64(cfg.Bench.Items))))
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"edit", "rounds", "avg", "min", "p75", "p99", "max", "ops"})

	for _, bc := range benchCases {
		calc, ops := benchOne(cfg, bc)
		tbl.AppendRow(table.Row{
			bc.name,
			humanize.Comma(int64(cfg.Bench.Rounds)),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
			humanize.Comma(int64(ops)),
		})
	}

	tbl.Render()
	return nil
}

// benchOne times rounds of one edit kind and returns the timings and the
// number of backend operations performed.
func benchOne(cfg *config.Config, bc benchCase) (*tachymeter.Metrics, int) {
	rng := rand.New(rand.NewSource(1))
	ex := executor.New(executor.WithMaxPollsPerTick(cfg.Executor.MaxPollsPerTick))
	doc := memdom.New(cfg.List.Tag)

	initial := make([]int, cfg.Bench.Items)
	for i := range initial {
		initial[i] = rng.Int()
	}
	model := list.New(initial...)
	model.SetMaxRetained(cfg.List.MaxRetained)

	rec := reconcile.List[int, *memdom.Node](model, func(int, *memdom.Node) async.Future[struct{}] {
		return async.Pending[struct{}]()
	}, doc, doc.Root(), reconcile.Config{
		Spawn: func(r *scoped.Remote) scoped.Task { return ex.Spawn(r) },
		Name:  bc.name,
	})
	defer rec.Close()
	ex.Spawn(rec)
	ex.RunUntilStalled()
	doc.ResetOps()

	tach := tachymeter.New(&tachymeter.Config{Size: cfg.Bench.Rounds})
	for i := 0; i < cfg.Bench.Rounds; i++ {
		start := time.Now()
		model.Edit(func(e *list.Editor[int]) { bc.edit(e, rng) })
		ex.RunUntilStalled()
		tach.AddTime(time.Since(start))
	}
	return tach.Calc(), len(doc.Ops())
}
