package wbuild

import (
	"context"
	"time"

	"github.com/fatih/color"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	summaryColor = color.New(color.FgGreen)
)

// taskResult records one executed task for the post-run summary.
type taskResult struct {
	name     string
	duration time.Duration
}

// Runner executes a resolved task sequence strictly in order, one command
// at a time, aborting on the first failure. It holds no state across runs;
// a watch loop may call Run any number of times.
type Runner struct {
	Graph   *Graph
	Profile Profile
	Out     *Output  // defaults to StdOutput
	Invoker Invoker  // defaults to ShellInvoker on Out
	Verbose bool
}

// Run resolves the named task and executes every task in the resulting
// order. The first command exiting non-zero (or failing to start) aborts
// the run with a *TaskFailure identifying the task and command position;
// nothing after it executes. Side effects of already-completed commands are
// left as they are.
func (r *Runner) Run(ctx context.Context, name string) error {
	tasks, err := r.Graph.Resolve(name)
	if err != nil {
		return err
	}

	out := r.out()
	inv := r.Invoker
	if inv == nil {
		inv = &ShellInvoker{Out: out}
	}

	start := time.Now()
	var results []taskResult
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Watch tasks are long-running entry points, not command sequences.
		if t.Watch != nil {
			return r.runWatch(ctx, t)
		}

		cmds, err := t.CommandsFor(r.Profile)
		if err != nil {
			return err
		}
		if len(cmds) == 0 {
			// Aggregator tasks (all, publish) exist for their prerequisites.
			continue
		}

		headerColor.Fprintf(out.Stdout, ":: %s\n", t.Name)
		taskStart := time.Now()
		for i, c := range cmds {
			if r.Verbose {
				out.Printf("   $ %s\n", c)
			}
			if err := inv.Execute(ctx, c); err != nil {
				return &TaskFailure{
					Task:         t.Name,
					CommandIndex: i,
					ExitCode:     exitCodeOf(err),
					Err:          err,
				}
			}
		}
		results = append(results, taskResult{name: t.Name, duration: time.Since(taskStart)})
	}

	if len(results) > 1 || r.Verbose {
		r.printSummary(out, results, time.Since(start))
	}
	return nil
}

// printSummary reports per-task and total durations after a successful run.
func (r *Runner) printSummary(out *Output, results []taskResult, total time.Duration) {
	if r.Verbose {
		for _, res := range results {
			out.Printf("   %-10s %s\n", res.name, res.duration.Round(time.Millisecond))
		}
	}
	summaryColor.Fprintf(out.Stdout, "ok: %d task(s) in %s\n", len(results), total.Round(time.Millisecond))
}

// runWatch hands control to the task's watch trigger, which blocks until
// the context is cancelled. The watched task runs through a sub-runner so
// each triggered run gets fresh resolution.
func (r *Runner) runWatch(ctx context.Context, t *Task) error {
	spec := t.Watch
	profile := r.Profile
	if spec.Profile != nil {
		profile = *spec.Profile
	}
	sub := &Runner{
		Graph:   r.Graph,
		Profile: profile,
		Out:     r.Out,
		Invoker: r.Invoker,
		Verbose: r.Verbose,
	}
	w := NewWatcher(*spec, r.out(), func(ctx context.Context) error {
		return sub.Run(ctx, spec.OnChange)
	})
	return w.Run(ctx)
}

func (r *Runner) out() *Output {
	if r.Out != nil {
		return r.Out
	}
	return StdOutput()
}
