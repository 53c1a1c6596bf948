// Command wbuild is the build orchestrator CLI for the gqlclient project.
// Every task in the default graph becomes a subcommand; --web switches
// build-style tasks to the WebAssembly profile.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wbuild"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		web     bool
		verbose bool
	)
	graph := wbuild.DefaultGraph()

	root := &cobra.Command{
		Use:           "wbuild <task>",
		Short:         "build orchestrator for the gqlclient native and WebAssembly targets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&web, "web", false, "select the WebAssembly build profile")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo commands and print timings")
	root.SetArgs(args)

	for _, t := range graph.Tasks() {
		root.AddCommand(&cobra.Command{
			Use:   t.Name,
			Short: t.Usage,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				profile := wbuild.Native
				if web {
					profile = wbuild.Web
				}
				r := &wbuild.Runner{
					Graph:   graph,
					Profile: profile,
					Out:     wbuild.StdOutput(),
					Verbose: verbose,
				}
				return r.Run(cmd.Context(), cmd.Name())
			},
		})
	}

	// Ctrl-C cancels the context; in-flight children get SIGINT and a
	// grace period rather than an immediate kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintf(os.Stderr, "wbuild: %v\n", err)
		var fail *wbuild.TaskFailure
		if errors.As(err, &fail) && fail.ExitCode > 0 {
			return fail.ExitCode
		}
		return 1
	}
	return 0
}
