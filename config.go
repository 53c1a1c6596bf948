package wbuild

import (
	"os"
	"runtime"

	"golang.org/x/term"
)

// Task names understood by the orchestrator.
const (
	TaskClean     = "clean"
	TaskCheck     = "check"
	TaskCheckDeny = "checkdeny"
	TaskDoc       = "doc"
	TaskBuild     = "build"
	TaskTest      = "test"
	TaskPublish   = "publish"
	TaskWatch     = "watch"
	TaskWTest     = "wtest"
	TaskWTable    = "wtable"
	TaskAll       = "all"
)

// wasmModule is the fixed output of the Web build variant, consumed by the
// browser examples.
const wasmModule = "web/pkg/gqlclient.wasm"

const docIndex = "docs/api/README.md"

// DefaultExcludes are the subtrees the watch tasks must never observe:
// everything the tasks themselves write into, plus VCS metadata.
var DefaultExcludes = []string{".git", ".wbuild", "web/pkg", "dist", "docs", "bin"}

var webProfile = Web

// DefaultGraph returns the canonical task table for the gqlclient project.
// The graph is an explicitly constructed value rather than a package-level
// registry, so tests and alternate front ends can substitute their own.
func DefaultGraph() *Graph {
	g, err := NewGraph(
		&Task{
			Name:  TaskClean,
			Usage: "remove generated build and documentation artifacts",
			Commands: []Command{
				Cmd("go", "clean", "./..."),
				Cmd("rm", "-rf", "web/pkg", "dist", "docs/api"),
			},
		},
		&Task{
			Name:  TaskCheck,
			Usage: "run formatter, vet and lint checks",
			Commands: []Command{
				Cmd("gofumpt", "-l", "-d", "."),
				Cmd("go", "vet", "./..."),
				Cmd("golangci-lint", "run"),
			},
		},
		&Task{
			Name:  TaskCheckDeny,
			Usage: "run the dependency policy check",
			Commands: []Command{
				Cmd("govulncheck", "./..."),
			},
		},
		&Task{
			Name:     TaskDoc,
			Usage:    "generate API documentation",
			Commands: docCommands(),
		},
		&Task{
			Name:  TaskBuild,
			Usage: "build the native library or the WebAssembly module (--web)",
			Variants: map[Profile][]Command{
				Native: {Cmd("go", "build", "-o", "dist/", "./...")},
				Web:    {Cmd("tinygo", "build", "-o", wasmModule, "-target", "wasm", "./wasm")},
			},
		},
		&Task{
			Name:  TaskTest,
			Usage: "run the test suite; --web runs it in a headless browser",
			Variants: map[Profile][]Command{
				Native: {Cmd("gotestsum", "--", "./...")},
				Web:    {Cmd("go", "test", "-exec=wasmbrowsertest", "./...")},
			},
		},
		&Task{
			Name:  TaskAll,
			Usage: "clean, check, test, build and document, in that order",
			Deps:  []string{TaskClean, TaskCheck, TaskTest, TaskBuild, TaskDoc},
		},
		&Task{
			// Publishing to a registry is intentionally left unwired; the
			// task exists so the full pipeline gates it.
			Name:  TaskPublish,
			Usage: "run the full pipeline (registry publishing not yet wired)",
			Deps:  []string{TaskAll},
		},
		&Task{
			Name:  TaskWatch,
			Usage: "rebuild whenever a source file changes",
			Watch: &WatchSpec{
				Root:     ".",
				Exclude:  DefaultExcludes,
				OnChange: TaskBuild,
			},
		},
		&Task{
			Name:  TaskWTest,
			Usage: "re-run the browser test suite whenever a source file changes",
			Watch: &WatchSpec{
				Root:     ".",
				Exclude:  DefaultExcludes,
				OnChange: TaskTest,
				Profile:  &webProfile,
			},
		},
		&Task{
			Name:  TaskWTable,
			Usage: "serve the table example with its dev server",
			Commands: []Command{
				Cmd("go", "run", "./examples/table"),
			},
		},
	)
	if err != nil {
		panic("wbuild: invalid default graph: " + err.Error())
	}
	return g
}

// docCommands generates the documentation and, when the operator is at a
// terminal, opens the result.
func docCommands() []Command {
	cmds := []Command{
		Cmd("gomarkdoc", "--output", docIndex, "./..."),
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		cmds = append(cmds, openCommand(docIndex))
	}
	return cmds
}

// openCommand returns the host OS command that opens a file with its
// default application.
func openCommand(target string) Command {
	switch runtime.GOOS {
	case "darwin":
		return Cmd("open", target)
	case "windows":
		return Cmd("cmd", "/c", "start", "", target)
	default:
		return Cmd("xdg-open", target)
	}
}
