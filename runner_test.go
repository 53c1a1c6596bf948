package wbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeInvoker records every command and can be told to fail at a given
// global command position.
type fakeInvoker struct {
	calls  []Command
	failAt int // -1 never fails
	err    error
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{failAt: -1}
}

func (f *fakeInvoker) Execute(_ context.Context, c Command) error {
	pos := len(f.calls)
	f.calls = append(f.calls, c)
	if pos == f.failAt {
		if f.err != nil {
			return f.err
		}
		return errors.New("command failed")
	}
	return nil
}

func testOutput() (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Output{Stdout: &buf, Stderr: &buf}, &buf
}

// pipelineGraph mirrors the canonical shape: five command-bearing tasks
// behind an aggregator. Each command is a distinct marker.
func pipelineGraph(t *testing.T) *Graph {
	t.Helper()
	task := func(name string, n int) *Task {
		cmds := make([]Command, 0, n)
		for i := 0; i < n; i++ {
			cmds = append(cmds, Cmd("tool", fmt.Sprintf("%s-%d", name, i)))
		}
		return &Task{Name: name, Commands: cmds}
	}
	return mustGraph(t,
		task("clean", 1),
		task("check", 3),
		task("test", 1),
		task("build", 1),
		task("doc", 1),
		&Task{Name: "all", Deps: []string{"clean", "check", "test", "build", "doc"}},
	)
}

func TestRun_FullPipelineOrder(t *testing.T) {
	g := pipelineGraph(t)
	inv := newFakeInvoker()
	out, _ := testOutput()
	r := &Runner{Graph: g, Out: out, Invoker: inv}

	if err := r.Run(context.Background(), "all"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"clean-0",
		"check-0", "check-1", "check-2",
		"test-0",
		"build-0",
		"doc-0",
	}
	if len(inv.calls) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(inv.calls))
	}
	for i, c := range inv.calls {
		if c.Args[0] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], c.Args[0])
		}
	}
}

func TestRun_FailFastStopsLaterCommandsAndTasks(t *testing.T) {
	g := pipelineGraph(t)
	inv := newFakeInvoker()
	inv.failAt = 2 // second command of check
	out, _ := testOutput()
	r := &Runner{Graph: g, Out: out, Invoker: inv}

	err := r.Run(context.Background(), "all")
	var fail *TaskFailure
	if !errors.As(err, &fail) {
		t.Fatalf("expected TaskFailure, got %v", err)
	}
	if fail.Task != "check" {
		t.Errorf("expected failing task 'check', got %q", fail.Task)
	}
	if fail.CommandIndex != 1 {
		t.Errorf("expected command index 1, got %d", fail.CommandIndex)
	}

	// clean-0, check-0 and the failing check-1 ran; nothing after.
	if len(inv.calls) != 3 {
		t.Fatalf("expected 3 commands to have run, got %d: %v", len(inv.calls), inv.calls)
	}
	for _, c := range inv.calls {
		if c.Args[0] == "build-0" || c.Args[0] == "doc-0" {
			t.Errorf("command %s must not run after a failure", c.Args[0])
		}
	}
}

func TestRun_TestFailureSkipsBuildAndDoc(t *testing.T) {
	g := pipelineGraph(t)
	inv := newFakeInvoker()
	inv.failAt = 4 // the test task's only command
	out, _ := testOutput()
	r := &Runner{Graph: g, Out: out, Invoker: inv}

	err := r.Run(context.Background(), "all")
	var fail *TaskFailure
	if !errors.As(err, &fail) {
		t.Fatalf("expected TaskFailure, got %v", err)
	}
	if fail.Task != "test" {
		t.Errorf("expected failing task 'test', got %q", fail.Task)
	}
	for _, c := range inv.calls {
		if c.Args[0] == "build-0" || c.Args[0] == "doc-0" {
			t.Errorf("%s ran even though test failed", c.Args[0])
		}
	}
}

func TestRun_ProfileSelectsVariant(t *testing.T) {
	g := mustGraph(t, &Task{
		Name: "build",
		Variants: map[Profile][]Command{
			Native: {Cmd("native-compiler")},
			Web:    {Cmd("wasm-packager")},
		},
	})

	tests := []struct {
		profile Profile
		want    string
	}{
		{Native, "native-compiler"},
		{Web, "wasm-packager"},
	}
	for _, tt := range tests {
		t.Run(tt.profile.String(), func(t *testing.T) {
			inv := newFakeInvoker()
			out, _ := testOutput()
			r := &Runner{Graph: g, Profile: tt.profile, Out: out, Invoker: inv}
			if err := r.Run(context.Background(), "build"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(inv.calls) != 1 || inv.calls[0].Program != tt.want {
				t.Errorf("expected single call to %s, got %v", tt.want, inv.calls)
			}
		})
	}
}

func TestRun_UnsupportedVariant(t *testing.T) {
	g := mustGraph(t, &Task{
		Name: "build",
		Variants: map[Profile][]Command{
			Native: {Cmd("native-compiler")},
		},
	})
	inv := newFakeInvoker()
	out, _ := testOutput()
	r := &Runner{Graph: g, Profile: Web, Out: out, Invoker: inv}

	err := r.Run(context.Background(), "build")
	var unsupported *UnsupportedVariantError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedVariantError, got %v", err)
	}
	if len(inv.calls) != 0 {
		t.Errorf("no command should run, got %v", inv.calls)
	}
}

func TestRun_AggregatorTasksPrintNoHeader(t *testing.T) {
	g := mustGraph(t,
		&Task{Name: "clean", Commands: []Command{Cmd("tool", "clean-0")}},
		&Task{Name: "all", Deps: []string{"clean"}},
	)
	inv := newFakeInvoker()
	out, buf := testOutput()
	r := &Runner{Graph: g, Out: out, Invoker: inv}

	if err := r.Run(context.Background(), "all"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte(":: all")) {
		t.Error("aggregator task should not print a header")
	}
	if !bytes.Contains(buf.Bytes(), []byte(":: clean")) {
		t.Error("expected header for clean")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	g := pipelineGraph(t)
	inv := newFakeInvoker()
	out, _ := testOutput()
	r := &Runner{Graph: g, Out: out, Invoker: inv}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, "all"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(inv.calls) != 0 {
		t.Errorf("no command should run after cancellation, got %v", inv.calls)
	}
}

func TestRun_VerboseEchoesCommands(t *testing.T) {
	g := mustGraph(t,
		&Task{Name: "check", Commands: []Command{Cmd("go", "vet", "./...")}},
	)
	inv := newFakeInvoker()
	out, buf := testOutput()
	r := &Runner{Graph: g, Out: out, Invoker: inv, Verbose: true}

	if err := r.Run(context.Background(), "check"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("$ go vet ./...")) {
		t.Errorf("expected echoed command, got: %s", buf.String())
	}
}
