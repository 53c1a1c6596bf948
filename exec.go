package wbuild

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// BinDir is the project-local directory for pinned tool binaries. It is
// prepended to PATH for every spawned command so the project's tool
// versions win over whatever is installed globally.
const BinDir = ".wbuild/bin"

// waitDelay is the grace period a child gets to handle SIGINT after context
// cancellation before it is force-killed.
const waitDelay = 5 * time.Second

// Invoker executes a single external command, blocking until it exits.
// A nil return means exit status zero. Commands that exit non-zero return
// an *exec.ExitError; commands that never start return a *SpawnError.
type Invoker interface {
	Execute(ctx context.Context, cmd Command) error
}

// ShellInvoker runs commands as child processes with the parent's
// environment and live standard streams, so tool output reaches the
// operator unbuffered.
type ShellInvoker struct {
	Out *Output
}

func (s *ShellInvoker) Execute(ctx context.Context, c Command) error {
	colorEnvOnce.Do(initColorEnv)

	env := prependPath(os.Environ(), BinDir)
	env = append(env, colorEnvVars...)

	// exec.Command resolves bare names against the parent's PATH before
	// cmd.Env takes effect, so project-pinned tools need the full path.
	name := c.Program
	if !strings.ContainsAny(name, `/\`) {
		if pinned := filepath.Join(BinDir, name); fileExists(pinned) {
			name = pinned
		}
	}

	cmd := exec.CommandContext(ctx, name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.out().Stdout
	cmd.Stderr = s.out().Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return err
	}
	return &SpawnError{Program: c.Program, Err: err}
}

func (s *ShellInvoker) out() *Output {
	if s.Out != nil {
		return s.Out
	}
	return StdOutput()
}

// exitCodeOf extracts the child's exit code from an Execute error.
// Returns -1 for commands that never started.
func exitCodeOf(err error) int {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}

var (
	colorEnvOnce sync.Once
	colorEnvVars []string
)

// colorForceEnvVars are set so tools keep emitting ANSI colors even though
// their stdout is a pipe to the orchestrator.
var colorForceEnvVars = []string{
	"FORCE_COLOR=1",
	"CLICOLOR_FORCE=1",
	"COLORTERM=truecolor",
}

// computeColorEnv decides which color-forcing env vars apply.
// The NO_COLOR convention (https://no-color.org/) always wins.
func computeColorEnv(isTTY, noColorSet bool) []string {
	if noColorSet || !isTTY {
		return nil
	}
	return colorForceEnvVars
}

func initColorEnv() {
	_, noColor := os.LookupEnv("NO_COLOR")
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	colorEnvVars = computeColorEnv(isTTY, noColor)
}

// prependPath prepends dir to the PATH entry of the given environment.
func prependPath(env []string, dir string) []string {
	result := make([]string, 0, len(env)+1)
	pathSet := false
	for _, e := range env {
		if oldPath, found := strings.CutPrefix(e, "PATH="); found {
			result = append(result, "PATH="+dir+string(os.PathListSeparator)+oldPath)
			pathSet = true
		} else {
			result = append(result, e)
		}
	}
	if !pathSet {
		result = append(result, "PATH="+dir)
	}
	return result
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
