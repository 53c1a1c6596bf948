package wbuild

import (
	"fmt"
	"strings"
)

// UnknownTaskError reports a task name that is not present in the graph,
// either requested directly or referenced as a prerequisite.
type UnknownTaskError struct {
	Name         string
	ReferencedBy string // empty when the name was requested directly
}

func (e *UnknownTaskError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("unknown task %q (required by %q)", e.Name, e.ReferencedBy)
	}
	return fmt.Sprintf("unknown task %q", e.Name)
}

// CycleError reports a prerequisite cycle. Path holds the task names along
// the cycle, ending with the task that closed it.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// UnsupportedVariantError reports a profile for which a task defines no
// command variant.
type UnsupportedVariantError struct {
	Task    string
	Profile Profile
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("task %q has no %s variant", e.Task, e.Profile)
}

// SpawnError reports a command that could not be started at all, as opposed
// to one that started and exited non-zero.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %q: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TaskFailure reports the first failing command of a run: which task it
// belonged to, its position in that task's command sequence, and the child's
// exit code (-1 when the command never started).
type TaskFailure struct {
	Task         string
	CommandIndex int
	ExitCode     int
	Err          error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task %q: command %d: %v", e.Task, e.CommandIndex, e.Err)
}

func (e *TaskFailure) Unwrap() error { return e.Err }
