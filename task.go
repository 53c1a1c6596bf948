// Package wbuild orchestrates the build, verification, test, documentation
// and packaging steps of the gqlclient project, which compiles to a native
// library and to a WebAssembly module for the browser.
//
// Tasks are immutable values wrapping ordered command sequences plus
// prerequisite declarations. The graph of all tasks is constructed once at
// startup and resolved into a strictly sequential, fail-fast execution order.
package wbuild

import "strings"

// Command is a single external program invocation. Commands share nothing
// beyond the inherited process environment; there is no shell between them.
type Command struct {
	Program string
	Args    []string
	Dir     string // working directory override; empty means inherit
}

// Cmd creates a Command for the given program and arguments.
func Cmd(program string, args ...string) Command {
	return Command{Program: program, Args: args}
}

// InDir returns a copy of the command with a working directory override.
func (c Command) InDir(dir string) Command {
	c.Dir = dir
	return c
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// Task is a named unit of work: an ordered command sequence plus the names
// of tasks that must run before it. Tasks with profile-specific behavior
// declare Variants instead of (or in addition to) Commands. Watch tasks
// carry a WatchSpec and no commands of their own.
//
// Tasks are read-only after graph construction; nothing mutates a task
// definition at runtime.
type Task struct {
	Name     string
	Usage    string
	Deps     []string
	Commands []Command
	Variants map[Profile][]Command
	Watch    *WatchSpec
}
