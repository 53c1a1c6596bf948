package wbuild

import (
	"fmt"
	"io"
	"os"
)

// Output holds the stdout and stderr writers the runner and spawned
// commands write to. Tests substitute buffers here to capture everything.
type Output struct {
	Stdout io.Writer
	Stderr io.Writer
}

// StdOutput returns an Output wired to the process's own streams.
func StdOutput() *Output {
	return &Output{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Printf formats and prints to stdout.
func (o *Output) Printf(format string, a ...any) {
	fmt.Fprintf(o.Stdout, format, a...)
}

// Errorf formats and prints to stderr.
func (o *Output) Errorf(format string, a ...any) {
	fmt.Fprintf(o.Stderr, format, a...)
}
