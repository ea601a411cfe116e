package service

import (
	"context"
	"fmt"
	"strings"
)

// LineHandler receives one non-empty line of subprocess output.
type LineHandler func(line string)

// Command describes an external process invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
	// Env entries are appended to the current environment.
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Process is a started command.
type Process interface {
	// Lines yields merged stdout and stderr lines and closes once the process exited.
	Lines() <-chan string
	// Wait drains any unread output and returns the exit error.
	Wait() error
}

// CommandRunner starts external processes.
type CommandRunner interface {
	Start(ctx context.Context, cmd Command) (Process, error)
	// Run starts cmd, passes every output line to onLine and waits for exit.
	Run(ctx context.Context, cmd Command, onLine LineHandler) error
}

// CommandError reports a process that exited unsuccessfully.
type CommandError struct {
	Command  string
	ExitCode int
	// Output holds the last lines the process printed.
	Output []string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, e.Command)
	if len(e.Output) > 0 {
		msg += "\n" + strings.Join(e.Output, "\n")
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func emit(onLine LineHandler, line string) {
	if onLine != nil {
		onLine(line)
	}
}
