package project

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the project file does not exist.
	ErrNotFound = errors.New("project file not found")

	// ErrNoCommands is returned when the command section is missing or empty.
	ErrNoCommands = errors.New("project file has no [command] section or it is empty")
)

// UndefinedCommandError reports a set member that names no command.
type UndefinedCommandError struct {
	Set     string
	Command string
}

func (e *UndefinedCommandError) Error() string {
	return fmt.Sprintf("set %q references undefined command %q", e.Set, e.Command)
}

// UnknownNameError reports a run request naming neither a command nor a set.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown command or set %q", e.Name)
}

// ValueError reports a value that starts with a quote the project file
// cannot carry verbatim.
type ValueError struct {
	Line  int
	Key   string
	Quote string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("line %d: value of %q must not start with %s; use $(...) or move the quote past the first word",
		e.Line, e.Key, e.Quote)
}
