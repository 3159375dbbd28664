package manager

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Command is an operator command sent by the server.
type Command string

const (
	CommandPause Command = "pause"
	CommandPlay  Command = "play"
	CommandSkip  Command = "skip"
)

// Commands lists every accepted command.
var Commands = []Command{CommandPause, CommandPlay, CommandSkip}

// ErrUnknownCommand matches any UnknownCommandError.
var ErrUnknownCommand = errors.New("unknown command")

// IsCommand reports whether name is an accepted command.
func IsCommand(name string) bool {
	return lo.Contains(Commands, Command(name))
}

// UnknownCommandError is returned when a command is not one of Commands.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command requested: '%s'", e.Command)
}

func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}
