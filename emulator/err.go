package emulator

import (
	"errors"

	"github.com/ezrec/pdp8/translate"
)

var f = translate.From

var (
	ErrSwitchRange = errors.New(f("switch register value out of range"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint16 // Address of the failing instruction.
	LineNo  int    // Source line, when the program was assembled.
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("%04o: %v", err.Address, err.Err)
	}
	return f("%04o: line %d %v", err.Address, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrCommand is an unknown front panel command.
type ErrCommand string

func (err ErrCommand) Error() string {
	return f("unknown command: '%v'", string(err))
}
