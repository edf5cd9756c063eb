package emulator

import (
	"errors"

	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	ErrBreakpoint = errors.New(f("breakpoint"))
	ErrStepLimit  = errors.New(f("step limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint16
	LineNo  int
	Err     error
}

func (err *ErrRuntime) Error() string {
	return f("line %d (0x%04x) %v", err.LineNo, err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
