package io

import (
	"io"
)

// Tape is a byte stream port. IN reads the next byte of Input, and OUT
// writes a byte to Output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	ended bool
}

// Reset clears the end of input state.
func (tc *Tape) Reset() {
	tc.ended = false
}

// Ended returns true once a read of Input has failed.
func (tc *Tape) Ended() bool {
	return tc.ended
}

// In returns the next byte of input, or 0x00 once the input has ended.
func (tc *Tape) In() (value uint8) {
	if tc.Input == nil || tc.ended {
		return
	}

	var one [1]byte
	_, err := io.ReadFull(tc.Input, one[:])
	if err != nil {
		tc.ended = true
		return
	}

	value = one[0]

	return
}

// Out writes a byte to the output stream. Without an output the byte is
// discarded.
func (tc *Tape) Out(value uint8) {
	if tc.Output == nil {
		return
	}

	_, _ = tc.Output.Write([]byte{value})
}
