package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTape_In(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader("hi")}

	assert.Equal(uint8('h'), tape.In())
	assert.False(tape.Ended())
	assert.Equal(uint8('i'), tape.In())
	assert.Equal(uint8(0), tape.In())
	assert.True(tape.Ended())
	assert.Equal(uint8(0), tape.In())

	tape.Reset()
	assert.False(tape.Ended())
}

func TestTape_Out(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	tape := &Tape{Output: out}

	for _, c := range []byte("ok\n") {
		tape.Out(c)
	}
	assert.Equal("ok\n", out.String())
}

func TestTape_Unconnected(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	tape.Out(0x41)
	assert.Equal(uint8(0), tape.In())
	assert.False(tape.Ended())
}

func TestTape_Ports(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	ps := &Ports{}
	ps.Attach(0x01, &Tape{Input: strings.NewReader("A"), Output: out})

	ps.Out(0x01, ps.In(0x01)+1)
	assert.Equal("B", out.String())
}
