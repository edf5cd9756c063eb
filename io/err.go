package io

import (
	"errors"

	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	// Port errors
	ErrPortInvalid = errors.New(f("port invalid"))
)
