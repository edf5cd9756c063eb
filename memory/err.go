package memory

import (
	"errors"

	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	// Memory errors
	ErrMemoryOverflow = errors.New(f("load exceeds address space"))
)
