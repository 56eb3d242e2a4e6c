package tape

import (
	"errors"

	"github.com/ezrec/pdp8/translate"
)

var f = translate.From

var (
	// Tape errors
	ErrUnreadable = errors.New(f("tape unreadable"))
	ErrNoPunch    = errors.New(f("no punch output"))
)
