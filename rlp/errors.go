package rlp

import "errors"

// ErrValueTooLarge is returned when a value is too large to encode.
var ErrValueTooLarge = errors.New("rlp: value too large")
