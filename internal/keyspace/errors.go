package keyspace

import "errors"

// errIndexOutOfRange backs LSET's "index out of range" error.
var errIndexOutOfRange = errors.New("index out of range")

// ErrNotInteger / ErrNotFloat back the string-as-number view described
// in spec.md §3: arithmetic commands fail with a typed error when the
// stored bytes don't parse.
var (
	ErrNotInteger    = errors.New("value is not an integer or out of range")
	ErrNotFloat      = errors.New("value is not a valid float")
	ErrOverflow      = errors.New("increment or decrement would overflow")
	ErrSyntax        = errors.New("syntax error")
	ErrBitOpNotWrong = errors.New("BITOP NOT must be called with a single source key")
)

// ErrStreamIDTooSmall backs XADD's "equal or smaller" rejection
// (spec.md §3: "Stream entry ID strictly exceeds the last-assigned ID
// at append time (else the append is rejected)").
var ErrStreamIDTooSmall = errors.New("The ID specified in XADD is equal or smaller than the target stream top item")
