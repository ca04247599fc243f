package object

import "errors"

// Error kinds reported by the object layer. Callers match them with
// errors.Is; the underlying cause (if any) stays in the wrap chain.
var (
	ErrIO                = errors.New("io error")
	ErrMalformedObject   = errors.New("malformed object")
	ErrUnknownObjectType = errors.New("unknown object type")
	ErrInvalidTreeMode   = errors.New("invalid tree mode")
	ErrInvalidUTF8       = errors.New("invalid utf-8")
	ErrMissingData       = errors.New("missing required data")
	ErrInvalidHash       = errors.New("invalid object id")
)
