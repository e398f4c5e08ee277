package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAlreadyMatched    = errors.New("already matched")
	ErrNotEligible       = errors.New("not eligible")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
)

// ErrorKind is the stable wire name of a domain error.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindAlreadyMatched    ErrorKind = "already_matched"
	KindNotEligible       ErrorKind = "not_eligible"
	KindInvalidArgument   ErrorKind = "invalid_argument"
	KindForbidden         ErrorKind = "forbidden"
	KindConflict          ErrorKind = "conflict"
	KindInternal          ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrAlreadyMatched, KindAlreadyMatched},
	{ErrNotEligible, KindNotEligible},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrForbidden, KindForbidden},
	{ErrConflict, KindConflict},
}

// KindOf classifies err by the first domain sentinel it wraps.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
