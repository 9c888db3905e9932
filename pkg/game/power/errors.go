package power

import (
	"errors"

	"github.com/leonelquinteros/gotext"
)

// Link-creation rejections. None of them is fatal and a rejected attempt
// never mutates the link set.
var (
	ErrUnknownStructure  = errors.New("unknown structure")
	ErrDuplicateLink     = errors.New("duplicate link")
	ErrSelfLink          = errors.New("self link")
	ErrIncapableEndpoint = errors.New("incapable endpoint")
	ErrDegreeExceeded    = errors.New("degree exceeded")
)

// Notice returns the translated, user-facing notice for a link rejection.
// Uses gotext.Get with constant keys so vet can check them.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownStructure):
		return gotext.Get("LINK_UNKNOWN_STRUCTURE")
	case errors.Is(err, ErrDuplicateLink):
		return gotext.Get("LINK_DUPLICATE")
	case errors.Is(err, ErrSelfLink):
		return gotext.Get("LINK_SELF")
	case errors.Is(err, ErrIncapableEndpoint):
		return gotext.Get("LINK_INCAPABLE")
	case errors.Is(err, ErrDegreeExceeded):
		return gotext.Get("LINK_DEGREE_EXCEEDED")
	default:
		return err.Error()
	}
}
