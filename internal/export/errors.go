package export

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when there is nothing to export. The sink is not touched.
var ErrNoData = errors.New("no data to export")

// ErrorKind classifies sink failures.
type ErrorKind string

const (
	KindForbidden ErrorKind = "forbidden"
	KindNotFound  ErrorKind = "not-found"
	KindOther     ErrorKind = "other"
)

// Error is a failed write to the sink.
type Error struct {
	Kind        ErrorKind
	Destination string
	Key         string
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindForbidden:
		return fmt.Sprintf("export to %s/%s forbidden: %v", e.Destination, e.Key, e.Err)
	case KindNotFound:
		return fmt.Sprintf("export destination %s not found: %v", e.Destination, e.Err)
	default:
		return fmt.Sprintf("export to %s/%s failed: %v", e.Destination, e.Key, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var exportErr *Error
	if errors.As(err, &exportErr) {
		return exportErr.Kind == kind
	}

	return false
}
