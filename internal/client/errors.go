package client

import (
	"errors"
	"fmt"

	"github.com/nhle/todolist/internal/api"
)

// ErrNotFound matches (via errors.Is) a RemoteError whose code is not_found.
var ErrNotFound = errors.New("todo not found")

// TransportError is returned when the server could not be reached or its
// reply could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a well-formed error reply from the server.
type RemoteError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Code, e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match not_found replies.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.Code == api.CodeNotFound
}

// Outcome is the coarse result of a remote call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeTransport
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not found"
	case OutcomeTransport:
		return "unreachable"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify maps the error of a client call onto an Outcome. Errors that
// did not come from this package count as transport failures.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, ErrNotFound) {
		return OutcomeNotFound
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return OutcomeRejected
	}
	return OutcomeTransport
}
