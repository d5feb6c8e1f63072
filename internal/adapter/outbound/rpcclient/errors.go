package rpcclient

import "errors"

// Sentinel errors a caller can test for with errors.Is. They match the
// gatehouse/internal/domain/gherr.Kind values surfaced over the wire.
var (
	ErrNotFound      = errors.New("gatehouse: not found")
	ErrAlreadyExists = errors.New("gatehouse: already exists")
	ErrInvalidArg    = errors.New("gatehouse: invalid argument")
	ErrPrecondition  = errors.New("gatehouse: failed precondition")
)

// Is lets errors.Is(err, rpcclient.ErrNotFound) (etc) match an *Error
// produced by do, based on the Kind the server reported.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == "NotFound"
	case ErrAlreadyExists:
		return e.Kind == "AlreadyExists"
	case ErrInvalidArg:
		return e.Kind == "InvalidArgument"
	case ErrPrecondition:
		return e.Kind == "FailedPrecondition"
	}
	return false
}
