package store

import (
	"errors"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/service"
)

// Kind clasifica el origen de un fallo de acción.
type Kind int

const (
	// KindBackendRejected: el backend respondió con un error explícito.
	KindBackendRejected Kind = iota + 1
	// KindPreconditionFailed: la acción no se intentó porque el estado no lo permite.
	KindPreconditionFailed
	// KindTransportFailed: la llamada no llegó a tener respuesta utilizable.
	KindTransportFailed
)

func (k Kind) String() string {
	switch k {
	case KindBackendRejected:
		return "backend_rejected"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindTransportFailed:
		return "transport_failed"
	default:
		return "unknown"
	}
}

// Error es el fallo devuelto por las acciones de los stores.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrNoAccount             = errors.New("no account available")
)

func preconditionFailed(err error) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: err.Error(), Err: err}
}

// classify convierte cualquier error de servicio en *Error.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	var be *backend.Error
	switch {
	case errors.As(err, &be):
		return &Error{Kind: KindBackendRejected, Message: be.Message, Err: err}
	case errors.Is(err, service.ErrRateLimited):
		return &Error{Kind: KindBackendRejected, Message: err.Error(), Err: err}
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidAccountID),
		errors.Is(err, service.ErrInvalidHealthID),
		errors.Is(err, service.ErrInvalidObjectivesID):
		return preconditionFailed(err)
	default:
		return &Error{Kind: KindTransportFailed, Message: err.Error(), Err: err}
	}
}

// KindOf devuelve la clase de err, o 0 si no es un error de store.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
