package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Error es un rechazo explícito del backend (status >= 400).
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsRejected indica si err (o alguno de los envueltos) es un rechazo del backend.
func IsRejected(err error) bool {
	var be *Error
	return errors.As(err, &be)
}

// ErrMultipleRows se devuelve cuando MaybeSingle encuentra más de una fila.
var ErrMultipleRows = errors.New("multiple rows returned for a single-row query")

// parseError extrae el mensaje de las distintas formas de error de auth y de PostgREST.
func parseError(body []byte, status int) error {
	if !gjson.ValidBytes(body) {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("backend error: status %d", status)
		}
		return &Error{Status: status, Message: msg}
	}

	msg := firstString(gjson.GetManyBytes(body, "msg", "message", "error_description", "error"))
	if msg == "" {
		msg = fmt.Sprintf("backend error: status %d", status)
	}
	code := firstString(gjson.GetManyBytes(body, "error_code", "code"))
	return &Error{Status: status, Code: code, Message: msg}
}

func firstString(results []gjson.Result) string {
	for _, r := range results {
		if r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}
