package restclient

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotAbsolute indica uma URL relativa ou sem esquema http/https.
var ErrNotAbsolute = errors.New("url must be absolute http(s)")

const defaultErrorMessage = "There was a connection error. The server responded with status code %d."

// HTTPError é retornado pela Response quando o status é >= 400.
// Message traz o corpo de erro enviado pelo servidor.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

var _ error = &HTTPError{}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Message)
}
