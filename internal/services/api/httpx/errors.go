package httpx

import (
	"errors"
	"net/http"

	"github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/domain/content"
	"github.com/NordCoder/Vidrate/internal/domain/user"
)

// Error carries a client-safe message for a specific status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func BadRequest(msg string) *Error { return &Error{Status: http.StatusBadRequest, Message: msg} }

const msgUnauthenticated = "unauthenticated"

// Translate maps an error to the status and message the client sees. Unknown
// errors become a bare 500 so internal details stay in the logs.
func Translate(err error) (int, string) {
	var he *Error
	switch {
	case errors.As(err, &he):
		return he.Status, he.Message
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrTokenMissing),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked):
		return http.StatusUnauthorized, msgUnauthenticated
	case errors.Is(err, auth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	case errors.Is(err, user.ErrUsernameTaken):
		return http.StatusConflict, user.ErrUsernameTaken.Error()
	case errors.Is(err, content.ErrUnsupportedVideo):
		return http.StatusBadRequest, content.ErrUnsupportedVideo.Error()
	case errors.Is(err, content.ErrVideoLookup):
		return http.StatusBadGateway, content.ErrVideoLookup.Error()
	case errors.Is(err, content.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func WriteErr(w http.ResponseWriter, err error) int {
	status, msg := Translate(err)
	WriteError(w, status, msg)
	return status
}
