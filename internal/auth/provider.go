// Package auth resolves the signed-in user for HTTP requests.
package auth

import (
	"net/http"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/rs/zerolog"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

type AuthProvider interface {
	// WithSessionAuthorization puts the user id in the request context when
	// the request carries a valid session.
	WithSessionAuthorization() func(http.Handler) http.Handler

	GetUserIDFromSession(r *http.Request) (model.UserID, error)

	EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error)
}
