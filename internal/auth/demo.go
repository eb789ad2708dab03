package auth

import (
	"errors"
	"net/http"

	"github.com/debemdeboas/inkpot/internal/cache"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNoSession = errors.New("no user ID in context")

// User is the public profile of the signed-in user.
type User struct {
	ID    model.UserID `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
}

// DemoAuthProvider signs everyone in as the configured demo user.
type DemoAuthProvider struct { // implements AuthProvider
	user       User
	cookieName string
	sessions   *cache.Cache[string, model.UserID]
}

func NewDemoAuthProvider(cfg config.AuthConfig) *DemoAuthProvider {
	return &DemoAuthProvider{
		user: User{
			ID:    model.UserID(cfg.DemoUserID),
			Name:  cfg.DemoUserName,
			Email: cfg.DemoUserEmail,
		},
		cookieName: config.CookieSession,
		sessions:   cache.NewCache[string, model.UserID](),
	}
}

func (p *DemoAuthProvider) User() User {
	return p.user
}

// SignIn starts a session for the demo user and sets the session cookie.
func (p *DemoAuthProvider) SignIn(w http.ResponseWriter, r *http.Request) {
	token := uuid.New().String()
	p.sessions.Set(token, p.user.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	zerolog.Ctx(r.Context()).Info().Str("user_id", string(p.user.ID)).Msg("User signed in")
	writeJSON(w, http.StatusOK, p.user)
}

// SignOut ends the session and clears the cookie.
func (p *DemoAuthProvider) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(p.cookieName); err == nil {
		p.sessions.Delete(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user's profile.
func (p *DemoAuthProvider) Me(w http.ResponseWriter, r *http.Request) {
	if _, err := p.EnforceUserAndGetID(w, r); err != nil {
		return
	}
	writeJSON(w, http.StatusOK, p.user)
}

func (p *DemoAuthProvider) WithSessionAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(p.cookieName)
			if err == nil && cookie.Value != "" {
				if userID, ok := p.sessions.Get(cookie.Value); ok {
					next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
					return
				}
			}

			// No valid session, proceed without user ID
			next.ServeHTTP(w, r)
		})
	}
}

func (p *DemoAuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return "", ErrNoSession
	}
	return userID, nil
}

func (p *DemoAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	userID, err := p.GetUserIDFromSession(r)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Unauthorized access attempt")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return "", err
	}
	return userID, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if err := util.WriteJSON(w, status, v); err != nil {
		authLogger.Error().Err(err).Msg("Failed to write response")
	}
}
