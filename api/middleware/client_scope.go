package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/filmex-backend/api/responses"
	pkgAuth "github.com/angelmondragon/filmex-backend/pkg/auth"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	ClientIDHeader = "X-Client-Id"

	maxClientIDLen  = 64
	clientCookieAge = 365 * 24 * 60 * 60
)

// ClientScopeOptions configures how a request is mapped to a client.
type ClientScopeOptions struct {
	CookieName   string
	JWT          config.JWTConfig
	SecureCookie bool
}

// ClientScope resolves the client that owns the session and cart records of
// a request. A valid bearer token wins, then the X-Client-Id header, then the
// client cookie. Requests with none of them get a fresh id in a cookie. A
// bearer token that fails verification is rejected.
func ClientScope(opts ClientScopeOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = "filmex_client"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var clientID, userID string

			if token, ok := bearerToken(r); ok {
				claims, err := pkgAuth.ParseAccessToken(opts.JWT, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				if !validClientID(claims.ClientID) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token carries no client"))
					return
				}
				clientID = claims.ClientID
				userID = claims.UserID
			}

			if clientID == "" {
				if header := strings.TrimSpace(r.Header.Get(ClientIDHeader)); header != "" {
					if !validClientID(header) {
						responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid client id").WithDetails(map[string]any{"header": ClientIDHeader}))
						return
					}
					clientID = header
				}
			}

			if clientID == "" {
				if cookie, err := r.Cookie(cookieName); err == nil && validClientID(cookie.Value) {
					clientID = cookie.Value
				}
			}

			if clientID == "" {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    clientID,
					Path:     "/",
					MaxAge:   clientCookieAge,
					HttpOnly: true,
					Secure:   opts.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			w.Header().Set(ClientIDHeader, clientID)
			ctx = WithClientID(ctx, clientID)
			if logg != nil {
				ctx = logg.WithClientID(ctx, clientID)
			}
			if userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(raw[7:])
	return token, token != ""
}

func validClientID(value string) bool {
	if value == "" || len(value) > maxClientIDLen {
		return false
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
