package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/api/validators"
	pkgAuth "github.com/angelmondragon/filmex-backend/pkg/auth"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
)

const tokenHeader = "X-Filmex-Token"

type accountService interface {
	Register(ctx context.Context, name, email, password string) (*types.SessionUser, error)
	Login(ctx context.Context, client, email, password string) (*types.SessionUser, error)
	Logout(ctx context.Context, client string) error
	CurrentUser(ctx context.Context, client string) (*types.SessionUser, bool, error)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User        types.SessionUser `json:"user"`
	AccessToken string            `json:"access_token"`
}

type meResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *types.SessionUser `json:"user"`
}

// AuthRegister creates an account. The caller still has to log in.
func AuthRegister(svc accountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), validators.SanitizeString(body.Name, 120), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthLogin stores the session for the calling client and returns a token
// that pins later requests to the same client.
func AuthLogin(svc accountService, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Login(r.Context(), client, body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := mintSessionToken(jwtCfg, user.ID, client)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, token)
		responses.WriteSuccess(w, loginResponse{User: *user, AccessToken: token})
	}
}

func AuthLogout(svc accountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Logout(r.Context(), client); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// AuthMe reports the client's session. Anonymous clients get
// authenticated=false rather than an error.
func AuthMe(svc accountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, ok, err := svc.CurrentUser(r.Context(), client)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, meResponse{Authenticated: ok, User: user})
	}
}

func mintSessionToken(cfg config.JWTConfig, userID, client string) (string, error) {
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		ClientID: client,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}
