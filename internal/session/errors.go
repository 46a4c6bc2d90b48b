package session

import pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"

var (
	ErrDuplicateEmail     = pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	ErrNotAuthenticated   = pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	ErrAlreadyFavorite    = pkgerrors.New(pkgerrors.CodeConflict, "movie already in favorites")
	ErrUserNotFound       = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
)
