package controllers

import (
	"net/http"

	"github.com/angelmondragon/filmex-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
)

// requireClient returns the client id resolved by the ClientScope middleware.
func requireClient(r *http.Request) (string, error) {
	client := middleware.ClientIDFromContext(r.Context())
	if client == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "client scope missing")
	}
	return client, nil
}
