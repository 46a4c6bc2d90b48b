// Package mirror replicates users, favorites and order lines to a document
// database on a best-effort basis. The local store stays authoritative:
// mirror failures are logged and counted, never returned to callers of the
// storefront operations.
package mirror

import (
	"context"

	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
)

var (
	ErrNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "mirror document not found")
	ErrInvalidID   = pkgerrors.New(pkgerrors.CodeValidation, "invalid mirror document id")
	ErrUnavailable = pkgerrors.New(pkgerrors.CodeDependency, "remote mirror unavailable")
)

// Mirror is the remote replication surface.
type Mirror interface {
	AddUser(ctx context.Context, doc UserDocument) (string, error)
	GetUser(ctx context.Context, email string) (*UserDocument, error)
	AddFavorite(ctx context.Context, doc FavoriteDocument) (string, error)
	ListFavorites(ctx context.Context, userID string) ([]FavoriteDocument, error)
	AddOrder(ctx context.Context, doc OrderDocument) (string, error)
	GetOrder(ctx context.Context, id string) (*OrderDocument, error)
	ListOrders(ctx context.Context, userID string) ([]OrderDocument, error)
}
