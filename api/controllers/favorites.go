package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/api/validators"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
)

type favoritesService interface {
	Favorites(ctx context.Context, client string) ([]types.Movie, error)
	AddToFavorites(ctx context.Context, client string, movie types.Movie) (*types.SessionUser, error)
}

type addFavoriteRequest struct {
	MovieID int `json:"movie_id" validate:"required,min=1"`
}

func FavoritesList(svc favoritesService, logg *logger.Logger) http.HandlerFunc {
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

		favorites, err := svc.Favorites(r.Context(), client)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, favorites)
	}
}

// FavoritesAdd resolves the movie from the catalog and appends it to the
// logged-in user's favorites.
func FavoritesAdd(svc favoritesService, catalog movieCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addFavoriteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movie, ok := catalog.Lookup(body.MovieID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, errMovieNotFound)
			return
		}

		user, err := svc.AddToFavorites(r.Context(), client, movie)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user.Favorites)
	}
}
