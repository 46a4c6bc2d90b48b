package controllers

import (
	"net/http"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/api/validators"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
)

var errMovieNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "movie not found")

type movieCatalog interface {
	List() []types.Movie
	Lookup(id int) (types.Movie, bool)
}

func MoviesList(catalog movieCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, catalog.List())
	}
}

func MovieDetail(catalog movieCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := validators.ParsePathInt(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movie, ok := catalog.Lookup(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, errMovieNotFound)
			return
		}
		responses.WriteSuccess(w, movie)
	}
}
