package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/api/validators"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/shopspring/decimal"
)

type cartService interface {
	Get(ctx context.Context, client string) ([]types.CartLine, error)
	Add(ctx context.Context, client string, movieID, qty int) ([]types.CartLine, error)
	SetQuantity(ctx context.Context, client string, movieID, qty int) ([]types.CartLine, error)
	Remove(ctx context.Context, client string, movieID int) ([]types.CartLine, error)
	Clear(ctx context.Context, client string) error
}

type addCartItemRequest struct {
	MovieID  int  `json:"movie_id" validate:"required,min=1"`
	Quantity *int `json:"quantity,omitempty" validate:"omitempty,min=1,max=99"`
}

// Quantity below 1 removes the line.
type setCartItemRequest struct {
	Quantity int `json:"quantity" validate:"max=99"`
}

type cartResponse struct {
	Items []types.CartLine `json:"items"`
	Total decimal.Decimal  `json:"total"`
	Count int              `json:"count"`
}

func newCartResponse(lines []types.CartLine) cartResponse {
	if lines == nil {
		lines = []types.CartLine{}
	}
	return cartResponse{
		Items: lines,
		Total: types.LinesTotal(lines),
		Count: types.LinesCount(lines),
	}
}

func CartFetch(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Get(r.Context(), client)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

// CartAddItem adds quantity (default 1) of a catalog movie. Unknown movie
// ids leave the cart unchanged.
func CartAddItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty := 1
		if body.Quantity != nil {
			qty = *body.Quantity
		}

		lines, err := svc.Add(r.Context(), client, body.MovieID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

func CartUpdateItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movieID, err := validators.ParsePathInt(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.SetQuantity(r.Context(), client, movieID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

func CartRemoveItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movieID, err := validators.ParsePathInt(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Remove(r.Context(), client, movieID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

func CartClear(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), client); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
