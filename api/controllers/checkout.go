package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
)

type checkoutService interface {
	Checkout(ctx context.Context, client string) (*checkout.Result, error)
	Cancel(ctx context.Context, client string) error
}

// CheckoutSubmit turns the client's cart into a purchase on the logged-in user.
func CheckoutSubmit(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), client)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CheckoutCancel(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), client); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
