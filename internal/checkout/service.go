package checkout

import (
	"context"
	"fmt"

	"github.com/angelmondragon/filmex-backend/internal/session"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
)

var ErrEmptyCart = pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")

type cartSettler interface {
	Settle(ctx context.Context, client string, fn func(lines []types.CartLine) error) error
	Clear(ctx context.Context, client string) error
}

type purchaseRecorder interface {
	CurrentUser(ctx context.Context, client string) (*types.SessionUser, bool, error)
	RecordPurchase(ctx context.Context, client string, lines []types.CartLine) (*types.Purchase, *types.SessionUser, error)
}

// Result is the outcome of a successful checkout.
type Result struct {
	Purchase types.Purchase    `json:"purchase"`
	User     types.SessionUser `json:"user"`
}

type ServiceParams struct {
	Carts    cartSettler
	Sessions purchaseRecorder
	Logger   *logger.Logger
}

type Service struct {
	carts    cartSettler
	sessions purchaseRecorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart manager required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{carts: params.Carts, sessions: params.Sessions, logg: params.Logger}, nil
}

// Checkout turns the client's cart into a purchase on the logged-in user.
// The cart is cleared only after the purchase is persisted.
func (s *Service) Checkout(ctx context.Context, client string) (*Result, error) {
	if _, ok, err := s.sessions.CurrentUser(ctx, client); err != nil {
		return nil, err
	} else if !ok {
		return nil, session.ErrNotAuthenticated
	}

	var result Result
	err := s.carts.Settle(ctx, client, func(lines []types.CartLine) error {
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		purchase, user, err := s.sessions.RecordPurchase(ctx, client, lines)
		if err != nil {
			return err
		}
		result = Result{Purchase: *purchase, User: *user}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"purchase_id": result.Purchase.ID,
		"items":       types.LinesCount(result.Purchase.Items),
	}), "checkout completed")
	return &result, nil
}

// Cancel abandons the pending order by emptying the cart.
func (s *Service) Cancel(ctx context.Context, client string) error {
	return s.carts.Clear(ctx, client)
}
