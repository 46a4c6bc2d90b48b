// Package cart keeps one shopping cart per client. Lines snapshot the
// catalog entry when first added; totals are always recomputed from them.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/filmex-backend/internal/mirror"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/kvstore"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/shopspring/decimal"
)

const opCartAdd = "cart_add"

type recordStore interface {
	Read(ctx context.Context, key string, dest any) (bool, error)
	Write(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

type catalogLookup interface {
	Lookup(id int) (types.Movie, bool)
}

type sessionReader interface {
	CurrentUser(ctx context.Context, client string) (*types.SessionUser, bool, error)
}

type ManagerParams struct {
	Records    recordStore
	Locker     kvstore.Locker
	Catalog    catalogLookup
	Sessions   sessionReader
	Dispatcher *mirror.Dispatcher
	Logger     *logger.Logger
	Now        func() time.Time
}

type Manager struct {
	records  recordStore
	locker   kvstore.Locker
	catalog  catalogLookup
	sessions sessionReader
	mirror   *mirror.Dispatcher
	logg     *logger.Logger
	now      func() time.Time
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Records == nil {
		return nil, fmt.Errorf("records required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		records:  params.Records,
		locker:   params.Locker,
		catalog:  params.Catalog,
		sessions: params.Sessions,
		mirror:   params.Dispatcher,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (m *Manager) Get(ctx context.Context, client string) ([]types.CartLine, error) {
	return m.load(ctx, client)
}

// Add puts qty copies of movieID in the cart. Unknown movies leave the cart
// untouched.
func (m *Manager) Add(ctx context.Context, client string, movieID, qty int) ([]types.CartLine, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	movie, ok := m.catalog.Lookup(movieID)
	if !ok {
		m.logg.Debug(m.logg.WithField(ctx, "movie_id", movieID), "ignoring unknown movie")
		return m.load(ctx, client)
	}

	lines, err := m.update(ctx, client, func(lines []types.CartLine) []types.CartLine {
		if idx := indexOf(lines, movieID); idx >= 0 {
			lines[idx].Quantity += qty
			return lines
		}
		return append(lines, types.CartLine{
			ID:       movie.ID,
			Title:    movie.Title,
			Price:    movie.Price,
			Image:    movie.Image,
			Quantity: qty,
		})
	})
	if err != nil {
		return nil, err
	}

	m.mirrorAddition(ctx, client, movie, qty)
	return lines, nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity below
// one removes the line; absent lines are not created.
func (m *Manager) SetQuantity(ctx context.Context, client string, movieID, qty int) ([]types.CartLine, error) {
	return m.update(ctx, client, func(lines []types.CartLine) []types.CartLine {
		idx := indexOf(lines, movieID)
		if idx < 0 {
			return lines
		}
		if qty < 1 {
			return append(lines[:idx], lines[idx+1:]...)
		}
		lines[idx].Quantity = qty
		return lines
	})
}

func (m *Manager) Remove(ctx context.Context, client string, movieID int) ([]types.CartLine, error) {
	return m.update(ctx, client, func(lines []types.CartLine) []types.CartLine {
		if idx := indexOf(lines, movieID); idx >= 0 {
			return append(lines[:idx], lines[idx+1:]...)
		}
		return lines
	})
}

func (m *Manager) Clear(ctx context.Context, client string) error {
	key := kvstore.CartKey(client)
	unlock, err := m.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return m.clear(ctx, key)
}

func (m *Manager) Total(ctx context.Context, client string) (decimal.Decimal, error) {
	lines, err := m.load(ctx, client)
	if err != nil {
		return decimal.Zero, err
	}
	return types.LinesTotal(lines), nil
}

// Count is the number of items in the cart, quantities included.
func (m *Manager) Count(ctx context.Context, client string) (int, error) {
	lines, err := m.load(ctx, client)
	if err != nil {
		return 0, err
	}
	return types.LinesCount(lines), nil
}

// Settle hands the locked cart to fn and empties it only when fn succeeds.
// The cart lock is held for the whole call, so fn must not call back into
// the Manager.
func (m *Manager) Settle(ctx context.Context, client string, fn func(lines []types.CartLine) error) error {
	key := kvstore.CartKey(client)
	unlock, err := m.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	lines, err := m.read(ctx, key)
	if err != nil {
		return err
	}
	if err := fn(types.CloneLines(lines)); err != nil {
		return err
	}
	return m.clear(ctx, key)
}

func (m *Manager) update(ctx context.Context, client string, mutate func([]types.CartLine) []types.CartLine) ([]types.CartLine, error) {
	key := kvstore.CartKey(client)
	unlock, err := m.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lines, err := m.read(ctx, key)
	if err != nil {
		return nil, err
	}
	lines = mutate(lines)
	if err := m.records.Write(ctx, key, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return types.CloneLines(lines), nil
}

func (m *Manager) load(ctx context.Context, client string) ([]types.CartLine, error) {
	return m.read(ctx, kvstore.CartKey(client))
}

func (m *Manager) read(ctx context.Context, key string) ([]types.CartLine, error) {
	var lines []types.CartLine
	ok, err := m.records.Read(ctx, key, &lines)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	if !ok {
		return []types.CartLine{}, nil
	}
	return types.CloneLines(lines), nil
}

func (m *Manager) clear(ctx context.Context, key string) error {
	if err := m.records.Remove(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// mirrorAddition records the addition for logged-in clients only.
func (m *Manager) mirrorAddition(ctx context.Context, client string, movie types.Movie, qty int) {
	if !m.mirror.Enabled() {
		return
	}
	user, ok, err := m.sessions.CurrentUser(ctx, client)
	if err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "err", err.Error()), "cart mirror skipped, session unreadable")
		return
	}
	if !ok {
		return
	}
	line := types.CartLine{ID: movie.ID, Title: movie.Title, Price: movie.Price, Image: movie.Image, Quantity: qty}
	now := m.now()
	userID := user.ID
	m.mirror.Submit(ctx, opCartAdd, func(ctx context.Context, mr mirror.Mirror) error {
		_, err := mr.AddOrder(ctx, mirror.NewOrderDocument(line, userID, mirror.OrderStatusInCart, now))
		return err
	})
}

func indexOf(lines []types.CartLine, movieID int) int {
	for i, line := range lines {
		if line.ID == movieID {
			return i
		}
	}
	return -1
}
