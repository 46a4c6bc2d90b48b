package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/filmex-backend/internal/cart"
	"github.com/angelmondragon/filmex-backend/internal/catalog"
	"github.com/angelmondragon/filmex-backend/internal/mirror"
	"github.com/angelmondragon/filmex-backend/internal/mirror/mirrortest"
	"github.com/angelmondragon/filmex-backend/internal/session"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	"github.com/angelmondragon/filmex-backend/pkg/kvstore"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc        *Service
	sessions   *session.Manager
	carts      *cart.Manager
	records    *kvstore.Records
	recorder   *mirrortest.Recorder
	dispatcher *mirror.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	records, err := kvstore.NewRecords(kvstore.NewMemoryStore(), logg)
	require.NoError(t, err)
	locker := kvstore.NewLocalLocker()
	recorder := &mirrortest.Recorder{}
	dispatcher, err := mirror.NewDispatcher(mirror.DispatcherParams{Mirror: recorder, Logger: logg})
	require.NoError(t, err)

	sessions, err := session.NewManager(session.ManagerParams{
		Records:    records,
		Locker:     locker,
		Dispatcher: dispatcher,
		Logger:     logg,
		Password:   config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	require.NoError(t, err)

	carts, err := cart.NewManager(cart.ManagerParams{
		Records:    records,
		Locker:     locker,
		Catalog:    catalog.Default(),
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Logger:     logg,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{Carts: carts, Sessions: sessions, Logger: logg})
	require.NoError(t, err)

	return &fixture{svc: svc, sessions: sessions, carts: carts, records: records, recorder: recorder, dispatcher: dispatcher}
}

func (f *fixture) login(t *testing.T, client string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.sessions.Register(ctx, "Ana Lopez", "ana@example.com", "secret")
	require.NoError(t, err)
	_, err = f.sessions.Login(ctx, client, "ana@example.com", "secret")
	require.NoError(t, err)
}

func TestCheckoutRequiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.carts.Add(ctx, "c1", 1, 1)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "c1")
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	count, err := f.carts.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheckoutEmptyCartLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1")
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, "c1")
	require.ErrorIs(t, err, ErrEmptyCart)

	var users []types.User
	_, err = f.records.Read(ctx, kvstore.UsersKey, &users)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].Purchases)

	purchases, err := f.sessions.Purchases(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestCheckoutEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1")
	ctx := context.Background()

	_, err := f.carts.Add(ctx, "c1", 1, 1)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, "c1", 2, 1)
	require.NoError(t, err)

	total, err := f.carts.Total(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "34.98", total.StringFixed(2))

	result, err := f.svc.Checkout(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "34.98", result.Purchase.Total.StringFixed(2))
	require.Len(t, result.Purchase.Items, 2)
	require.Len(t, result.User.Purchases, 1)
	assert.Equal(t, result.Purchase.ID, result.User.Purchases[0].ID)

	lines, err := f.carts.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	current, ok, err := f.sessions.CurrentUser(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, current.Purchases, 1)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, f.dispatcher.Wait(waitCtx))

	_, _, orders := f.recorder.Snapshot()
	pending := 0
	for _, order := range orders {
		if order.Status == mirror.OrderStatusPending {
			pending++
		}
	}
	assert.Equal(t, 2, pending, "one pending order per purchased line")
}

func TestCancelClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.carts.Add(ctx, "c1", 6, 3)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, "c1"))

	count, err := f.carts.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
