// Package session owns the users collection and the per-client logged-in
// user. Every mutation writes the users record first and then refreshes
// the client's session copy so both stay identical apart from the
// password hash.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/filmex-backend/internal/mirror"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/kvstore"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/security"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	opAddUser     = "add_user"
	opGetUser     = "get_user"
	opAddFavorite = "add_favorite"
	opAddOrder    = "add_order"
)

type recordStore interface {
	Read(ctx context.Context, key string, dest any) (bool, error)
	Write(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

type ManagerParams struct {
	Records    recordStore
	Locker     kvstore.Locker
	Dispatcher *mirror.Dispatcher
	Logger     *logger.Logger
	Password   config.PasswordConfig
	Now        func() time.Time
}

type Manager struct {
	records  recordStore
	locker   kvstore.Locker
	mirror   *mirror.Dispatcher
	logg     *logger.Logger
	password config.PasswordConfig
	now      func() time.Time
}

// NewManager validates the dependencies. A nil Dispatcher disables mirroring.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Records == nil {
		return nil, fmt.Errorf("records required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
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
		mirror:   params.Dispatcher,
		logg:     params.Logger,
		password: params.Password,
		now:      now,
	}, nil
}

// NormalizeEmail trims and lowercases an address before it is compared or stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register appends a new user. It does not log the user in.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*types.SessionUser, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, email and password are required")
	}

	hash, err := security.HashPassword(password, m.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	unlock, err := m.locker.Lock(ctx, kvstore.UsersKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if indexByEmail(users, email) >= 0 {
		return nil, ErrDuplicateEmail
	}

	user := types.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Favorites:    []types.Movie{},
		Purchases:    []types.Purchase{},
		Created:      m.now().UTC(),
	}
	users = append(users, user)
	if err := m.records.Write(ctx, kvstore.UsersKey, users); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist users")
	}

	m.logg.Info(m.logg.WithUserID(ctx, user.ID), "user registered")
	m.mirror.Submit(ctx, opAddUser, func(ctx context.Context, mr mirror.Mirror) error {
		_, err := mr.AddUser(ctx, mirror.NewUserDocument(user))
		return err
	})

	session := user.Session()
	return &session, nil
}

// Login verifies the credentials and stores the session for client.
func (m *Manager) Login(ctx context.Context, client, email, password string) (*types.SessionUser, error) {
	email = NormalizeEmail(email)

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexByEmail(users, email)
	if idx < 0 {
		return nil, ErrInvalidCredentials
	}
	user := users[idx]

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		m.logg.Warn(m.logg.WithUserID(ctx, user.ID), "stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	session := user.Session()
	if err := m.writeSession(ctx, client, session); err != nil {
		return nil, err
	}

	m.logg.Info(m.logg.WithUserID(ctx, user.ID), "user logged in")
	m.mirror.Submit(ctx, opGetUser, func(ctx context.Context, mr mirror.Mirror) error {
		_, err := mr.GetUser(ctx, user.Email)
		if errors.Is(err, mirror.ErrNotFound) {
			// accounts created while the mirror was down are backfilled here
			_, err = mr.AddUser(ctx, mirror.NewUserDocument(user))
		}
		return err
	})

	return &session, nil
}

// Logout drops the client's session. Logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context, client string) error {
	key := kvstore.SessionKey(client)
	unlock, err := m.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := m.records.Remove(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove session")
	}
	return nil
}

// CurrentUser returns the client's logged-in user as the users record
// currently holds it. A session copy that fell behind a change made from
// another client is rewritten before it is returned.
func (m *Manager) CurrentUser(ctx context.Context, client string) (*types.SessionUser, bool, error) {
	unlock, err := m.locker.Lock(ctx, kvstore.SessionKey(client))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	return m.resolveSession(ctx, client)
}

// AddToFavorites appends movie to the logged-in user's favorites.
func (m *Manager) AddToFavorites(ctx context.Context, client string, movie types.Movie) (*types.SessionUser, error) {
	var userID string
	session, err := m.updateUser(ctx, client, func(user *types.User) error {
		if user.HasFavorite(movie.ID) {
			return ErrAlreadyFavorite
		}
		user.Favorites = append(user.Favorites, movie)
		userID = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := m.now()
	m.mirror.Submit(ctx, opAddFavorite, func(ctx context.Context, mr mirror.Mirror) error {
		_, err := mr.AddFavorite(ctx, mirror.NewFavoriteDocument(movie, userID, now))
		return err
	})
	return session, nil
}

// RecordPurchase snapshots lines into a Purchase on the logged-in user. The
// total is recomputed from the lines.
func (m *Manager) RecordPurchase(ctx context.Context, client string, lines []types.CartLine) (*types.Purchase, *types.SessionUser, error) {
	if len(lines) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase requires at least one line")
	}

	now := m.now().UTC()
	purchase := types.Purchase{
		ID:    uuid.NewString(),
		Items: types.CloneLines(lines),
		Total: types.LinesTotal(lines),
		Date:  now,
	}

	var userID string
	session, err := m.updateUser(ctx, client, func(user *types.User) error {
		user.Purchases = append(user.Purchases, purchase)
		userID = user.ID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"user_id":     userID,
		"purchase_id": purchase.ID,
		"total":       purchase.Total.StringFixed(2),
	}), "purchase recorded")

	items := types.CloneLines(purchase.Items)
	m.mirror.Submit(ctx, opAddOrder, func(ctx context.Context, mr mirror.Mirror) error {
		var errs error
		for _, line := range items {
			_, err := mr.AddOrder(ctx, mirror.NewOrderDocument(line, userID, mirror.OrderStatusPending, now))
			errs = multierr.Append(errs, err)
		}
		return errs
	})

	return &purchase, session, nil
}

func (m *Manager) Favorites(ctx context.Context, client string) ([]types.Movie, error) {
	session, err := m.requireSession(ctx, client)
	if err != nil {
		return nil, err
	}
	if session.Favorites == nil {
		return []types.Movie{}, nil
	}
	return session.Favorites, nil
}

func (m *Manager) Purchases(ctx context.Context, client string) ([]types.Purchase, error) {
	session, err := m.requireSession(ctx, client)
	if err != nil {
		return nil, err
	}
	if session.Purchases == nil {
		return []types.Purchase{}, nil
	}
	return session.Purchases, nil
}

// Users lists every registered account without credentials.
func (m *Manager) Users(ctx context.Context) ([]types.SessionUser, error) {
	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.SessionUser, 0, len(users))
	for _, user := range users {
		out = append(out, user.Session())
	}
	return out, nil
}

func (m *Manager) requireSession(ctx context.Context, client string) (*types.SessionUser, error) {
	session, ok, err := m.CurrentUser(ctx, client)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}

// resolveSession reads the client's session and refreshes it from the users
// record. Callers hold the session lock.
func (m *Manager) resolveSession(ctx context.Context, client string) (*types.SessionUser, bool, error) {
	key := kvstore.SessionKey(client)
	var stored types.SessionUser
	ok, err := m.records.Read(ctx, key, &stored)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	if !ok || stored.ID == "" {
		return nil, false, nil
	}

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, false, err
	}
	idx := indexByID(users, stored.ID)
	if idx < 0 {
		// account removed underneath the session; mutations report ErrUserNotFound
		return &stored, true, nil
	}

	fresh := users[idx].Session()
	if !sameSession(stored, fresh) {
		if err := m.records.Write(ctx, key, fresh); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh session")
		}
		m.logg.Debug(m.logg.WithUserID(ctx, fresh.ID), "stale session refreshed")
	}
	return &fresh, true, nil
}

func sameSession(a, b types.SessionUser) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// updateUser applies mutate to the session's user under the users and
// session locks, persists the users record, then refreshes the session.
func (m *Manager) updateUser(ctx context.Context, client string, mutate func(*types.User) error) (*types.SessionUser, error) {
	unlockUsers, err := m.locker.Lock(ctx, kvstore.UsersKey)
	if err != nil {
		return nil, err
	}
	defer unlockUsers()

	sessionKey := kvstore.SessionKey(client)
	unlockSession, err := m.locker.Lock(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	defer unlockSession()

	current, ok, err := m.resolveSession(ctx, client)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthenticated
	}

	users, err := m.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexByID(users, current.ID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}

	user := users[idx]
	if err := mutate(&user); err != nil {
		return nil, err
	}
	users[idx] = user

	if err := m.records.Write(ctx, kvstore.UsersKey, users); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist users")
	}
	session := user.Session()
	if err := m.records.Write(ctx, sessionKey, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return &session, nil
}

func (m *Manager) writeSession(ctx context.Context, client string, session types.SessionUser) error {
	key := kvstore.SessionKey(client)
	unlock, err := m.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := m.records.Write(ctx, key, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

func (m *Manager) loadUsers(ctx context.Context) ([]types.User, error) {
	var users []types.User
	ok, err := m.records.Read(ctx, kvstore.UsersKey, &users)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read users")
	}
	if !ok {
		return nil, nil
	}
	return users, nil
}

func indexByEmail(users []types.User, email string) int {
	for i, user := range users {
		if NormalizeEmail(user.Email) == email {
			return i
		}
	}
	return -1
}

func indexByID(users []types.User, id string) int {
	for i, user := range users {
		if user.ID == id {
			return i
		}
	}
	return -1
}
