// Package kvstore persists the storefront's JSON records (the users
// collection, per-client sessions and per-client carts) behind a minimal
// read/write/remove contract with memory, redis and SQL backends.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/filmex-backend/pkg/logger"
)

const (
	UsersKey = "filmex_users"

	sessionKeyPrefix = "filmex_current_user"
	cartKeyPrefix    = "filmex_cart"
)

// Store is the persisted key/value contract. Each call is atomic for one key
// only; callers serialize read-modify-write cycles with a Locker.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by backends that depend on a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionKey names the current-user record of a client.
func SessionKey(clientID string) string {
	return scopedKey(sessionKeyPrefix, clientID)
}

// CartKey names the cart record of a client.
func CartKey(clientID string) string {
	return scopedKey(cartKeyPrefix, clientID)
}

func scopedKey(prefix, clientID string) string {
	return prefix + ":" + strings.TrimSpace(clientID)
}

// Records reads and writes JSON documents on top of a Store. Malformed
// documents read as absent so a corrupted record never wedges a client.
type Records struct {
	store Store
	logg  *logger.Logger
}

func NewRecords(store Store, logg *logger.Logger) (*Records, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Records{store: store, logg: logg}, nil
}

// Read decodes the record at key into dest and reports whether it existed.
func (r *Records) Read(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok, err := r.store.Read(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"key": key, "err": err.Error()}), "discarding malformed record")
		return false, nil
	}
	return true, nil
}

func (r *Records) Write(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Write(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (r *Records) Remove(ctx context.Context, key string) error {
	if err := r.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Ping checks the backing store when it exposes a health check.
func (r *Records) Ping(ctx context.Context) error {
	if p, ok := r.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
