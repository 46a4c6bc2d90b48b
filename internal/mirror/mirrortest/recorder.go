// Package mirrortest provides an in-memory Mirror that records every call.
package mirrortest

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/filmex-backend/internal/mirror"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recorder stores documents in memory and assigns ObjectIDs the way the
// database would. Setting Err makes every call fail.
type Recorder struct {
	mu        sync.Mutex
	Err       error
	Users     []mirror.UserDocument
	Favorites []mirror.FavoriteDocument
	Orders    []mirror.OrderDocument
	Lookups   []string
}

func (r *Recorder) AddUser(_ context.Context, doc mirror.UserDocument) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	doc.ID = primitive.NewObjectID()
	r.Users = append(r.Users, doc)
	return doc.ID.Hex(), nil
}

func (r *Recorder) GetUser(_ context.Context, email string) (*mirror.UserDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.Lookups = append(r.Lookups, email)
	for i := range r.Users {
		if r.Users[i].Mail == email {
			doc := r.Users[i]
			return &doc, nil
		}
	}
	return nil, mirror.ErrNotFound
}

func (r *Recorder) AddFavorite(_ context.Context, doc mirror.FavoriteDocument) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	doc.ID = primitive.NewObjectID()
	r.Favorites = append(r.Favorites, doc)
	return doc.ID.Hex(), nil
}

func (r *Recorder) ListFavorites(_ context.Context, userID string) ([]mirror.FavoriteDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []mirror.FavoriteDocument{}
	for _, doc := range r.Favorites {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *Recorder) AddOrder(_ context.Context, doc mirror.OrderDocument) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	doc.ID = primitive.NewObjectID()
	r.Orders = append(r.Orders, doc)
	return doc.ID.Hex(), nil
}

func (r *Recorder) GetOrder(_ context.Context, id string) (*mirror.OrderDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mirror.ErrInvalidID
	}
	for i := range r.Orders {
		if r.Orders[i].ID == oid {
			doc := r.Orders[i]
			return &doc, nil
		}
	}
	return nil, mirror.ErrNotFound
}

func (r *Recorder) ListOrders(_ context.Context, userID string) ([]mirror.OrderDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []mirror.OrderDocument{}
	for _, doc := range r.Orders {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Snapshot returns copies of the recorded documents.
func (r *Recorder) Snapshot() (users []mirror.UserDocument, favorites []mirror.FavoriteDocument, orders []mirror.OrderDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users = append(users, r.Users...)
	favorites = append(favorites, r.Favorites...)
	orders = append(orders, r.Orders...)
	return users, favorites, orders
}

// ErrDown is a convenience failure for tests that take the mirror offline.
var ErrDown = errors.New("mirror offline")

var _ mirror.Mirror = (*Recorder)(nil)
