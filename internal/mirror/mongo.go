package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/filmex-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection is the slice of a MongoDB collection the mirror relies on.
type collection interface {
	InsertOne(ctx context.Context, doc any) (any, error)
	FindOne(ctx context.Context, filter bson.M, dest any) error
	FindAll(ctx context.Context, filter bson.M, dest any) error
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, doc any) (any, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

func (c mongoCollection) FindOne(ctx context.Context, filter bson.M, dest any) error {
	return c.coll.FindOne(ctx, filter).Decode(dest)
}

func (c mongoCollection) FindAll(ctx context.Context, filter bson.M, dest any) error {
	cursor, err := c.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	return cursor.All(ctx, dest)
}

// MongoMirror implements Mirror on three MongoDB collections.
type MongoMirror struct {
	users     collection
	favorites collection
	orders    collection
}

// NewMongo binds the mirror to the configured collections of db.
func NewMongo(db *mongo.Database, cfg config.MongoConfig) (*MongoMirror, error) {
	if db == nil {
		return nil, fmt.Errorf("mongo database required")
	}
	return newMongoMirror(
		mongoCollection{coll: db.Collection(cfg.UsersCollection)},
		mongoCollection{coll: db.Collection(cfg.FavoritesCollection)},
		mongoCollection{coll: db.Collection(cfg.OrdersCollection)},
	), nil
}

func newMongoMirror(users, favorites, orders collection) *MongoMirror {
	return &MongoMirror{users: users, favorites: favorites, orders: orders}
}

func (m *MongoMirror) AddUser(ctx context.Context, doc UserDocument) (string, error) {
	return insert(ctx, m.users, doc)
}

func (m *MongoMirror) GetUser(ctx context.Context, email string) (*UserDocument, error) {
	var doc UserDocument
	if err := findOne(ctx, m.users, bson.M{"mail": email}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// AddFavorite inserts the favorite unless the user already has a movie with
// the same name; in that case the existing document id is returned.
func (m *MongoMirror) AddFavorite(ctx context.Context, doc FavoriteDocument) (string, error) {
	var existing FavoriteDocument
	err := findOne(ctx, m.favorites, bson.M{"name": doc.Name, "user_id": doc.UserID}, &existing)
	switch {
	case err == nil:
		return existing.ID.Hex(), nil
	case !errors.Is(err, ErrNotFound):
		return "", err
	}
	return insert(ctx, m.favorites, doc)
}

func (m *MongoMirror) ListFavorites(ctx context.Context, userID string) ([]FavoriteDocument, error) {
	docs := []FavoriteDocument{}
	if err := findAll(ctx, m.favorites, bson.M{"user_id": userID}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *MongoMirror) AddOrder(ctx context.Context, doc OrderDocument) (string, error) {
	if doc.Status == "" {
		doc.Status = OrderStatusPending
	}
	return insert(ctx, m.orders, doc)
}

func (m *MongoMirror) GetOrder(ctx context.Context, id string) (*OrderDocument, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var doc OrderDocument
	if err := findOne(ctx, m.orders, bson.M{"_id": oid}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *MongoMirror) ListOrders(ctx context.Context, userID string) ([]OrderDocument, error) {
	docs := []OrderDocument{}
	if err := findAll(ctx, m.orders, bson.M{"user_id": userID}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func insert(ctx context.Context, coll collection, doc any) (string, error) {
	id, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror insert failed")
	}
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(id), nil
}

func findOne(ctx context.Context, coll collection, filter bson.M, dest any) error {
	err := coll.FindOne(ctx, filter, dest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror lookup failed")
	}
	return nil
}

func findAll(ctx context.Context, coll collection, filter bson.M, dest any) error {
	if err := coll.FindAll(ctx, filter, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror query failed")
	}
	return nil
}
