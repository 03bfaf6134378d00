package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jrsteele09/storefront-sessions/users"
)

// UsersCollection is the accounts collection shared with the storefront API
const UsersCollection = "users"

// Store reads and writes principals in the storefront's users collection. Documents
// carry their own "id" field; Mongo's _id is left to the driver.
type Store struct {
	coll *mongo.Collection
}

var _ users.Repo = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(UsersCollection)}
}

func (s *Store) GetByID(ctx context.Context, id string) (*users.Principal, error) {
	return s.findOne(ctx, bson.D{{Key: "id", Value: id}})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.Principal, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}})
}

func (s *Store) Upsert(ctx context.Context, principal *users.Principal) error {
	if principal.ID == "" {
		principal.ID = uuid.New().String()
	}
	principal.Email = strings.ToLower(strings.TrimSpace(principal.Email))

	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "id", Value: principal.ID}},
		bson.D{{Key: "$set", Value: principal}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo upsert principal: %w", err)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*users.Principal, error) {
	var p users.Principal
	if err := s.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find principal: %w", err)
	}
	return &p, nil
}
