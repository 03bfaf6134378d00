// Package mongostore keeps revocation state in MongoDB, the document store the
// storefront already uses for accounts and products.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jrsteele09/storefront-sessions/revocation"
)

const (
	RecordsCollection    = "blacklisted_tokens"
	WatermarksCollection = "user_logout_timestamps"
)

type recordDocument struct {
	Credential string    `bson:"_id"`
	SubjectID  string    `bson:"user_id"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

type watermarkDocument struct {
	SubjectID       string    `bson:"_id"`
	LogoutTimestamp time.Time `bson:"logout_timestamp"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

// Store implements revocation.Store with two collections: one document per revoked
// credential keyed by the credential string, one per principal keyed by its id.
type Store struct {
	records    *mongo.Collection
	watermarks *mongo.Collection
}

var _ revocation.Store = (*Store)(nil)

// New uses the default collection names in db.
func New(db *mongo.Database) *Store {
	return NewFromCollections(db.Collection(RecordsCollection), db.Collection(WatermarksCollection))
}

func NewFromCollections(records, watermarks *mongo.Collection) *Store {
	return &Store{records: records, watermarks: watermarks}
}

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the expiry index used by PurgeExpired and a subject index
// for operational queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.records.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		return revocation.StorageError("mongo create indexes", err)
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, credential string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := s.records.FindOne(ctx, bson.D{{Key: "_id", Value: credential}}, opts).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, revocation.StorageError("mongo find revoked credential", err)
	}
	return true, nil
}

func (s *Store) Revoke(ctx context.Context, record revocation.Record) error {
	if record.Credential == "" {
		return fmt.Errorf("credential is required")
	}

	_, err := s.records.InsertOne(ctx, recordDocument{
		Credential: record.Credential,
		SubjectID:  record.SubjectID,
		ExpiresAt:  record.ExpiresAt.UTC(),
	})
	if err != nil {
		// The credential is the document key, so a concurrent revoke that lost the race
		// lands here; the record it wanted already exists.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return revocation.StorageError("mongo insert revoked credential", err)
	}
	return nil
}

func (s *Store) SetWatermark(ctx context.Context, subjectID string, now time.Time) error {
	if subjectID == "" {
		return fmt.Errorf("subject id is required")
	}

	ts := now.UTC()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "logout_timestamp", Value: ts},
		{Key: "updated_at", Value: ts},
	}}}
	_, err := s.watermarks.UpdateOne(ctx, bson.D{{Key: "_id", Value: subjectID}}, update, options.Update().SetUpsert(true))
	if err != nil {
		return revocation.StorageError("mongo upsert watermark", err)
	}
	return nil
}

func (s *Store) GetWatermark(ctx context.Context, subjectID string) (revocation.Watermark, bool, error) {
	var doc watermarkDocument
	err := s.watermarks.FindOne(ctx, bson.D{{Key: "_id", Value: subjectID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return revocation.Watermark{}, false, nil
		}
		return revocation.Watermark{}, false, revocation.StorageError("mongo find watermark", err)
	}
	return revocation.Watermark{SubjectID: doc.SubjectID, RevokedBefore: doc.LogoutTimestamp.UTC()}, true, nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}}
	res, err := s.records.DeleteMany(ctx, filter)
	if err != nil {
		return 0, revocation.StorageError("mongo purge expired records", err)
	}
	return res.DeletedCount, nil
}
