// Package mongo implements the repository interfaces on MongoDB.
//
// Mood entries live in one collection. The daily invariant is a unique index
// on (ownerId, ownerKind, day) restricted by a partial filter to live
// entries, which holds for every calendar day rather than only the day the
// index was built.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	moodCollection    = "moodentries"
	accountCollection = "accounts"
)

// Store holds the client and the two collections it serves.
type Store struct {
	client   *mongo.Client
	moods    *mongo.Collection
	accounts *mongo.Collection
}

// New connects to uri, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		moods:    db.Collection(moodCollection),
		accounts: db.Collection(accountCollection),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ensuring indexes: %w", err)
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.moods.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "ownerKind", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().
				SetName("ux_owner_day_active").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_owner_date"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_owner_created_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("creating %s indexes: %w", moodCollection, err)
	}

	_, err = s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("ux_email").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating %s indexes: %w", accountCollection, err)
	}
	return nil
}
