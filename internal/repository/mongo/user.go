package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

var _ repository.AccountRepository = (*Store)(nil)

type accountDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	Kind         string    `bson:"kind"`
	PasswordHash string    `bson:"passwordHash"`
	IsActive     bool      `bson:"isActive"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	now := time.Now()
	account.ID = xid.New().String()
	account.Email = strings.ToLower(account.Email)
	account.IsActive = true
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := s.accounts.InsertOne(ctx, accountDoc{
		ID:           account.ID,
		Email:        account.Email,
		Name:         account.Name,
		Kind:         string(account.Kind),
		PasswordHash: account.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("an account with this email already exists")
		}
		return fmt.Errorf("mongo: inserting account %s: %w", account.Email, err)
	}
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": id}, id)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.findAccount(ctx, bson.M{"email": strings.ToLower(email)}, email)
}

func (s *Store) SetAccountActive(ctx context.Context, id string, active bool) error {
	res, err := s.accounts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isActive":  active,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("mongo: updating account %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("account", id)
	}
	return nil
}

func (s *Store) findAccount(ctx context.Context, filter bson.M, key string) (*model.Account, error) {
	var doc accountDoc
	if err := s.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("account", key)
		}
		return nil, fmt.Errorf("mongo: getting account %s: %w", key, err)
	}
	return &model.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		Name:         doc.Name,
		Kind:         model.OwnerKind(doc.Kind),
		PasswordHash: doc.PasswordHash,
		IsActive:     doc.IsActive,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
