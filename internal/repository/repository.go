// Package repository declares the storage contracts the service layer depends on.
// Implementations live in the sqlite and mongo subpackages.
package repository

import (
	"context"
	"time"

	"github.com/sakif/mindspace/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// MoodRepository stores mood entries. Every read only sees active entries.
//
// Timestamps come from the caller: CreatedAt and UpdatedAt on the entry, and
// the at argument of SoftDelete. A zero CreatedAt or UpdatedAt falls back to
// the wall clock.
type MoodRepository interface {
	// UpsertDaily makes entry the owner's active entry for entry.Date in one
	// conditional write. When an active entry for that day already exists its
	// mood and intensity are overwritten, and its notes too when setNotes is
	// true. entry is refreshed with the stored record either way; created
	// reports whether a new record was inserted.
	UpsertDaily(ctx context.Context, entry *model.MoodEntry, setNotes bool) (created bool, err error)
	GetActive(ctx context.Context, id string, owner model.Owner) (*model.MoodEntry, error)
	// Update writes mood, intensity and notes. Date, owner and CreatedAt are
	// immutable.
	Update(ctx context.Context, entry *model.MoodEntry) error
	SoftDelete(ctx context.Context, id string, owner model.Owner, at time.Time) error
	// ListActive returns entries newest-created first.
	ListActive(ctx context.Context, owner model.Owner, opts ListOptions) ([]model.MoodEntry, error)
	CountActive(ctx context.Context, owner model.Owner) (int64, error)
	// ListByDate returns entries whose Date falls in [from, to), oldest first.
	ListByDate(ctx context.Context, owner model.Owner, from, to time.Time) ([]model.MoodEntry, error)
	ListCreatedSince(ctx context.Context, owner model.Owner, since time.Time) ([]model.MoodEntry, error)
}

// AccountRepository is the user directory: it resolves owners and reports
// whether they are still active.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	// SetAccountActive opens or closes an account. A closed account keeps
	// its mood history but can no longer log in or use existing tokens.
	SetAccountActive(ctx context.Context, id string, active bool) error
}

// Store is a complete backend: both repositories plus its lifecycle.
type Store interface {
	MoodRepository
	AccountRepository
	Ping(ctx context.Context) error
	Close() error
}

// OrNow returns t, or the current time when t is zero.
func OrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
