package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DuplicateDayMessage is what a caller sees when two first-of-the-day writes
// race and the daily index rejects the loser.
const DuplicateDayMessage = "mood already logged today, try updating it instead"

const moodColumns = `id, owner_id, owner_kind, mood, intensity, notes, date, is_active, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMoodEntry(s scanner) (*model.MoodEntry, error) {
	var (
		e                          model.MoodEntry
		kind, mood                 string
		date, createdAt, updatedAt int64
		active                     int
	)
	if err := s.Scan(
		&e.ID, &e.OwnerID, &kind, &mood, &e.Intensity, &e.Notes,
		&date, &active, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	e.OwnerKind = model.OwnerKind(kind)
	e.Mood = model.Mood(mood)
	e.Date = fromMillis(date)
	e.IsActive = active == 1
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return &e, nil
}

// UpsertDaily inserts the entry or, when the owner already has an active
// entry for the same day, overwrites that row in place.
//
// WHY ONE STATEMENT?
// The obvious version is read-then-write:
//
//	SELECT ... WHERE owner = ? AND day = ? AND is_active = 1
//	if found { UPDATE } else { INSERT }
//
// Two requests for the same day can both see "not found" and both INSERT.
// Here the ON CONFLICT target is the partial unique index itself, so SQLite
// makes the insert-or-update decision and the write atomically. RETURNING
// hands back the stored row, whichever branch ran; a fresh id means the
// INSERT won.
func (db *DB) UpsertDaily(ctx context.Context, entry *model.MoodEntry, setNotes bool) (bool, error) {
	createdAt := repository.OrNow(entry.CreatedAt)
	updatedAt := repository.OrNow(entry.UpdatedAt)
	newID := xid.New().String()

	overwriteNotes := 0
	if setNotes {
		overwriteNotes = 1
	}

	row := db.conn.QueryRowContext(ctx,
		`INSERT INTO mood_entries
			(id, owner_id, owner_kind, mood, intensity, notes, day, date, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (owner_id, owner_kind, day) WHERE is_active = 1 DO UPDATE SET
			mood       = excluded.mood,
			intensity  = excluded.intensity,
			notes      = CASE WHEN ? = 1 THEN excluded.notes ELSE mood_entries.notes END,
			updated_at = excluded.updated_at
		 RETURNING `+moodColumns,
		newID,
		entry.OwnerID,
		string(entry.OwnerKind),
		string(entry.Mood),
		entry.Intensity,
		entry.Notes,
		model.DayKey(entry.Date),
		toMillis(entry.Date),
		toMillis(createdAt),
		toMillis(updatedAt),
		overwriteNotes,
	)

	stored, err := scanMoodEntry(row)
	if err != nil {
		if isUniqueViolation(err) {
			return false, apperror.Conflict(DuplicateDayMessage)
		}
		return false, fmt.Errorf("sqlite: upserting mood entry for %s: %w", entry.Owner(), err)
	}

	*entry = *stored
	return stored.ID == newID, nil
}

// GetActive fetches an active entry owned by owner. A foreign or deleted
// entry is reported exactly like a missing one.
func (db *DB) GetActive(ctx context.Context, id string, owner model.Owner) (*model.MoodEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+moodColumns+`
		 FROM mood_entries
		 WHERE id = ? AND owner_id = ? AND owner_kind = ? AND is_active = 1`,
		id, owner.ID, string(owner.Kind),
	)

	e, err := scanMoodEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("mood entry", id)
		}
		return nil, fmt.Errorf("sqlite: getting mood entry %s: %w", id, err)
	}
	return e, nil
}

// Update writes mood, intensity and notes of an active entry. Date, owner
// and created_at are immutable.
func (db *DB) Update(ctx context.Context, entry *model.MoodEntry) error {
	entry.UpdatedAt = repository.OrNow(entry.UpdatedAt)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE mood_entries
		 SET mood = ?, intensity = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND owner_kind = ? AND is_active = 1`,
		string(entry.Mood),
		entry.Intensity,
		entry.Notes,
		toMillis(entry.UpdatedAt),
		entry.ID,
		entry.OwnerID,
		string(entry.OwnerKind),
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating mood entry %s: %w", entry.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("mood entry", entry.ID)
	}
	return nil
}

// SoftDelete flips is_active off. Rows are never removed.
func (db *DB) SoftDelete(ctx context.Context, id string, owner model.Owner, at time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE mood_entries
		 SET is_active = 0, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND owner_kind = ? AND is_active = 1`,
		toMillis(repository.OrNow(at)), id, owner.ID, string(owner.Kind),
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting mood entry %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("mood entry", id)
	}
	return nil
}

func (db *DB) ListActive(ctx context.Context, owner model.Owner, opts repository.ListOptions) ([]model.MoodEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	// xids sort by creation time, so id breaks ties inside one millisecond.
	return db.queryEntries(ctx, "listing mood entries",
		`SELECT `+moodColumns+`
		 FROM mood_entries
		 WHERE owner_id = ? AND owner_kind = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		owner.ID, string(owner.Kind), limit, offset,
	)
}

func (db *DB) CountActive(ctx context.Context, owner model.Owner) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mood_entries
		 WHERE owner_id = ? AND owner_kind = ? AND is_active = 1`,
		owner.ID, string(owner.Kind),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting mood entries: %w", err)
	}
	return n, nil
}

func (db *DB) ListByDate(ctx context.Context, owner model.Owner, from, to time.Time) ([]model.MoodEntry, error) {
	return db.queryEntries(ctx, "listing mood entries by date",
		`SELECT `+moodColumns+`
		 FROM mood_entries
		 WHERE owner_id = ? AND owner_kind = ? AND is_active = 1
		   AND date >= ? AND date < ?
		 ORDER BY date ASC`,
		owner.ID, string(owner.Kind), toMillis(from), toMillis(to),
	)
}

func (db *DB) ListCreatedSince(ctx context.Context, owner model.Owner, since time.Time) ([]model.MoodEntry, error) {
	return db.queryEntries(ctx, "listing recent mood entries",
		`SELECT `+moodColumns+`
		 FROM mood_entries
		 WHERE owner_id = ? AND owner_kind = ? AND is_active = 1
		   AND created_at >= ?
		 ORDER BY created_at ASC`,
		owner.ID, string(owner.Kind), toMillis(since),
	)
}

func (db *DB) queryEntries(ctx context.Context, action, query string, args ...any) ([]model.MoodEntry, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	defer rows.Close()

	entries := make([]model.MoodEntry, 0)
	for rows.Next() {
		e, err := scanMoodEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning mood entry row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating mood entries: %w", err)
	}
	return entries, nil
}
