package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh in-memory database that disappears with the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var (
	alice   = model.Owner{ID: "alice", Kind: model.OwnerStudent}
	aliceCo = model.Owner{ID: "alice", Kind: model.OwnerCounselor}
	bob     = model.Owner{ID: "bob", Kind: model.OwnerStudent}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func upsert(t *testing.T, db *DB, owner model.Owner, date time.Time, mood model.Mood, intensity int, notes string) (*model.MoodEntry, bool) {
	t.Helper()
	e := &model.MoodEntry{
		OwnerID:   owner.ID,
		OwnerKind: owner.Kind,
		Mood:      mood,
		Intensity: intensity,
		Notes:     notes,
		Date:      date,
	}
	created, err := db.UpsertDaily(context.Background(), e, true)
	require.NoError(t, err)
	return e, created
}

// =========================================================================
// UPSERT TESTS
// =========================================================================

func TestUpsertDaily_Inserts(t *testing.T) {
	db := newTestDB(t)

	e, created := upsert(t, db, alice, day(2026, 10, 15), model.MoodGood, 6, "exam went fine")

	assert.True(t, created)
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.IsActive)
	assert.Equal(t, model.MoodGood, e.Mood)
	assert.Equal(t, "exam went fine", e.Notes)
	assert.True(t, e.Date.Equal(day(2026, 10, 15)))
	assert.False(t, e.CreatedAt.IsZero())
}

func TestUpsertDaily_SameDayUpdatesInPlace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodBad, 3, "rough morning")
	second, created := upsert(t, db, alice, day(2026, 10, 15), model.MoodGreat, 9, "better evening")

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.MoodGreat, second.Mood)
	assert.Equal(t, 9, second.Intensity)
	assert.Equal(t, "better evening", second.Notes)

	n, err := db.CountActive(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUpsertDaily_KeepsNotesWhenNotSupplied(t *testing.T) {
	db := newTestDB(t)

	first, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodOkay, 5, "keep me")

	e := &model.MoodEntry{
		OwnerID: alice.ID, OwnerKind: alice.Kind,
		Mood: model.MoodGood, Intensity: 7, Date: day(2026, 10, 15),
	}
	created, err := db.UpsertDaily(context.Background(), e, false)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, e.ID)
	assert.Equal(t, "keep me", e.Notes)
	assert.Equal(t, model.MoodGood, e.Mood)
}

func TestUpsertDaily_UniquenessHoldsForPastDays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	upsert(t, db, alice, day(2026, 1, 3), model.MoodBad, 2, "")
	_, created := upsert(t, db, alice, day(2026, 1, 3), model.MoodOkay, 4, "")

	assert.False(t, created, "a historical day must also hold at most one live entry")
	n, err := db.CountActive(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUpsertDaily_OwnersAreIsolated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodGood, 6, "")
	c, createdCo := upsert(t, db, aliceCo, day(2026, 10, 15), model.MoodBad, 2, "")
	b, createdBob := upsert(t, db, bob, day(2026, 10, 15), model.MoodAwful, 1, "")

	assert.True(t, createdCo, "same id with another kind is a different owner")
	assert.True(t, createdBob)
	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := db.GetActive(ctx, a.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.MoodGood, got.Mood)
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodOkay, 5, "")

	e.Mood = model.MoodGreat
	e.Notes = "updated"
	require.NoError(t, db.Update(ctx, e))

	got, err := db.GetActive(ctx, e.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.MoodGreat, got.Mood)
	assert.Equal(t, "updated", got.Notes)
	assert.Equal(t, 5, got.Intensity)
}

func TestUpdate_ForeignOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	e, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodOkay, 5, "")

	stolen := *e
	stolen.OwnerID = bob.ID
	stolen.Mood = model.MoodAwful

	err := db.Update(context.Background(), &stolen)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSoftDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodOkay, 5, "")

	require.NoError(t, db.SoftDelete(ctx, e.ID, alice, time.Now()))

	_, err := db.GetActive(ctx, e.ID, alice)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = db.SoftDelete(ctx, e.ID, alice, time.Now())
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "second delete must be NotFound")

	// The row is still stored, only hidden.
	var total int
	require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM mood_entries`).Scan(&total))
	assert.Equal(t, 1, total)
}

func TestWrites_UseCallerTimestamps(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	e := &model.MoodEntry{
		OwnerID:   alice.ID,
		OwnerKind: alice.Kind,
		Mood:      model.MoodGood,
		Intensity: 6,
		Date:      day(2026, 10, 15),
		CreatedAt: created,
		UpdatedAt: created,
	}
	_, err := db.UpsertDaily(ctx, e, true)
	require.NoError(t, err)
	assert.True(t, e.CreatedAt.Equal(created), "got %v", e.CreatedAt)

	edited := created.Add(2 * time.Hour)
	e.Intensity = 7
	e.UpdatedAt = edited
	require.NoError(t, db.Update(ctx, e))

	got, err := db.GetActive(ctx, e.ID, alice)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created), "created_at is immutable")
	assert.True(t, got.UpdatedAt.Equal(edited))

	deleted := created.Add(5 * time.Hour)
	require.NoError(t, db.SoftDelete(ctx, e.ID, alice, deleted))
	var updatedAt int64
	require.NoError(t, db.conn.QueryRow(`SELECT updated_at FROM mood_entries WHERE id = ?`, e.ID).Scan(&updatedAt))
	assert.Equal(t, deleted.UnixMilli(), updatedAt)
}

func TestSoftDelete_ThenRecreateSameDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	old, _ := upsert(t, db, alice, day(2026, 10, 15), model.MoodBad, 3, "")
	require.NoError(t, db.SoftDelete(ctx, old.ID, alice, time.Now()))

	fresh, created := upsert(t, db, alice, day(2026, 10, 15), model.MoodGood, 7, "")

	assert.True(t, created)
	assert.NotEqual(t, old.ID, fresh.ID)
}

// =========================================================================
// LIST / RANGE TESTS
// =========================================================================

func TestListActive_NewestFirstWithPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 5; i++ {
		e, _ := upsert(t, db, alice, day(2026, 10, i), model.MoodOkay, i, "")
		ids = append(ids, e.ID)
	}
	upsert(t, db, bob, day(2026, 10, 1), model.MoodGreat, 10, "")

	page1, err := db.ListActive(ctx, alice, repository.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)

	page3, err := db.ListActive(ctx, alice, repository.ListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[0], page3[0].ID)

	n, err := db.CountActive(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestListByDate_HalfOpenRangeOldestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	upsert(t, db, alice, day(2026, 10, 1), model.MoodBad, 2, "")
	upsert(t, db, alice, day(2026, 10, 3), model.MoodOkay, 4, "")
	upsert(t, db, alice, day(2026, 10, 2), model.MoodGood, 6, "")
	deleted, _ := upsert(t, db, alice, day(2026, 10, 4), model.MoodGreat, 8, "")
	require.NoError(t, db.SoftDelete(ctx, deleted.ID, alice, time.Now()))

	got, err := db.ListByDate(ctx, alice, day(2026, 10, 2), day(2026, 10, 5))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.MoodGood, got[0].Mood)
	assert.Equal(t, model.MoodOkay, got[1].Mood)
}

func TestListCreatedSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	upsert(t, db, alice, day(2026, 10, 1), model.MoodBad, 2, "")
	upsert(t, db, alice, day(2026, 10, 2), model.MoodGood, 6, "")

	got, err := db.ListCreatedSince(ctx, alice, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := db.ListCreatedSince(ctx, alice, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIntensityCheckConstraint(t *testing.T) {
	db := newTestDB(t)

	e := &model.MoodEntry{
		OwnerID: alice.ID, OwnerKind: alice.Kind,
		Mood: model.MoodGood, Intensity: 11, Date: day(2026, 10, 15),
	}
	_, err := db.UpsertDaily(context.Background(), e, true)
	assert.Error(t, err)
}
