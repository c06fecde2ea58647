package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

// fakeMoodRepo is an in-memory repository.MoodRepository with the same
// upsert and soft-delete rules as the real stores.
type fakeMoodRepo struct {
	entries []*model.MoodEntry
	nextID  int
	reads   int
	// set to a non-nil error to simulate a database failure
	err error
}

var _ repository.MoodRepository = (*fakeMoodRepo)(nil)

func newFakeMoodRepo() *fakeMoodRepo {
	return &fakeMoodRepo{}
}

func (f *fakeMoodRepo) find(id string, owner model.Owner) *model.MoodEntry {
	for _, e := range f.entries {
		if e.ID == id && e.IsActive && e.Owner() == owner {
			return e
		}
	}
	return nil
}

// seed stores an active entry for date directly, created at noon of that day.
func (f *fakeMoodRepo) seed(owner model.Owner, date time.Time, mood model.Mood, intensity int) *model.MoodEntry {
	f.nextID++
	e := &model.MoodEntry{
		ID:        fmt.Sprintf("seed-%d", f.nextID),
		OwnerID:   owner.ID,
		OwnerKind: owner.Kind,
		Mood:      mood,
		Intensity: intensity,
		Date:      model.StartOfDay(date),
		IsActive:  true,
		CreatedAt: model.StartOfDay(date).Add(12 * time.Hour),
	}
	e.UpdatedAt = e.CreatedAt
	f.entries = append(f.entries, e)
	return e
}

func (f *fakeMoodRepo) UpsertDaily(_ context.Context, entry *model.MoodEntry, setNotes bool) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	day := model.DayKey(entry.Date)
	for _, e := range f.entries {
		if e.IsActive && e.Owner() == entry.Owner() && model.DayKey(e.Date) == day {
			e.Mood = entry.Mood
			e.Intensity = entry.Intensity
			if setNotes {
				e.Notes = entry.Notes
			}
			e.UpdatedAt = entry.UpdatedAt
			*entry = *e
			return false, nil
		}
	}

	f.nextID++
	entry.ID = fmt.Sprintf("mood-%d", f.nextID)
	entry.IsActive = true
	if !setNotes {
		entry.Notes = ""
	}
	stored := *entry
	f.entries = append(f.entries, &stored)
	return true, nil
}

func (f *fakeMoodRepo) GetActive(_ context.Context, id string, owner model.Owner) (*model.MoodEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	e := f.find(id, owner)
	if e == nil {
		return nil, apperror.NotFound("mood entry", id)
	}
	out := *e
	return &out, nil
}

func (f *fakeMoodRepo) Update(_ context.Context, entry *model.MoodEntry) error {
	if f.err != nil {
		return f.err
	}
	e := f.find(entry.ID, entry.Owner())
	if e == nil {
		return apperror.NotFound("mood entry", entry.ID)
	}
	*e = *entry
	return nil
}

func (f *fakeMoodRepo) SoftDelete(_ context.Context, id string, owner model.Owner, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	e := f.find(id, owner)
	if e == nil {
		return apperror.NotFound("mood entry", id)
	}
	e.IsActive = false
	e.UpdatedAt = at
	return nil
}

func (f *fakeMoodRepo) active(owner model.Owner, keep func(*model.MoodEntry) bool) []model.MoodEntry {
	var out []model.MoodEntry
	for _, e := range f.entries {
		if e.IsActive && e.Owner() == owner && keep(e) {
			out = append(out, *e)
		}
	}
	return out
}

func (f *fakeMoodRepo) ListActive(_ context.Context, owner model.Owner, opts repository.ListOptions) ([]model.MoodEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reads++
	all := f.active(owner, func(*model.MoodEntry) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return strings.Compare(all[i].ID, all[j].ID) > 0
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if opts.Offset >= len(all) {
		return []model.MoodEntry{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (f *fakeMoodRepo) CountActive(_ context.Context, owner model.Owner) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.active(owner, func(*model.MoodEntry) bool { return true }))), nil
}

func (f *fakeMoodRepo) ListByDate(_ context.Context, owner model.Owner, from, to time.Time) ([]model.MoodEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reads++
	out := f.active(owner, func(e *model.MoodEntry) bool {
		return !e.Date.Before(from) && e.Date.Before(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeMoodRepo) ListCreatedSince(_ context.Context, owner model.Owner, since time.Time) ([]model.MoodEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reads++
	return f.active(owner, func(e *model.MoodEntry) bool { return !e.CreatedAt.Before(since) }), nil
}

// fakeAccountRepo is an in-memory repository.AccountRepository.
type fakeAccountRepo struct {
	byID   map[string]*model.Account
	nextID int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[string]*model.Account{}}
}

func (f *fakeAccountRepo) CreateAccount(_ context.Context, a *model.Account) error {
	for _, existing := range f.byID {
		if existing.Email == strings.ToLower(a.Email) {
			return apperror.Conflict("an account with this email already exists")
		}
	}
	f.nextID++
	a.ID = fmt.Sprintf("acc-%d", f.nextID)
	a.Email = strings.ToLower(a.Email)
	a.IsActive = true
	stored := *a
	f.byID[a.ID] = &stored
	return nil
}

func (f *fakeAccountRepo) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	out := *a
	return &out, nil
}

func (f *fakeAccountRepo) SetAccountActive(_ context.Context, id string, active bool) error {
	a, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("account", id)
	}
	a.IsActive = active
	return nil
}

func (f *fakeAccountRepo) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	for _, a := range f.byID {
		if a.Email == strings.ToLower(email) {
			out := *a
			return &out, nil
		}
	}
	return nil, apperror.NotFound("account", email)
}
