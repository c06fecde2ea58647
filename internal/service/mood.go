package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/cache"
	"github.com/sakif/mindspace/internal/metrics"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

const (
	MinIntensity     = 1
	MaxIntensity     = 10
	MaxNotesLength   = 500
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// MoodPatch carries the fields an update changes. Nil means unchanged.
type MoodPatch struct {
	Mood      *string
	Intensity *int
	Notes     *string
}

// MoodService owns the write path and the paginated listing of mood entries.
type MoodService struct {
	repo       repository.MoodRepository
	aggregates *cache.Aggregates
	logger     zerolog.Logger
	settings
}

// NewMoodService wires a MoodService. aggregates may be nil.
func NewMoodService(repo repository.MoodRepository, aggregates *cache.Aggregates, logger zerolog.Logger, opts ...Option) *MoodService {
	return &MoodService{
		repo:       repo,
		aggregates: aggregates,
		logger:     logger,
		settings:   newSettings(opts),
	}
}

// Create logs today's mood for owner. If owner already has an active entry
// today it is updated in place: mood and intensity always, notes only when
// notes is non-nil. created reports which of the two happened.
func (s *MoodService) Create(ctx context.Context, owner model.Owner, mood string, intensity int, notes *string) (*model.MoodEntry, bool, error) {
	m, err := validateMood(mood)
	if err != nil {
		return nil, false, err
	}
	if err := validateIntensity(intensity); err != nil {
		return nil, false, err
	}
	var text string
	if notes != nil {
		if text, err = validateNotes(*notes); err != nil {
			return nil, false, err
		}
	}

	now := s.currentTime()
	entry := &model.MoodEntry{
		OwnerID:   owner.ID,
		OwnerKind: owner.Kind,
		Mood:      m,
		Intensity: intensity,
		Notes:     text,
		Date:      model.StartOfDay(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.UpsertDaily(ctx, entry, notes != nil)
	if err != nil {
		return nil, false, storeErr("saving mood entry", err)
	}

	op := "updated"
	if created {
		op = "created"
	}
	metrics.MoodWrites.WithLabelValues(op).Inc()
	s.aggregates.Invalidate(ctx, owner)

	s.logger.Info().
		Str("owner", owner.String()).
		Str("entryID", entry.ID).
		Str("day", model.DayKey(entry.Date)).
		Bool("created", created).
		Msg("mood logged")

	return entry, created, nil
}

// Update applies patch to one of owner's active entries. Entries owned by
// someone else are reported as not found.
func (s *MoodService) Update(ctx context.Context, id string, owner model.Owner, patch MoodPatch) (*model.MoodEntry, error) {
	if patch.Mood == nil && patch.Intensity == nil && patch.Notes == nil {
		return nil, apperror.ValidationFailed("", "nothing to update: provide mood, intensity or notes")
	}

	var (
		mood  model.Mood
		notes string
		err   error
	)
	if patch.Mood != nil {
		if mood, err = validateMood(*patch.Mood); err != nil {
			return nil, err
		}
	}
	if patch.Intensity != nil {
		if err := validateIntensity(*patch.Intensity); err != nil {
			return nil, err
		}
	}
	if patch.Notes != nil {
		if notes, err = validateNotes(*patch.Notes); err != nil {
			return nil, err
		}
	}

	entry, err := s.repo.GetActive(ctx, id, owner)
	if err != nil {
		return nil, storeErr("loading mood entry", err)
	}

	if patch.Mood != nil {
		entry.Mood = mood
	}
	if patch.Intensity != nil {
		entry.Intensity = *patch.Intensity
	}
	if patch.Notes != nil {
		entry.Notes = notes
	}
	entry.UpdatedAt = s.currentTime()

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, storeErr("updating mood entry", err)
	}

	metrics.MoodWrites.WithLabelValues("updated").Inc()
	s.aggregates.Invalidate(ctx, owner)
	s.logger.Info().Str("owner", owner.String()).Str("entryID", id).Msg("mood entry updated")
	return entry, nil
}

// Delete soft-deletes one of owner's active entries.
func (s *MoodService) Delete(ctx context.Context, id string, owner model.Owner) error {
	if err := s.repo.SoftDelete(ctx, id, owner, s.currentTime()); err != nil {
		return storeErr("deleting mood entry", err)
	}

	metrics.MoodWrites.WithLabelValues("deleted").Inc()
	s.aggregates.Invalidate(ctx, owner)
	s.logger.Info().Str("owner", owner.String()).Str("entryID", id).Msg("mood entry deleted")
	return nil
}

// List returns one page of owner's active entries, newest first. page is
// 1-based; out-of-range limits fall back to the defaults.
func (s *MoodService) List(ctx context.Context, owner model.Owner, limit, page int) (*model.Page[model.MoodEntry], error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if page < 1 {
		page = 1
	}

	items, err := s.repo.ListActive(ctx, owner, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, storeErr("listing mood entries", err)
	}
	total, err := s.repo.CountActive(ctx, owner)
	if err != nil {
		return nil, storeErr("counting mood entries", err)
	}

	totalPage := int((total + int64(limit) - 1) / int64(limit))
	return &model.Page[model.MoodEntry]{
		Items:       items,
		Total:       total,
		CurrentPage: page,
		TotalPage:   totalPage,
		Size:        limit,
		HasNextPage: page < totalPage,
	}, nil
}

func validateMood(raw string) (model.Mood, error) {
	m, err := model.ParseMood(raw)
	if err != nil {
		return "", apperror.ValidationFailed("mood", "mood must be one of awful, bad, okay, good, great")
	}
	return m, nil
}

func validateIntensity(n int) error {
	if n < MinIntensity || n > MaxIntensity {
		return apperror.ValidationFailed("intensity", "intensity must be between 1 and 10")
	}
	return nil
}

func validateNotes(raw string) (string, error) {
	notes := strings.TrimSpace(raw)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return "", apperror.ValidationFailed("notes", "notes must be 500 characters or fewer")
	}
	return notes, nil
}
