package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/cache"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

// StatsService summarises an owner's entries over a rolling window.
type StatsService struct {
	repo       repository.MoodRepository
	aggregates *cache.Aggregates
	logger     zerolog.Logger
	settings
}

func NewStatsService(repo repository.MoodRepository, aggregates *cache.Aggregates, logger zerolog.Logger, opts ...Option) *StatsService {
	return &StatsService{
		repo:       repo,
		aggregates: aggregates,
		logger:     logger,
		settings:   newSettings(opts),
	}
}

// windowStart is week: 7 days back, month and year: one calendar unit back,
// all relative to now rather than to midnight.
func windowStart(now time.Time, period model.Period) time.Time {
	switch period {
	case model.PeriodMonth:
		return now.AddDate(0, -1, 0)
	case model.PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// Stats counts entries created inside period. MostFrequent is the first
// label in scale order among those with the highest count and is empty when
// there are no entries. Streak is independent of period.
func (s *StatsService) Stats(ctx context.Context, owner model.Owner, period model.Period) (*model.MoodStats, error) {
	switch period {
	case model.PeriodWeek, model.PeriodMonth, model.PeriodYear:
	default:
		return nil, apperror.ValidationFailed("period", "period must be one of week, month, year")
	}

	now := s.currentTime()
	today := model.StartOfDay(now)
	params := string(period) + ":" + model.DayKey(today)
	var cached model.MoodStats
	gen, hit := s.aggregates.Load(ctx, owner, "stats", params, &cached)
	if hit {
		return &cached, nil
	}

	entries, err := s.repo.ListCreatedSince(ctx, owner, windowStart(now, period))
	if err != nil {
		return nil, storeErr("loading mood stats", err)
	}

	stats := &model.MoodStats{
		Period:       period,
		TotalEntries: len(entries),
		Distribution: make(map[model.Mood]int, len(model.Moods)),
	}
	for _, m := range model.Moods {
		stats.Distribution[m] = 0
	}

	var moodSum, intensitySum int
	for _, e := range entries {
		stats.Distribution[e.Mood]++
		moodSum += e.Mood.Value()
		intensitySum += e.Intensity
	}
	if n := len(entries); n > 0 {
		stats.AverageMood = float64(moodSum) / float64(n)
		stats.AverageIntensity = float64(intensitySum) / float64(n)
	}

	best := 0
	for _, m := range model.Moods {
		if c := stats.Distribution[m]; c > best {
			best = c
			stats.MostFrequent = m
		}
	}

	stats.Streak, err = s.streak(ctx, owner, today)
	if err != nil {
		return nil, err
	}

	s.aggregates.Save(ctx, owner, gen, "stats", params, stats)
	return stats, nil
}

// streak counts consecutive days with an entry ending today, looking back at
// most streakHorizon days.
func (s *StatsService) streak(ctx context.Context, owner model.Owner, today time.Time) (int, error) {
	from := today.AddDate(0, 0, -(s.streakHorizon - 1))
	entries, err := s.repo.ListByDate(ctx, owner, from, today.AddDate(0, 0, 1))
	if err != nil {
		return 0, storeErr("loading mood streak", err)
	}

	logged := make(map[string]bool, len(entries))
	for _, e := range entries {
		logged[model.DayKey(e.Date.In(s.loc))] = true
	}

	n := 0
	for n < s.streakHorizon && logged[model.DayKey(today.AddDate(0, 0, -n))] {
		n++
	}
	return n, nil
}
