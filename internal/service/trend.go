package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/cache"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

const (
	DefaultTrendDays = 7
	MaxTrendDays     = 365
)

// TrendService rebuilds a dense daily series from sparse entries.
type TrendService struct {
	repo       repository.MoodRepository
	aggregates *cache.Aggregates
	logger     zerolog.Logger
	settings
}

func NewTrendService(repo repository.MoodRepository, aggregates *cache.Aggregates, logger zerolog.Logger, opts ...Option) *TrendService {
	return &TrendService{
		repo:       repo,
		aggregates: aggregates,
		logger:     logger,
		settings:   newSettings(opts),
	}
}

// Trend returns exactly days points, oldest first, the last one being today.
// Days without an entry have HasEntry=false. The summary averages cover
// only the days that have an entry and are 0 when there are none.
func (s *TrendService) Trend(ctx context.Context, owner model.Owner, days int) (*model.Trend, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, apperror.ValidationFailed("days", fmt.Sprintf("days must be between 1 and %d", MaxTrendDays))
	}

	today := s.today()
	params := fmt.Sprintf("%d:%s", days, model.DayKey(today))
	var cached model.Trend
	gen, hit := s.aggregates.Load(ctx, owner, "trend", params, &cached)
	if hit {
		return &cached, nil
	}

	start := today.AddDate(0, 0, -(days - 1))
	entries, err := s.repo.ListByDate(ctx, owner, start, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, storeErr("loading mood trend", err)
	}

	byDay := make(map[string]model.MoodEntry, len(entries))
	for _, e := range entries {
		byDay[model.DayKey(e.Date.In(s.loc))] = e
	}

	trend := &model.Trend{
		Points:  make([]model.TrendPoint, 0, days),
		Summary: model.TrendSummary{TotalDays: days},
	}
	var moodSum, intensitySum int
	for i := 0; i < days; i++ {
		key := model.DayKey(start.AddDate(0, 0, i))
		e, ok := byDay[key]
		if !ok {
			trend.Points = append(trend.Points, model.TrendPoint{Date: key})
			continue
		}

		trend.Points = append(trend.Points, model.TrendPoint{
			Date:      key,
			HasEntry:  true,
			MoodValue: e.Mood.Value(),
			Intensity: e.Intensity,
			Mood:      e.Mood,
			Emoji:     e.Mood.Emoji(),
			Notes:     e.Notes,
		})
		trend.Summary.DaysWithEntries++
		moodSum += e.Mood.Value()
		intensitySum += e.Intensity
	}

	if n := trend.Summary.DaysWithEntries; n > 0 {
		trend.Summary.AverageMood = float64(moodSum) / float64(n)
		trend.Summary.AverageIntensity = float64(intensitySum) / float64(n)
	}

	s.aggregates.Save(ctx, owner, gen, "trend", params, trend)
	return trend, nil
}
