package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/insight"
	"github.com/sakif/mindspace/internal/model"
)

// Reflection is what the insight endpoint returns.
type Reflection struct {
	Text      string             `json:"text"`
	Generated bool               `json:"generated"`
	Trend     model.TrendSummary `json:"trend"`
	Streak    int                `json:"streak"`
}

// InsightService turns the week's trend and stats into a model-written
// reflection.
type InsightService struct {
	trends   *TrendService
	stats    *StatsService
	provider insight.Provider
	logger   zerolog.Logger
}

// NewInsightService wires an InsightService. A nil provider makes Reflect
// report Unavailable.
func NewInsightService(trends *TrendService, stats *StatsService, provider insight.Provider, logger zerolog.Logger) *InsightService {
	return &InsightService{trends: trends, stats: stats, provider: provider, logger: logger}
}

// Reflect never calls the model for an owner with no entries this week.
func (s *InsightService) Reflect(ctx context.Context, owner model.Owner) (*Reflection, error) {
	if s.provider == nil {
		return nil, apperror.Unavailable("mood insights are not configured")
	}

	trend, err := s.trends.Trend(ctx, owner, DefaultTrendDays)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.Stats(ctx, owner, model.PeriodWeek)
	if err != nil {
		return nil, err
	}

	r := &Reflection{Trend: trend.Summary, Streak: stats.Streak}
	if trend.Summary.DaysWithEntries == 0 {
		r.Text = insight.NoEntriesMessage
		return r, nil
	}

	text, err := s.provider.Generate(ctx, insight.SystemPrompt, insight.BuildPrompt(trend, stats))
	if err != nil {
		s.logger.Error().Err(err).Str("owner", owner.String()).Msg("insight generation failed")
		return nil, apperror.Unavailable("could not generate an insight right now, please try again later")
	}

	r.Text = text
	r.Generated = true
	return r, nil
}
