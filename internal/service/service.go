// Package service holds the business rules of mood tracking.
//
// Handlers call services with plain values; services validate, talk to the
// repository interfaces and return *apperror.AppError values the HTTP layer
// translates. Nothing here knows about HTTP or about a concrete store.
//
// Calendar days are computed in one configured location. Tests pin the
// clock with WithClock so day boundaries are deterministic.
package service

import (
	"errors"
	"time"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
)

// DefaultStreakHorizonDays bounds how far back a streak is counted.
const DefaultStreakHorizonDays = 30

type settings struct {
	now           func() time.Time
	loc           *time.Location
	streakHorizon int
}

// Option tunes the calendar and clock every service shares.
type Option func(*settings)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLocation sets the zone whose midnights delimit calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithStreakHorizon(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.streakHorizon = days
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		now:           time.Now,
		loc:           time.Local,
		streakHorizon: DefaultStreakHorizonDays,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) currentTime() time.Time {
	return s.now().In(s.loc)
}

func (s settings) today() time.Time {
	return model.StartOfDay(s.currentTime())
}

// storeErr passes application errors through and wraps everything else as a
// store failure.
func storeErr(action string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.StoreFailure(action, err)
}
