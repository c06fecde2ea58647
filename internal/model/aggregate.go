package model

import "fmt"

// TrendPoint is one calendar day of a mood trend. Days without an entry are
// still present with HasEntry=false and zero values.
type TrendPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD
	HasEntry  bool   `json:"hasEntry"`
	MoodValue int    `json:"moodValue"`
	Intensity int    `json:"intensity"`
	Mood      Mood   `json:"mood"`
	Emoji     string `json:"emoji"`
	Notes     string `json:"notes"`
}

type TrendSummary struct {
	TotalDays        int     `json:"totalDays"`
	DaysWithEntries  int     `json:"daysWithEntries"`
	AverageMood      float64 `json:"averageMood"`
	AverageIntensity float64 `json:"averageIntensity"`
}

type Trend struct {
	Points  []TrendPoint `json:"points"`
	Summary TrendSummary `json:"summary"`
}

// Period selects the rolling window for mood statistics.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodWeek, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

type MoodStats struct {
	Period           Period       `json:"period"`
	TotalEntries     int          `json:"totalEntries"`
	AverageMood      float64      `json:"averageMood"`
	AverageIntensity float64      `json:"averageIntensity"`
	Distribution     map[Mood]int `json:"distribution"`
	MostFrequent     Mood         `json:"mostFrequent,omitempty"`
	Streak           int          `json:"streak"`
}

// Page is one page of a listing plus the metadata needed to render pagination.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	TotalPage   int   `json:"totalPage"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"hasNextPage"`
}
