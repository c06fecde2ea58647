// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mood is one of the five fixed labels a student can log. The order of
// Moods is significant: it is the scale order and the tie-break order.
type Mood string

const (
	MoodAwful Mood = "awful"
	MoodBad   Mood = "bad"
	MoodOkay  Mood = "okay"
	MoodGood  Mood = "good"
	MoodGreat Mood = "great"
)

// Moods lists every label in enumeration order (Awful < ... < Great).
var Moods = []Mood{MoodAwful, MoodBad, MoodOkay, MoodGood, MoodGreat}

var moodEmoji = map[Mood]string{
	MoodAwful: "😢",
	MoodBad:   "😞",
	MoodOkay:  "😐",
	MoodGood:  "😊",
	MoodGreat: "😄",
}

// ParseMood accepts a label in any letter case.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

func (m Mood) Valid() bool {
	_, ok := moodEmoji[m]
	return ok
}

// Value maps the label onto the 1..5 scale. Unknown labels map to 0.
func (m Mood) Value() int {
	for i, candidate := range Moods {
		if candidate == m {
			return i + 1
		}
	}
	return 0
}

func (m Mood) Emoji() string {
	return moodEmoji[m]
}

// OwnerKind distinguishes the two disjoint account collections.
type OwnerKind string

const (
	OwnerStudent   OwnerKind = "student"
	OwnerCounselor OwnerKind = "counselor"
)

func (k OwnerKind) Valid() bool {
	return k == OwnerStudent || k == OwnerCounselor
}

// Owner identifies who a mood entry belongs to. ID alone is not unique
// across kinds.
type Owner struct {
	ID   string    `json:"id"`
	Kind OwnerKind `json:"kind"`
}

func (o Owner) String() string {
	return string(o.Kind) + ":" + o.ID
}

// MoodEntry is one day's mood for one owner.
//
// Date is always local midnight of the day the entry was logged. IsActive
// is the soft-delete flag: deleted entries stay in the store but every read
// filters them out.
type MoodEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"userId"`
	OwnerKind OwnerKind `json:"userKind"`
	Mood      Mood      `json:"mood"`
	Intensity int       `json:"intensity"`
	Notes     string    `json:"notes,omitempty"`
	Date      time.Time `json:"date"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *MoodEntry) Owner() Owner {
	return Owner{ID: e.OwnerID, Kind: e.OwnerKind}
}

// StartOfDay truncates t to midnight in t's own location.
//
// CALENDAR DAYS ARE ZONE-DEPENDENT:
// 23:30 on the 14th in New York is 03:30 on the 15th in UTC. Which day an
// entry belongs to therefore depends on the zone of t, and callers must move
// t into the owner's zone first (the services do this with In). Truncating a
// UTC instant would file late-evening entries under tomorrow.
//
// time.Truncate(24*time.Hour) is not a substitute: it rounds relative to the
// zero time in UTC and ignores t's location entirely. Rebuilding the value
// with time.Date also gives the right answer on days that are 23 or 25 hours
// long.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats the calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
