package insight

import (
	"fmt"
	"strings"

	"github.com/sakif/mindspace/internal/model"
)

// SystemPrompt frames every reflection request.
const SystemPrompt = "You are a warm, concise wellbeing companion for university students. " +
	"Reflect on the mood log you are given in at most four sentences. " +
	"Notice patterns, acknowledge effort, and suggest one small, practical step. " +
	"Do not diagnose. If the log suggests crisis, gently recommend talking to a counselor."

// NoEntriesMessage is returned instead of calling the model when the week is empty.
const NoEntriesMessage = "No moods logged this week yet. A quick check-in each day makes patterns easier to spot."

// BuildPrompt renders the last days of trend and the weekly stats as plain
// text for the model. Notes are included because they carry most of the
// signal; they are clipped to keep the prompt small.
func BuildPrompt(trend *model.Trend, stats *model.MoodStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mood log for the last %d days (scale 1 awful .. 5 great, intensity 1..10):\n", len(trend.Points))
	for _, p := range trend.Points {
		if !p.HasEntry {
			fmt.Fprintf(&b, "- %s: no entry\n", p.Date)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s (%d), intensity %d", p.Date, p.Mood, p.MoodValue, p.Intensity)
		if p.Notes != "" {
			fmt.Fprintf(&b, ", notes: %q", clip(p.Notes, 200))
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nThis week: %d entries, average mood %.1f, average intensity %.1f, current streak %d days.",
		stats.TotalEntries, stats.AverageMood, stats.AverageIntensity, stats.Streak)
	if stats.MostFrequent != "" {
		fmt.Fprintf(&b, " Most frequent mood: %s.", stats.MostFrequent)
	}
	return b.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
