// Package mood classifies free-text messages into coarse emotional tags and
// detects distress signals. Both functions are pure and deterministic.
package mood

import (
	"strings"

	"github.com/companionlabs/companion/internal/model"
)

// moodTable maps each mood to its trigger substrings. Declaration order fixes
// the tie-break: when two moods score equally, the one listed first wins.
var moodTable = []struct {
	mood     model.Mood
	triggers []string
}{
	{model.MoodAnxious, []string{"anxious", "worried", "nervous", "scared", "afraid", "panic", "stress", "overwhelm"}},
	{model.MoodSad, []string{"sad", "down", "depressed", "lonely", "upset", "cry", "hurt", "pain"}},
	{model.MoodAngry, []string{"angry", "mad", "furious", "annoyed", "frustrate", "hate"}},
	{model.MoodHappy, []string{"happy", "great", "awesome", "excited", "joy", "love", "amazing", "good"}},
	{model.MoodTired, []string{"tired", "exhausted", "sleepy", "drained", "burnout"}},
	{model.MoodConfused, []string{"confused", "lost", "unsure", "don't know", "idk"}},
}

// distressTriggers are substrings that, combined with a negative mood, place
// the conversation into safe-space mode.
var distressTriggers = []string{
	"can't", "help", "meltdown", "breakdown", "too much",
	"give up", "hate myself", "worthless", "failure", "scared",
}

// negativeMoods are the moods under which distress triggers are honored.
var negativeMoods = map[model.Mood]bool{
	model.MoodAnxious: true,
	model.MoodSad:     true,
	model.MoodAngry:   true,
}

// Classify scores each mood by counting trigger substrings present in the
// message (case-insensitive) and returns the highest scorer, or neutral when
// nothing matches.
func Classify(message string) model.Mood {
	lower := strings.ToLower(message)

	best := model.MoodNeutral
	bestScore := 0
	for _, row := range moodTable {
		score := 0
		for _, trig := range row.triggers {
			if strings.Contains(lower, trig) {
				score++
			}
		}
		if score > bestScore {
			best = row.mood
			bestScore = score
		}
	}
	return best
}

// IsDistress reports whether the message contains a distress trigger while the
// detected mood is negative. Both conditions must hold.
func IsDistress(message string, mood model.Mood) bool {
	if !negativeMoods[mood] {
		return false
	}
	lower := strings.ToLower(message)
	for _, trig := range distressTriggers {
		if strings.Contains(lower, trig) {
			return true
		}
	}
	return false
}
