package model

import "time"

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mood is the coarse emotional tag attached to a turn.
type Mood string

const (
	MoodNeutral  Mood = "neutral"
	MoodAnxious  Mood = "anxious"
	MoodSad      Mood = "sad"
	MoodAngry    Mood = "angry"
	MoodHappy    Mood = "happy"
	MoodTired    Mood = "tired"
	MoodConfused Mood = "confused"
)

// Moods lists all valid moods in declaration order.
var Moods = []Mood{
	MoodNeutral, MoodAnxious, MoodSad, MoodAngry, MoodHappy, MoodTired, MoodConfused,
}

// ValidMood reports whether m is a member of the closed mood set.
func ValidMood(m Mood) bool {
	for _, v := range Moods {
		if v == m {
			return true
		}
	}
	return false
}

// FactType is the closed set of memory fact categories. Values outside the
// set are rejected at the extraction boundary, never stored.
type FactType string

const (
	FactPersonal     FactType = "personal"
	FactPreference   FactType = "preference"
	FactRelationship FactType = "relationship"
	FactGoal         FactType = "goal"
	FactFear         FactType = "fear"
	FactAchievement  FactType = "achievement"
)

// FactTypes lists all valid fact types in declaration order.
var FactTypes = []FactType{
	FactPersonal, FactPreference, FactRelationship, FactGoal, FactFear, FactAchievement,
}

// ValidFactType reports whether t is a member of the closed fact-type set.
func ValidFactType(t FactType) bool {
	for _, v := range FactTypes {
		if v == t {
			return true
		}
	}
	return false
}

// MediaKind distinguishes image and video attachments.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// User represents an account in the system.
type User struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	CreationTime time.Time `json:"creationTime"`
}

// Turn is one message in a conversation. Turns are append-only; they are
// deleted only in bulk via clear-history or a user cascade.
type Turn struct {
	TurnID           string     `json:"turnId"`
	UserID           string     `json:"userId"`
	Role             Role       `json:"role"`
	Content          string     `json:"content"`
	Mood             *Mood      `json:"mood,omitempty"`
	MediaKind        *MediaKind `json:"mediaKind,omitempty"`
	MediaDescription *string    `json:"mediaDescription,omitempty"`
	CreationTime     time.Time  `json:"creationTime"`
}

// Fact is a durable, typed, scored claim about a user.
// Importance is always within [1,10]; content is capped at 500 characters.
type Fact struct {
	FactID         string    `json:"factId"`
	UserID         string    `json:"userId"`
	Type           FactType  `json:"type"`
	Content        string    `json:"content"`
	Importance     int       `json:"importance"`
	LastReferenced time.Time `json:"lastReferenced"`
	CreationTime   time.Time `json:"creationTime"`
}

// JournalEntry is a free-form dated note with an optional mood.
type JournalEntry struct {
	EntryID      string    `json:"entryId"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title,omitempty"`
	Content      string    `json:"content"`
	Mood         *Mood     `json:"mood,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// Reminder is a scheduled per-user note. Date and Time are stored as the
// client-supplied strings (YYYY-MM-DD, HH:MM); no server-side scheduling.
type Reminder struct {
	ReminderID   string    `json:"reminderId"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Repeat       string    `json:"repeat"`
	Active       bool      `json:"active"`
	CreationTime time.Time `json:"creationTime"`
}

// WeeklySummary is a compacted digest of a trailing 7-day conversation window.
// Rows are never updated; a newer row supersedes older ones implicitly.
type WeeklySummary struct {
	SummaryID     string    `json:"summaryId"`
	UserID        string    `json:"userId"`
	Summary       string    `json:"summary"`
	KeyTopics     []string  `json:"keyTopics"`
	EmotionalTone string    `json:"emotionalTone"`
	DateRange     string    `json:"dateRange"`
	CreationTime  time.Time `json:"creationTime"`
}

// ListTurnsRequest captures filters used when listing turns.
type ListTurnsRequest struct {
	UserID    string
	Limit     int
	After     *time.Time
	Ascending bool
}
