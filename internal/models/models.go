package models

import "time"

// DateLayout is the wire format for calendar dates. Calendar
// dates are kept as strings so they never shift across timezones.
const DateLayout = "2006-01-02"

// Mood values allowed on a diary entry
const (
	MoodHappy    = "happy"
	MoodSad      = "sad"
	MoodExcited  = "excited"
	MoodCalm     = "calm"
	MoodRomantic = "romantic"
	MoodGrateful = "grateful"
)

// Question categories
const (
	CategoryDeep     = "deep"
	CategoryFun      = "fun"
	CategoryMemory   = "memory"
	CategoryFuture   = "future"
	CategoryIntimate = "intimate"
)

// Plan types
const (
	PlanIndividual = "individual"
	PlanTogether   = "together"
)

// Profile represents one user's account and biography.
// The password hash lives in the same row but never leaves
// the repository layer.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	PartnerID   *string   `json:"partner_id,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	Birthday    *string   `json:"birthday,omitempty"`
	Anniversary *string   `json:"anniversary,omitempty"`
	DeviceToken *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PartnerInfo is the minimal partner projection exposed to the
// other half of a pair.
type PartnerInfo struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// DiaryEntry represents a journal entry owned by one user
type DiaryEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood"`
	IsPrivate bool      `json:"is_private"`
	Photos    []string  `json:"photos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameQuestion is one question in the shared pool. IsActive is a
// single global flag: once any user answers the question it is
// retired for everyone.
type GameQuestion struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	CreatedBy *string   `json:"created_by,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyQuestion assigns one question to one user for one
// calendar date
type DailyQuestion struct {
	ID         string       `json:"id"`
	QuestionID string       `json:"question_id"`
	UserID     string       `json:"user_id"`
	Date       string       `json:"date"`
	Question   GameQuestion `json:"question"`
}

// GameResponse is a user's answer for one day. Question text and
// profile name are snapshotted so the response stays readable after
// the question or profile changes.
type GameResponse struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Answer       string    `json:"answer"`
	Date         string    `json:"date"`
	Category     string    `json:"category"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	IsPrivate    bool      `json:"is_private"`
	CreatedAt    time.Time `json:"created_at"`
}

// GameStreak tracks consecutive days of answered questions for
// one user
type GameStreak struct {
	UserID                 string `json:"user_id"`
	CurrentStreak          int    `json:"current_streak"`
	LongestStreak          int    `json:"longest_streak"`
	LastPlayedDate         string `json:"last_played_date"`
	TotalQuestionsAnswered int    `json:"total_questions_answered"`
}

// GameReaction is an emoji acknowledgment on a response. At most
// one row per (response, user, emoji) triple.
type GameReaction struct {
	ID         string    `json:"id"`
	ResponseID string    `json:"response_id"`
	UserID     string    `json:"user_id"`
	Emoji      string    `json:"emoji"`
	CreatedAt  time.Time `json:"created_at"`
}

// GameReply is a threaded comment on a response, append-only
type GameReply struct {
	ID         string    `json:"id"`
	ResponseID string    `json:"response_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Content    string    `json:"content"`
	IsPrivate  bool      `json:"is_private"`
	CreatedAt  time.Time `json:"created_at"`
}

// SharedPlan is a calendar entry visible to both partners
type SharedPlan struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Date        string    `json:"date"`
	Time        *string   `json:"time,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CreatedBy   string    `json:"created_by"`
	PlanType    string    `json:"plan_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidMood reports whether m is one of the allowed moods
func ValidMood(m string) bool {
	switch m {
	case MoodHappy, MoodSad, MoodExcited, MoodCalm, MoodRomantic, MoodGrateful:
		return true
	}
	return false
}

// ValidCategory reports whether c is one of the allowed question
// categories
func ValidCategory(c string) bool {
	switch c {
	case CategoryDeep, CategoryFun, CategoryMemory, CategoryFuture, CategoryIntimate:
		return true
	}
	return false
}

// ValidPlanType reports whether t is an allowed plan type
func ValidPlanType(t string) bool {
	return t == PlanIndividual || t == PlanTogether
}
