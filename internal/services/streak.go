package services

import (
	"time"

	"couple-diary-backend/internal/models"
)

// advanceStreak applies one successful answer on the given day to
// a streak. The transition table:
//
//	never played            -> streak becomes 1
//	last played yesterday   -> streak increments
//	last played today       -> unchanged (re-entrant)
//	gap of two or more days -> streak resets to 1
//
// Longest streak is the running maximum; the total counts every
// first answer of a day.
func advanceStreak(s *models.GameStreak, today string) {
	if s.LastPlayedDate == today {
		return
	}

	if s.LastPlayedDate == yesterdayOf(today) {
		s.CurrentStreak++
	} else {
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastPlayedDate = today
	s.TotalQuestionsAnswered++
}

func yesterdayOf(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(models.DateLayout)
}
