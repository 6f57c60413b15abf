package stats

import "readtrack/internal/models"

// Snapshot holds the aggregate counters shown above the book list
type Snapshot struct {
	TotalBooks        int
	TotalChaptersRead int
	BooksInProgress   int
	BooksCompleted    int
	TodayChaptersRead int
	// DailyGoal is 0 when no goal is set
	DailyGoal    int
	GoalAchieved bool
}

// Compute derives the snapshot from the books and today's log count.
// goal <= 0 means no goal.
func Compute(books []models.Book, todayCount, goal int) Snapshot {
	s := Snapshot{
		TotalBooks:        len(books),
		TodayChaptersRead: todayCount,
	}
	for _, b := range books {
		s.TotalChaptersRead += b.ReadCount()
		switch b.Status() {
		case models.StatusCompleted:
			s.BooksCompleted++
		case models.StatusInProgress:
			s.BooksInProgress++
		}
	}
	if goal > 0 {
		s.DailyGoal = goal
		s.GoalAchieved = todayCount >= goal
	}
	return s
}

// GoalProgress returns today's count as a capped percentage of the goal
func (s Snapshot) GoalProgress() int {
	if s.DailyGoal <= 0 {
		return 0
	}
	if s.TodayChaptersRead >= s.DailyGoal {
		return 100
	}
	return s.TodayChaptersRead * 100 / s.DailyGoal
}
