package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"readtrack/internal/clock"
	"readtrack/internal/models"
	"readtrack/internal/storage"
)

// DefaultMaxDays is how many distinct days of reading history are kept
const DefaultMaxDays = 7

// Token identifies a chapter of a book in the daily log
func Token(bookID string, chapter int) string {
	return bookID + "-" + strconv.Itoa(chapter)
}

// Tracker keeps the per-day log of chapters read and the daily goal.
//
// A chapter counts once per day: recording it again the same day is a
// no-op, and marking it unread later does not take the credit back.
type Tracker struct {
	db      storage.Storage
	clock   clock.Clock
	logger  *zap.Logger
	maxDays int

	days map[string]*models.DailyEntry
	goal int
}

// NewTracker creates an empty tracker; call Load to read the store.
// maxDays below 1 falls back to DefaultMaxDays.
func NewTracker(db storage.Storage, clk clock.Clock, maxDays int, logger *zap.Logger) *Tracker {
	if maxDays < 1 {
		maxDays = DefaultMaxDays
	}
	return &Tracker{
		db:      db,
		clock:   clk,
		logger:  logger,
		maxDays: maxDays,
		days:    make(map[string]*models.DailyEntry),
	}
}

// Load reads the daily log and the goal. The stored log is normalized:
// duplicate tokens are dropped, counts recomputed and old days evicted.
func (t *Tracker) Load(ctx context.Context) error {
	t.days = make(map[string]*models.DailyEntry)
	t.goal = 0

	raw, ok, err := t.db.Get(ctx, storage.KeyDailyProgress)
	if err != nil {
		return fmt.Errorf("failed to load daily progress: %w", err)
	}
	if ok && raw != "" {
		var stored map[string]models.DailyEntry
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return fmt.Errorf("failed to decode daily progress: %w", err)
		}
		for date, entry := range stored {
			t.days[date] = normalizeEntry(entry)
		}
		t.evict("")
	}

	raw, ok, err = t.db.Get(ctx, storage.KeyDailyGoal)
	if err != nil {
		return fmt.Errorf("failed to load daily goal: %w", err)
	}
	if ok {
		goal, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || goal < 1 {
			t.logger.Warn("Ignoring invalid stored daily goal", zap.String("value", raw))
		} else {
			t.goal = goal
		}
	}
	return nil
}

func normalizeEntry(entry models.DailyEntry) *models.DailyEntry {
	seen := make(map[string]bool, len(entry.Chapters))
	out := &models.DailyEntry{Chapters: make([]string, 0, len(entry.Chapters))}
	for _, token := range entry.Chapters {
		if seen[token] {
			continue
		}
		seen[token] = true
		out.Chapters = append(out.Chapters, token)
	}
	out.Count = len(out.Chapters)
	return out
}

// Record adds the chapter to today's log without saving.
// It reports whether the chapter was new for today.
func (t *Tracker) Record(bookID string, chapter int) bool {
	today := t.clock.Today()
	token := Token(bookID, chapter)

	entry, ok := t.days[today]
	if !ok {
		entry = &models.DailyEntry{Chapters: []string{}}
		t.days[today] = entry
	}
	for _, existing := range entry.Chapters {
		if existing == token {
			return false
		}
	}
	entry.Chapters = append(entry.Chapters, token)
	entry.Count = len(entry.Chapters)

	t.evict(today)
	return true
}

// RecordRead records the chapter for today and saves when it was new
func (t *Tracker) RecordRead(ctx context.Context, bookID string, chapter int) (bool, error) {
	if !t.Record(bookID, chapter) {
		return false, nil
	}
	return true, t.Save(ctx)
}

// evict drops the oldest days until at most maxDays remain. keep is never
// dropped, so a clock that went backwards cannot evict the day just written.
func (t *Tracker) evict(keep string) {
	if len(t.days) <= t.maxDays {
		return
	}
	dates := t.dates()
	for _, date := range dates {
		if len(t.days) <= t.maxDays {
			break
		}
		if date == keep {
			continue
		}
		delete(t.days, date)
		t.logger.Debug("Evicted reading day", zap.String("date", date))
	}
}

func (t *Tracker) dates() []string {
	dates := make([]string, 0, len(t.days))
	for date := range t.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Save writes the daily log to the store
func (t *Tracker) Save(ctx context.Context) error {
	out := make(map[string]models.DailyEntry, len(t.days))
	for date, entry := range t.days {
		out[date] = *entry
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode daily progress: %w", err)
	}
	if err := t.db.Set(ctx, storage.KeyDailyProgress, string(data)); err != nil {
		return fmt.Errorf("failed to save daily progress: %w", err)
	}
	return nil
}

// CountOn returns the number of chapters read on date
func (t *Tracker) CountOn(date string) int {
	if entry, ok := t.days[date]; ok {
		return entry.Count
	}
	return 0
}

// TodayCount returns the number of chapters read today
func (t *Tracker) TodayCount() int {
	return t.CountOn(t.clock.Today())
}

// ReadOn reports whether the chapter is in the log of date
func (t *Tracker) ReadOn(date, bookID string, chapter int) bool {
	entry, ok := t.days[date]
	if !ok {
		return false
	}
	token := Token(bookID, chapter)
	for _, existing := range entry.Chapters {
		if existing == token {
			return true
		}
	}
	return false
}

// Series returns every retained day in ascending date order
func (t *Tracker) Series() []models.DailyCount {
	dates := t.dates()
	series := make([]models.DailyCount, len(dates))
	for i, date := range dates {
		series[i] = models.DailyCount{Date: date, Count: t.days[date].Count}
	}
	return series
}

// Goal returns the daily goal; ok is false when no goal is set
func (t *Tracker) Goal() (goal int, ok bool) {
	return t.goal, t.goal > 0
}

// SetGoal validates and stores the daily goal
func (t *Tracker) SetGoal(ctx context.Context, goal int) error {
	if goal < 1 {
		return models.NewValidationError(models.FieldDailyGoal, "Please enter a valid daily goal (minimum 1 chapter).")
	}
	t.goal = goal
	if err := t.db.Set(ctx, storage.KeyDailyGoal, strconv.Itoa(goal)); err != nil {
		return fmt.Errorf("failed to save daily goal: %w", err)
	}
	t.logger.Info("Daily goal set", zap.Int("goal", goal))
	return nil
}

// GoalAchieved reports whether today's count reached the goal
func (t *Tracker) GoalAchieved() bool {
	goal, ok := t.Goal()
	return ok && t.TodayCount() >= goal
}

// Reset clears the log and the goal in memory and in the store
func (t *Tracker) Reset(ctx context.Context) error {
	t.days = make(map[string]*models.DailyEntry)
	t.goal = 0
	if err := t.db.Remove(ctx, storage.KeyDailyProgress); err != nil {
		return fmt.Errorf("failed to remove daily progress: %w", err)
	}
	if err := t.db.Remove(ctx, storage.KeyDailyGoal); err != nil {
		return fmt.Errorf("failed to remove daily goal: %w", err)
	}
	return nil
}
