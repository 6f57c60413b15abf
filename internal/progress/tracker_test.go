package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readtrack/internal/clock"
	"readtrack/internal/models"
	"readtrack/internal/storage"
	"readtrack/internal/storage/stubs"
)

func newTestTracker(t *testing.T) (*Tracker, *stubs.MockDB, *clock.Fixed) {
	t.Helper()
	db := stubs.NewMockDB()
	clk := clock.NewFixed(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	tracker := NewTracker(db, clk, DefaultMaxDays, zap.NewNop())
	require.NoError(t, tracker.Load(context.Background()))
	return tracker, db, clk
}

func TestToken(t *testing.T) {
	assert.Equal(t, "abc-12", Token("abc", 12))
}

func TestTracker_RecordReadCountsOncePerDay(t *testing.T) {
	tracker, db, _ := newTestTracker(t)
	ctx := context.Background()

	added, err := tracker.RecordRead(ctx, "b1", 3)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = tracker.RecordRead(ctx, "b1", 3)
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, 1, tracker.TodayCount())
	assert.Equal(t, 1, db.Writes(), "a repeated chapter is not written again")
	assert.True(t, tracker.ReadOn("2024-03-10", "b1", 3))

	_, _ = tracker.RecordRead(ctx, "b1", 4)
	_, _ = tracker.RecordRead(ctx, "b2", 3)
	assert.Equal(t, 3, tracker.TodayCount())
}

func TestTracker_SameChapterCountsAgainNextDay(t *testing.T) {
	tracker, _, clk := newTestTracker(t)
	ctx := context.Background()

	_, _ = tracker.RecordRead(ctx, "b1", 1)
	clk.AdvanceDays(1)
	added, err := tracker.RecordRead(ctx, "b1", 1)
	require.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, []models.DailyCount{
		{Date: "2024-03-10", Count: 1},
		{Date: "2024-03-11", Count: 1},
	}, tracker.Series())
}

func TestTracker_EvictsOldestDays(t *testing.T) {
	tracker, _, clk := newTestTracker(t)
	ctx := context.Background()

	for day := 0; day < 8; day++ {
		for ch := 0; ch <= day; ch++ {
			_, err := tracker.RecordRead(ctx, "b1", ch+1)
			require.NoError(t, err)
		}
		clk.AdvanceDays(1)
	}

	series := tracker.Series()
	require.Len(t, series, DefaultMaxDays)
	assert.Equal(t, "2024-03-11", series[0].Date, "the oldest day was evicted")
	assert.Equal(t, "2024-03-17", series[6].Date)
	assert.Equal(t, 8, series[6].Count)
	assert.Equal(t, 0, tracker.CountOn("2024-03-10"))
}

func TestTracker_ClockGoingBackwardsKeepsToday(t *testing.T) {
	tracker, _, clk := newTestTracker(t)
	ctx := context.Background()

	for day := 0; day < DefaultMaxDays; day++ {
		_, _ = tracker.RecordRead(ctx, "b1", 1)
		clk.AdvanceDays(1)
	}
	clk.AdvanceDays(-30)
	_, err := tracker.RecordRead(ctx, "b1", 1)
	require.NoError(t, err)

	assert.Len(t, tracker.Series(), DefaultMaxDays)
	assert.Equal(t, 1, tracker.TodayCount())
}

func TestTracker_Goal(t *testing.T) {
	tracker, db, _ := newTestTracker(t)
	ctx := context.Background()

	_, ok := tracker.Goal()
	assert.False(t, ok)
	assert.False(t, tracker.GoalAchieved(), "no goal is never achieved")

	for _, invalid := range []int{0, -2} {
		err := tracker.SetGoal(ctx, invalid)
		var validationErr *models.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, models.FieldDailyGoal, validationErr.Field)
	}

	require.NoError(t, tracker.SetGoal(ctx, 2))
	value, _, _ := db.Get(ctx, storage.KeyDailyGoal)
	assert.Equal(t, "2", value)

	_, _ = tracker.RecordRead(ctx, "b1", 1)
	assert.False(t, tracker.GoalAchieved())
	_, _ = tracker.RecordRead(ctx, "b1", 2)
	assert.True(t, tracker.GoalAchieved())
	_, _ = tracker.RecordRead(ctx, "b1", 3)
	assert.True(t, tracker.GoalAchieved())
}

func TestTracker_LoadNormalizes(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	stored := `{
		"2024-03-01":{"count":9,"chapters":["a-1","a-1","a-2"]},
		"2024-03-02":{"count":1,"chapters":["a-3"]},
		"2024-03-03":{"count":1,"chapters":["a-4"]},
		"2024-03-04":{"count":1,"chapters":["a-5"]},
		"2024-03-05":{"count":1,"chapters":["a-6"]},
		"2024-03-06":{"count":1,"chapters":["a-7"]},
		"2024-03-07":{"count":1,"chapters":["a-8"]},
		"2024-03-08":{"count":1,"chapters":["a-9"]}
	}`
	require.NoError(t, db.Set(ctx, storage.KeyDailyProgress, stored))
	require.NoError(t, db.Set(ctx, storage.KeyDailyGoal, "not a number"))

	clk := clock.NewFixed(time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC))
	tracker := NewTracker(db, clk, DefaultMaxDays, zap.NewNop())
	require.NoError(t, tracker.Load(ctx))

	series := tracker.Series()
	require.Len(t, series, 7)
	assert.Equal(t, "2024-03-02", series[0].Date)
	_, ok := tracker.Goal()
	assert.False(t, ok)

	// Counts always match the tokens
	db2 := stubs.NewMockDB()
	require.NoError(t, db2.Set(ctx, storage.KeyDailyProgress, `{"2024-03-08":{"count":9,"chapters":["a-1","a-1","a-2"]}}`))
	tracker2 := NewTracker(db2, clk, DefaultMaxDays, zap.NewNop())
	require.NoError(t, tracker2.Load(ctx))
	assert.Equal(t, 2, tracker2.TodayCount())
}

func TestTracker_SaveLoadRoundTrip(t *testing.T) {
	tracker, db, clk := newTestTracker(t)
	ctx := context.Background()

	_, _ = tracker.RecordRead(ctx, "b1", 1)
	_, _ = tracker.RecordRead(ctx, "b2", 5)
	require.NoError(t, tracker.SetGoal(ctx, 3))

	reloaded := NewTracker(db, clk, DefaultMaxDays, zap.NewNop())
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, tracker.Series(), reloaded.Series())
	goal, ok := reloaded.Goal()
	assert.True(t, ok)
	assert.Equal(t, 3, goal)
	assert.True(t, reloaded.ReadOn("2024-03-10", "b2", 5))
}

func TestTracker_Reset(t *testing.T) {
	tracker, db, _ := newTestTracker(t)
	ctx := context.Background()

	_, _ = tracker.RecordRead(ctx, "b1", 1)
	_ = tracker.SetGoal(ctx, 1)
	require.NoError(t, tracker.Reset(ctx))

	assert.Empty(t, tracker.Series())
	_, ok := tracker.Goal()
	assert.False(t, ok)
	assert.Empty(t, db.Keys())
}
