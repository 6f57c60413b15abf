package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readtrack/internal/clock"
	"readtrack/internal/ids"
	"readtrack/internal/library"
	"readtrack/internal/models"
	"readtrack/internal/notify"
	"readtrack/internal/storage"
	"readtrack/internal/storage/stubs"
	"readtrack/internal/view"
)

type recordingRenderer struct {
	views []View
}

func (r *recordingRenderer) Render(v View) {
	r.views = append(r.views, v)
}

func (r *recordingRenderer) last(t *testing.T) View {
	t.Helper()
	require.NotEmpty(t, r.views)
	return r.views[len(r.views)-1]
}

type testApp struct {
	*App
	db       *stubs.MockDB
	clock    *clock.Fixed
	sink     *notify.Recorder
	renderer *recordingRenderer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return openTestApp(t, stubs.NewMockDB())
}

func openTestApp(t *testing.T, db *stubs.MockDB) *testApp {
	t.Helper()
	ta := &testApp{
		db:       db,
		clock:    clock.NewFixed(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		sink:     &notify.Recorder{},
		renderer: &recordingRenderer{},
	}
	a, err := Open(context.Background(), Deps{
		DB:       db,
		Clock:    ta.clock,
		IDs:      &ids.Sequence{Prefix: "book"},
		Sink:     ta.sink,
		Renderer: ta.renderer,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	ta.App = a
	return ta
}

func fields(title string, genre models.Genre, chapters int) library.BookFields {
	return library.BookFields{
		Title:         title,
		Author:        "Someone",
		TotalChapters: chapters,
		Genre:         genre,
	}
}

func TestApp_AddBookRendersAndPersists(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()

	b, err := ta.AddBook(ctx, fields("Dune", models.GenreSciFi, 3))
	require.NoError(t, err)
	assert.Equal(t, "book-1", b.ID)

	v := ta.renderer.last(t)
	require.Len(t, v.Books, 1)
	assert.Equal(t, 1, v.Stats.TotalBooks)
	assert.Equal(t, []models.Genre{models.GenreSciFi}, v.Genres)

	reopened := openTestApp(t, ta.db)
	assert.Len(t, reopened.Books(), 1)
}

func TestApp_ValidationErrorIsReported(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.AddBook(context.Background(), fields("", models.GenreSciFi, 3))
	require.Error(t, err)

	msg, ok := ta.sink.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Message{Level: notify.Error, Text: "Please enter a book title."}, msg)
	assert.Empty(t, ta.renderer.views, "failed validation does not re-render")
	assert.Empty(t, ta.db.Keys())
}

func TestApp_MarkAllReadTodayMessages(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	b, _ := ta.AddBook(ctx, fields("Dune", models.GenreSciFi, 3))
	ta.sink.Reset()

	n, err := ta.MarkAllReadToday(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	msg, _ := ta.sink.Last()
	assert.Equal(t, "Marked 3 chapters as read", msg.Text)

	v := ta.renderer.last(t)
	assert.Equal(t, 3, v.Stats.TodayChaptersRead)
	assert.Equal(t, 1, v.Stats.BooksCompleted)
	assert.Equal(t, []models.DailyCount{{Date: "2024-06-01", Count: 3}}, v.Series)

	n, err = ta.MarkAllReadToday(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	msg, _ = ta.sink.Last()
	assert.Equal(t, notify.Message{Level: notify.Info, Text: "All chapters have already been read!"}, msg)

	ta.sink.Reset()
	n, err = ta.MarkAllReadToday(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, ta.sink.Messages())
}

func TestApp_DailyGoal(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	b, _ := ta.AddBook(ctx, fields("Dune", models.GenreSciFi, 5))

	require.Error(t, ta.SetDailyGoal(ctx, 0))
	msg, _ := ta.sink.Last()
	assert.Equal(t, "Please enter a valid daily goal (minimum 1 chapter).", msg.Text)

	require.NoError(t, ta.SetDailyGoal(ctx, 2))
	require.NoError(t, ta.ToggleChapter(ctx, b.ID, 0, true))
	assert.False(t, ta.View().Stats.GoalAchieved)
	require.NoError(t, ta.ToggleChapter(ctx, b.ID, 1, true))

	v := ta.renderer.last(t)
	assert.Equal(t, 2, v.Stats.DailyGoal)
	assert.True(t, v.Stats.GoalAchieved)

	// The next day starts from zero
	ta.clock.AdvanceDays(1)
	assert.False(t, ta.View().Stats.GoalAchieved)
}

func TestApp_GenreFilterFallsBackWhenGenreDisappears(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	fantasy, _ := ta.AddBook(ctx, fields("Earthsea", models.GenreFantasy, 2))
	_, _ = ta.AddBook(ctx, fields("Gone Girl", models.GenreMystery, 2))

	ta.SetFilter(view.Filter{Status: view.StatusAll, Genre: "fantasy"})
	v := ta.renderer.last(t)
	assert.Equal(t, "fantasy", v.Filter.Genre)
	require.Len(t, v.Books, 1)

	require.NoError(t, ta.DeleteBook(ctx, fantasy.ID))
	v = ta.renderer.last(t)
	assert.Equal(t, view.All, v.Filter.Genre)
	assert.Len(t, v.Books, 1)
}

func TestApp_ReorderKeepsHiddenBooks(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	a, _ := ta.AddBook(ctx, fields("A", models.GenreFantasy, 1))
	b, _ := ta.AddBook(ctx, fields("B", models.GenreMystery, 1))
	c, _ := ta.AddBook(ctx, fields("C", models.GenreFantasy, 1))

	ta.SetFilter(view.Filter{Genre: "fantasy"})
	require.NoError(t, ta.Reorder(ctx, []string{c.ID, a.ID}))

	var order []string
	for _, book := range ta.Books() {
		order = append(order, book.ID)
	}
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, order)
}

func TestApp_StorageFailureWarnsAndRetries(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()

	ta.db.FailWrites(errors.New("quota exceeded"))
	b, err := ta.AddBook(ctx, fields("Dune", models.GenreSciFi, 2))
	require.Error(t, err)
	var storageErr *storage.StorageError
	assert.True(t, errors.As(err, &storageErr))

	msg, _ := ta.sink.Last()
	assert.Equal(t, notify.Warning, msg.Level)
	assert.Len(t, ta.Books(), 1, "the book is kept in memory")
	assert.Equal(t, 1, ta.Pending())

	ta.db.FailWrites(nil)
	require.NoError(t, ta.Flush(ctx))
	assert.Equal(t, 0, ta.Pending())

	reopened := openTestApp(t, ta.db)
	got, err := reopened.Book(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}

func TestApp_RestartAndFavorite(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	a, _ := ta.AddBook(ctx, fields("Zed", models.GenreOther, 2))
	b, _ := ta.AddBook(ctx, fields("Alpha", models.GenreOther, 2))

	fav, err := ta.ToggleFavorite(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, fav.Favorite)
	v := ta.renderer.last(t)
	assert.Equal(t, a.ID, v.Books[0].ID, "favorites come first")

	require.NoError(t, ta.SetFavorite(ctx, a.ID, false))
	assert.Equal(t, b.ID, ta.renderer.last(t).Books[0].ID)

	_, _ = ta.MarkAllReadToday(ctx, b.ID)
	restarted, err := ta.RestartReading(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, restarted.CurrentReadingSession)
	assert.Equal(t, 0, ta.View().Stats.BooksCompleted)
	assert.Equal(t, 2, ta.View().Stats.TodayChaptersRead, "restarting keeps today's log")
}

func TestApp_EditBook(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	b, _ := ta.AddBook(ctx, fields("Dune", models.GenreSciFi, 4))
	_, _ = ta.MarkAllReadToday(ctx, b.ID)

	edited, err := ta.EditBook(ctx, b.ID, fields("Dune Messiah", models.GenreSciFi, 2))
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", edited.Title)
	assert.Equal(t, []int{1, 2}, edited.ReadChapters)
	assert.True(t, edited.IsCompleted())

	_, err = ta.EditBook(ctx, "missing", fields("X", models.GenreSciFi, 1))
	assert.NoError(t, err)
}

func TestApp_Reset(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	b, _ := ta.AddBook(ctx, fields("Dune", models.GenreSciFi, 2))
	_, _ = ta.MarkAllReadToday(ctx, b.ID)
	_ = ta.SetDailyGoal(ctx, 3)
	ta.SetFilter(view.Filter{Status: view.StatusCompleted, Genre: "sci-fi"})

	require.NoError(t, ta.Reset(ctx))

	assert.Empty(t, ta.db.Keys())
	v := ta.renderer.last(t)
	assert.Empty(t, v.Books)
	assert.Empty(t, v.Series)
	assert.Equal(t, view.DefaultFilter(), v.Filter)
	assert.Equal(t, 0, v.Stats.DailyGoal)
}

func TestApp_Close(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, ta.Close())
}
