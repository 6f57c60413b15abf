package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"readtrack/internal/clock"
	"readtrack/internal/config"
	"readtrack/internal/cover"
	"readtrack/internal/ids"
	"readtrack/internal/library"
	"readtrack/internal/models"
	"readtrack/internal/notify"
	"readtrack/internal/progress"
	"readtrack/internal/session"
	"readtrack/internal/stats"
	"readtrack/internal/storage"
	"readtrack/internal/view"
)

// View is everything a front end needs to draw the library
type View struct {
	Books  []models.Book
	Filter view.Filter
	Genres []models.Genre
	Stats  stats.Snapshot
	Series []models.DailyCount
}

// Renderer draws a fresh view after every change
type Renderer interface {
	Render(v View)
}

// Deps are the collaborators of an App
type Deps struct {
	DB       storage.Storage
	Clock    clock.Clock
	IDs      ids.Generator
	Sink     notify.Sink
	Renderer Renderer
	Cover    *cover.Encoder
	Logger   *zap.Logger

	MaxDaysHistory int
}

// App owns the reading tracker state: the book collection, the daily log,
// the current filter and the store behind them. It is driven by a single
// caller and is not safe for concurrent use.
type App struct {
	db       *storage.WriteThrough
	books    *library.Repository
	tracker  *progress.Tracker
	sessions *session.Manager
	sink     notify.Sink
	renderer Renderer
	cover    *cover.Encoder
	logger   *zap.Logger

	filter view.Filter
}

// New creates an application from the environment: .env file, config,
// logger and storage backend
func New(renderer Renderer, sink notify.Sink) (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	db, err := OpenStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	a, err := Open(context.Background(), Deps{
		DB:             db,
		Clock:          clock.System{},
		IDs:            ids.UUID{},
		Sink:           notify.Multi{sink, notify.NewLogger(logger)},
		Renderer:       renderer,
		Cover:          cover.NewEncoder(cfg.CoverMaxBytes, cfg.CoverMaxDimension, logger),
		Logger:         logger,
		MaxDaysHistory: cfg.MaxDaysHistory,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// Open initializes the store and loads the saved state
func Open(ctx context.Context, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}
	gen := deps.IDs
	if gen == nil {
		gen = ids.UUID{}
	}
	sink := deps.Sink
	if sink == nil {
		sink = notify.NewLogger(logger)
	}
	enc := deps.Cover
	if enc == nil {
		enc = cover.NewEncoder(0, 0, logger)
	}

	if err := deps.DB.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db := storage.NewWriteThrough(deps.DB, logger)

	a := &App{
		db:       db,
		books:    library.NewRepository(db, gen, logger),
		tracker:  progress.NewTracker(db, clk, deps.MaxDaysHistory, logger),
		sink:     sink,
		renderer: deps.Renderer,
		cover:    enc,
		logger:   logger,
		filter:   view.DefaultFilter(),
	}
	a.sessions = session.NewManager(a.books, a.tracker, clk, logger)

	if err := a.books.Load(ctx); err != nil {
		return nil, err
	}
	if err := a.tracker.Load(ctx); err != nil {
		return nil, err
	}

	logger.Info("Library loaded",
		zap.Int("books", a.books.Len()),
		zap.Int("today", a.tracker.TodayCount()),
	)
	return a, nil
}

// report surfaces err through the sink and returns it unchanged
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}

	var validationErr *models.ValidationError
	var storageErr *storage.StorageError
	switch {
	case errors.As(err, &validationErr):
		a.sink.Notify(notify.Error, validationErr.Message)
	case errors.As(err, &storageErr):
		a.logger.Warn("Changes not saved", zap.Error(err))
		a.sink.Notify(notify.Warning, "Could not save your changes, they will be retried: "+storageErr.Err.Error())
	default:
		a.logger.Error("Operation failed", zap.Error(err))
		a.sink.Notify(notify.Error, err.Error())
	}
	return err
}

func (a *App) render() {
	if a.renderer != nil {
		a.renderer.Render(a.View())
	}
}

// View computes the current view from the state
func (a *App) View() View {
	all := a.books.List()
	genres := view.AvailableGenres(all)
	a.filter.Genre = view.ResolveGenreFilter(a.filter.Genre, genres)
	goal, _ := a.tracker.Goal()

	return View{
		Books:  view.VisibleBooks(all, a.filter),
		Filter: a.filter,
		Genres: genres,
		Stats:  stats.Compute(all, a.tracker.TodayCount(), goal),
		Series: a.tracker.Series(),
	}
}

// Books returns every book in collection order
func (a *App) Books() []models.Book {
	return a.books.List()
}

// Book returns the book with the given id
func (a *App) Book(id string) (models.Book, error) {
	return a.books.Get(id)
}

// EncodeCover turns the image at path into a cover reference
func (a *App) EncodeCover(path string) (string, error) {
	uri, err := a.cover.EncodeFile(path)
	if errors.Is(err, cover.ErrTooLarge) {
		a.sink.Notify(notify.Error, "Image size is too large. Please choose an image under "+sizeLabel(a.cover.MaxBytes)+".")
		return "", err
	}
	return uri, a.report(err)
}

func sizeLabel(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return strconv.FormatInt(n/mib, 10) + "MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}

// AddBook validates and adds a book
func (a *App) AddBook(ctx context.Context, fields library.BookFields) (models.Book, error) {
	b, err := a.books.Create(ctx, fields)
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return models.Book{}, a.report(err)
	}
	a.render()
	return b, a.report(err)
}

// EditBook validates and applies new fields to a book
func (a *App) EditBook(ctx context.Context, id string, fields library.BookFields) (models.Book, error) {
	b, found, err := a.books.Update(ctx, id, fields)
	if found {
		a.render()
	}
	return b, a.report(err)
}

// DeleteBook removes a book
func (a *App) DeleteBook(ctx context.Context, id string) error {
	found, err := a.books.Delete(ctx, id)
	if found {
		a.render()
	}
	return a.report(err)
}

// SetFavorite sets the favorite flag of a book
func (a *App) SetFavorite(ctx context.Context, id string, favorite bool) error {
	_, found, err := a.books.SetFavorite(ctx, id, favorite)
	if found {
		a.render()
	}
	return a.report(err)
}

// ToggleFavorite flips the favorite flag of a book
func (a *App) ToggleFavorite(ctx context.Context, id string) (models.Book, error) {
	b, found, err := a.books.ToggleFavorite(ctx, id)
	if found {
		a.render()
	}
	return b, a.report(err)
}

// Reorder moves the listed books into the given order
func (a *App) Reorder(ctx context.Context, order []string) error {
	err := a.books.Reorder(ctx, order)
	a.render()
	return a.report(err)
}

// ToggleChapter sets the completion of the chapter at the 0-based index
func (a *App) ToggleChapter(ctx context.Context, id string, index int, completed bool) error {
	changed, err := a.sessions.ToggleChapter(ctx, id, index, completed)
	if changed {
		a.render()
	}
	return a.report(err)
}

// MarkAllReadToday completes every unread chapter of a book
func (a *App) MarkAllReadToday(ctx context.Context, id string) (int, error) {
	if _, err := a.books.Get(id); err != nil {
		return 0, nil
	}

	n, err := a.sessions.MarkAllReadToday(ctx, id)
	if n == 0 && err == nil {
		a.sink.Notify(notify.Info, "All chapters have already been read!")
		return 0, nil
	}

	if n == 1 {
		a.sink.Notify(notify.Info, "Marked 1 chapter as read")
	} else {
		a.sink.Notify(notify.Info, fmt.Sprintf("Marked %d chapters as read", n))
	}
	a.render()
	return n, a.report(err)
}

// RestartReading archives the current reading session of a book
func (a *App) RestartReading(ctx context.Context, id string) (models.Book, error) {
	b, found, err := a.sessions.Restart(ctx, id)
	if found {
		a.render()
	}
	return b, a.report(err)
}

// SetDailyGoal sets the number of chapters to read per day
func (a *App) SetDailyGoal(ctx context.Context, goal int) error {
	if err := a.tracker.SetGoal(ctx, goal); err != nil {
		return a.report(err)
	}
	a.render()
	return nil
}

// SetFilter changes the list selection
func (a *App) SetFilter(filter view.Filter) {
	if filter.Status == "" {
		filter.Status = view.StatusAll
	}
	if filter.Genre == "" {
		filter.Genre = view.All
	}
	a.filter = filter
	a.render()
}

// Flush retries writes that failed earlier
func (a *App) Flush(ctx context.Context) error {
	return a.report(a.db.Flush(ctx))
}

// Pending returns the number of records waiting to be written
func (a *App) Pending() int {
	return a.db.Pending()
}

// Reset deletes every book, the daily log and the goal
func (a *App) Reset(ctx context.Context) error {
	err := errors.Join(a.books.Reset(ctx), a.tracker.Reset(ctx))
	a.filter = view.DefaultFilter()
	a.logger.Info("Library reset")
	a.render()
	return a.report(err)
}

// Close flushes pending writes and closes the store
func (a *App) Close() error {
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}
	a.logger.Debug("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
