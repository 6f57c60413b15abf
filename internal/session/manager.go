package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"readtrack/internal/clock"
	"readtrack/internal/library"
	"readtrack/internal/models"
	"readtrack/internal/progress"
)

// Manager drives the chapter completion of books and feeds the daily log.
// Each operation writes the book list and the daily log at most once.
type Manager struct {
	books   *library.Repository
	tracker *progress.Tracker
	clock   clock.Clock
	logger  *zap.Logger
}

// NewManager creates a session manager over the repository and tracker
func NewManager(books *library.Repository, tracker *progress.Tracker, clk clock.Clock, logger *zap.Logger) *Manager {
	return &Manager{
		books:   books,
		tracker: tracker,
		clock:   clk,
		logger:  logger,
	}
}

// ToggleChapter sets the completion of the chapter at the 0-based index.
// Reaching completed records the chapter in today's log. Unknown books and
// out of range indexes are ignored; changed reports whether anything moved.
func (m *Manager) ToggleChapter(ctx context.Context, bookID string, index int, completed bool) (changed bool, err error) {
	var recorded bool
	_, found, saveErr := m.books.Mutate(ctx, bookID, func(b *models.Book) bool {
		if index < 0 || index >= len(b.Chapters) {
			m.logger.Debug("Chapter index out of range",
				zap.String("book_id", bookID),
				zap.Int("index", index),
				zap.Int("chapters", len(b.Chapters)),
			)
			return false
		}
		if b.Chapters[index].Completed == completed {
			return false
		}
		b.Chapters[index].Completed = completed
		if completed {
			recorded = m.tracker.Record(b.ID, index+1)
		}
		changed = true
		return true
	})
	if !found {
		return false, nil
	}

	var progressErr error
	if recorded {
		progressErr = m.tracker.Save(ctx)
	}
	return changed, errors.Join(saveErr, progressErr)
}

// MarkAllReadToday completes every pending chapter of a book and records
// each one for today. It returns how many chapters changed.
func (m *Manager) MarkAllReadToday(ctx context.Context, bookID string) (int, error) {
	marked := 0
	recorded := false
	_, found, saveErr := m.books.Mutate(ctx, bookID, func(b *models.Book) bool {
		for i := range b.Chapters {
			if b.Chapters[i].Completed {
				continue
			}
			b.Chapters[i].Completed = true
			marked++
			if m.tracker.Record(b.ID, i+1) {
				recorded = true
			}
		}
		return marked > 0
	})
	if !found || marked == 0 {
		return 0, saveErr
	}

	var progressErr error
	if recorded {
		progressErr = m.tracker.Save(ctx)
	}
	m.logger.Info("Marked chapters as read",
		zap.String("book_id", bookID),
		zap.Int("count", marked),
	)
	return marked, errors.Join(saveErr, progressErr)
}

// Restart archives the current session of a book and starts a new one with
// every chapter unread. It is allowed at any completion level.
func (m *Manager) Restart(ctx context.Context, bookID string) (models.Book, bool, error) {
	return m.books.Mutate(ctx, bookID, func(b *models.Book) bool {
		b.SyncReadChapters()
		snapshot := make([]int, len(b.ReadChapters))
		copy(snapshot, b.ReadChapters)
		b.ReadingHistory = append(b.ReadingHistory, models.HistoryEntry{
			Session:       b.CurrentReadingSession,
			CompletedDate: m.clock.Now(),
			ReadChapters:  snapshot,
		})
		for i := range b.Chapters {
			b.Chapters[i].Completed = false
		}
		b.CurrentReadingSession++

		m.logger.Info("Reading restarted",
			zap.String("book_id", b.ID),
			zap.Int("session", b.CurrentReadingSession),
		)
		return true
	})
}
