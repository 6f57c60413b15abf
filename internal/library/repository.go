package library

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"readtrack/internal/ids"
	"readtrack/internal/models"
	"readtrack/internal/storage"
)

// Repository is the ordered in-memory book collection. Every mutation is
// written through to the store under storage.KeyBooks.
//
// When the write fails the in-memory change is kept and the returned error
// wraps a *storage.StorageError.
type Repository struct {
	db     storage.Storage
	ids    ids.Generator
	logger *zap.Logger
	books  []*models.Book
}

// NewRepository creates an empty repository; call Load to read the store
func NewRepository(db storage.Storage, gen ids.Generator, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		ids:    gen,
		logger: logger,
	}
}

// Load replaces the collection with the stored books, migrating legacy records
func (r *Repository) Load(ctx context.Context) error {
	raw, ok, err := r.db.Get(ctx, storage.KeyBooks)
	if err != nil {
		return fmt.Errorf("failed to load books: %w", err)
	}
	r.books = nil
	if !ok || raw == "" {
		return nil
	}

	var stored []models.Book
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("failed to decode books: %w", err)
	}

	r.books = make([]*models.Book, 0, len(stored))
	for _, b := range stored {
		migrated := Migrate(b)
		r.books = append(r.books, &migrated)
	}

	r.logger.Debug("Books loaded", zap.Int("count", len(r.books)))
	return nil
}

// Save writes the whole collection to the store
func (r *Repository) Save(ctx context.Context) error {
	out := make([]models.Book, len(r.books))
	for i, b := range r.books {
		out[i] = *b
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode books: %w", err)
	}
	if err := r.db.Set(ctx, storage.KeyBooks, string(data)); err != nil {
		return fmt.Errorf("failed to save books: %w", err)
	}
	return nil
}

// List returns copies of all books in repository order
func (r *Repository) List() []models.Book {
	out := make([]models.Book, len(r.books))
	for i, b := range r.books {
		out[i] = b.Clone()
	}
	return out
}

// Len returns the number of books
func (r *Repository) Len() int {
	return len(r.books)
}

// Get returns a copy of the book with the given id
func (r *Repository) Get(id string) (models.Book, error) {
	b := r.find(id)
	if b == nil {
		return models.Book{}, fmt.Errorf("book %s: %w", id, models.ErrNotFound)
	}
	return b.Clone(), nil
}

func (r *Repository) find(id string) *models.Book {
	if i := r.indexOf(id); i >= 0 {
		return r.books[i]
	}
	return nil
}

func (r *Repository) indexOf(id string) int {
	for i, b := range r.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Create validates fields and appends a new book
func (r *Repository) Create(ctx context.Context, fields BookFields) (models.Book, error) {
	f, err := fields.Normalize()
	if err != nil {
		return models.Book{}, err
	}

	b := &models.Book{
		ID:                    r.ids.NewID(),
		Title:                 f.Title,
		Author:                f.Author,
		Genre:                 f.Genre,
		TotalChapters:         f.TotalChapters,
		CoverImage:            f.CoverImage,
		Chapters:              make([]models.Chapter, f.TotalChapters),
		ReadingHistory:        []models.HistoryEntry{},
		CurrentReadingSession: 1,
	}
	if f.PreviouslyRead {
		for i := range b.Chapters {
			b.Chapters[i].Completed = true
		}
	}
	b.SyncReadChapters()

	r.books = append(r.books, b)
	r.logger.Info("Book created",
		zap.String("book_id", b.ID),
		zap.String("title", b.Title),
		zap.Int("chapters", b.TotalChapters),
	)

	return b.Clone(), r.Save(ctx)
}

// Update replaces the editable fields of a book. Chapter progress, favorite
// flag and reading history are kept; the chapter list is cut or padded when
// the chapter count changes. found is false for unknown ids.
func (r *Repository) Update(ctx context.Context, id string, fields BookFields) (book models.Book, found bool, err error) {
	f, err := fields.Normalize()
	if err != nil {
		return models.Book{}, false, err
	}

	b := r.find(id)
	if b == nil {
		r.logger.Debug("Update of unknown book ignored", zap.String("book_id", id))
		return models.Book{}, false, nil
	}

	b.Title = f.Title
	b.Author = f.Author
	b.Genre = f.Genre
	b.CoverImage = f.CoverImage
	if f.TotalChapters != b.TotalChapters {
		var dropped int
		b.Chapters, dropped = resizeChapters(b.Chapters, f.TotalChapters)
		if dropped > 0 {
			r.logger.Info("Dropped read chapters beyond the new chapter count",
				zap.String("book_id", id),
				zap.Int("dropped", dropped),
				zap.Int("chapters", f.TotalChapters),
			)
		}
		b.TotalChapters = f.TotalChapters
	}
	b.SyncReadChapters()

	return b.Clone(), true, r.Save(ctx)
}

// Mutate applies fn to the stored book and saves when fn reports a change.
// ReadChapters is resynchronized after fn runs.
func (r *Repository) Mutate(ctx context.Context, id string, fn func(b *models.Book) bool) (book models.Book, found bool, err error) {
	b := r.find(id)
	if b == nil {
		return models.Book{}, false, nil
	}
	changed := fn(b)
	b.SyncReadChapters()
	if !changed {
		return b.Clone(), true, nil
	}
	return b.Clone(), true, r.Save(ctx)
}

// Delete removes a book. Unknown ids are ignored.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.books = append(r.books[:i], r.books[i+1:]...)
	r.logger.Info("Book deleted", zap.String("book_id", id))
	return true, r.Save(ctx)
}

// SetFavorite sets the favorite flag of a book
func (r *Repository) SetFavorite(ctx context.Context, id string, favorite bool) (models.Book, bool, error) {
	return r.Mutate(ctx, id, func(b *models.Book) bool {
		if b.Favorite == favorite {
			return false
		}
		b.Favorite = favorite
		return true
	})
}

// ToggleFavorite flips the favorite flag of a book
func (r *Repository) ToggleFavorite(ctx context.Context, id string) (models.Book, bool, error) {
	return r.Mutate(ctx, id, func(b *models.Book) bool {
		b.Favorite = !b.Favorite
		return true
	})
}

// Reorder puts the books named in order into that order. They are placed in
// the slots they already occupy, so books missing from order (for example
// hidden by a filter) keep their position. Unknown and repeated ids are
// ignored.
func (r *Repository) Reorder(ctx context.Context, order []string) error {
	position := make(map[string]int, len(r.books))
	for i, b := range r.books {
		position[b.ID] = i
	}

	var (
		picked []*models.Book
		slots  []int
	)
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		pos, ok := position[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		picked = append(picked, r.books[pos])
		slots = append(slots, pos)
	}
	if len(picked) == 0 {
		return nil
	}

	sort.Ints(slots)
	reordered := make([]*models.Book, len(r.books))
	copy(reordered, r.books)
	changed := false
	for k, pos := range slots {
		if reordered[pos] != picked[k] {
			changed = true
		}
		reordered[pos] = picked[k]
	}
	if !changed {
		return nil
	}

	r.books = reordered
	return r.Save(ctx)
}

// Reset removes every book from memory and the store
func (r *Repository) Reset(ctx context.Context) error {
	r.books = nil
	if err := r.db.Remove(ctx, storage.KeyBooks); err != nil {
		return fmt.Errorf("failed to remove books: %w", err)
	}
	return nil
}

