package models

import (
	"math"
	"time"
)

// Genre is one of the fixed book categories
type Genre string

const (
	GenreFantasy    Genre = "fantasy"
	GenreSciFi      Genre = "sci-fi"
	GenreMystery    Genre = "mystery"
	GenreRomance    Genre = "romance"
	GenreBiography  Genre = "biography"
	GenreNonFiction Genre = "non-fiction"
	GenreOther      Genre = "other"
)

// Genres lists every known genre in display order
var Genres = []Genre{
	GenreFantasy,
	GenreSciFi,
	GenreMystery,
	GenreRomance,
	GenreBiography,
	GenreNonFiction,
	GenreOther,
}

var genreNames = map[Genre]string{
	GenreFantasy:    "Fantasy",
	GenreSciFi:      "Science Fiction",
	GenreMystery:    "Mystery/Thriller",
	GenreRomance:    "Romance",
	GenreBiography:  "Biography",
	GenreNonFiction: "Non-Fiction",
	GenreOther:      "Other",
}

// IsValid reports whether g is one of the known genres
func (g Genre) IsValid() bool {
	_, ok := genreNames[g]
	return ok
}

// DisplayName returns the human readable genre name.
// Unknown values are returned as is.
func (g Genre) DisplayName() string {
	if name, ok := genreNames[g]; ok {
		return name
	}
	return string(g)
}

// Chapter holds the completion flag of a single chapter
type Chapter struct {
	Completed bool `json:"completed"`
}

// HistoryEntry is an archived reading session
type HistoryEntry struct {
	Session       int       `json:"session"`
	CompletedDate time.Time `json:"completedDate"`
	ReadChapters  []int     `json:"readChapters"`
}

// Book represents a tracked book.
// Chapters is canonical; ReadChapters is always derived from it.
type Book struct {
	ID                    string         `json:"id"`
	Title                 string         `json:"title"`
	Author                string         `json:"author"`
	Genre                 Genre          `json:"genre,omitempty"`
	TotalChapters         int            `json:"totalChapters"`
	CoverImage            string         `json:"coverImage,omitempty"`
	Favorite              bool           `json:"favorite"`
	Chapters              []Chapter      `json:"chapters"`
	ReadChapters          []int          `json:"readChapters"`
	ReadingHistory        []HistoryEntry `json:"readingHistory"`
	CurrentReadingSession int            `json:"currentReadingSession"`
}

// Status is the derived reading state of a book
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// SyncReadChapters rebuilds ReadChapters from Chapters
func (b *Book) SyncReadChapters() {
	read := make([]int, 0, len(b.Chapters))
	for i, ch := range b.Chapters {
		if ch.Completed {
			read = append(read, i+1)
		}
	}
	b.ReadChapters = read
}

// ReadCount returns the number of completed chapters
func (b Book) ReadCount() int {
	return len(b.ReadChapters)
}

// Status derives the reading state from the chapter counts
func (b Book) Status() Status {
	read := b.ReadCount()
	switch {
	case read == 0:
		return StatusNotStarted
	case b.TotalChapters > 0 && read == b.TotalChapters:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// IsCompleted reports whether every chapter has been read
func (b Book) IsCompleted() bool {
	return b.TotalChapters > 0 && b.ReadCount() == b.TotalChapters
}

// ProgressPercent returns the rounded completion percentage
func (b Book) ProgressPercent() int {
	if b.TotalChapters <= 0 {
		return 0
	}
	return int(math.Round(float64(b.ReadCount()) * 100 / float64(b.TotalChapters)))
}

// Clone returns a deep copy of the book
func (b Book) Clone() Book {
	out := b
	out.Chapters = make([]Chapter, len(b.Chapters))
	copy(out.Chapters, b.Chapters)
	out.ReadChapters = copyInts(b.ReadChapters)
	out.ReadingHistory = make([]HistoryEntry, len(b.ReadingHistory))
	for i, h := range b.ReadingHistory {
		h.ReadChapters = copyInts(h.ReadChapters)
		out.ReadingHistory[i] = h
	}
	return out
}

func copyInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}

// DailyEntry is one day of the reading log
type DailyEntry struct {
	Count    int      `json:"count"`
	Chapters []string `json:"chapters"`
}

// DailyCount is one point of the daily progress series
type DailyCount struct {
	Date  string
	Count int
}
