package view

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"readtrack/internal/models"
)

// All matches every book in both the status and the genre filter
const All = "all"

// StatusFilter selects books by reading status
type StatusFilter string

const (
	StatusAll        StatusFilter = All
	StatusInProgress StatusFilter = StatusFilter(models.StatusInProgress)
	StatusCompleted  StatusFilter = StatusFilter(models.StatusCompleted)
	StatusNotStarted StatusFilter = StatusFilter(models.StatusNotStarted)
)

// ParseStatusFilter accepts all, in-progress, completed and not-started
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case StatusAll, StatusInProgress, StatusCompleted, StatusNotStarted:
		return f, nil
	case "":
		return StatusAll, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", s)
	}
}

func (f StatusFilter) matches(b models.Book) bool {
	return f == StatusAll || f == "" || StatusFilter(b.Status()) == f
}

// Filter is the current list selection
type Filter struct {
	Status StatusFilter
	// Genre is All or a genre value
	Genre string
}

// DefaultFilter shows every book
func DefaultFilter() Filter {
	return Filter{Status: StatusAll, Genre: All}
}

func genreMatches(genre string, b models.Book) bool {
	return genre == All || genre == "" || string(b.Genre) == genre
}

// VisibleBooks returns the books passing the filter, favorites first and
// then by title in English collation order. Ties keep the input order.
func VisibleBooks(books []models.Book, filter Filter) []models.Book {
	return VisibleBooksIn(language.English, books, filter)
}

// VisibleBooksIn is VisibleBooks with titles collated for tag
func VisibleBooksIn(tag language.Tag, books []models.Book, filter Filter) []models.Book {
	visible := make([]models.Book, 0, len(books))
	for _, b := range books {
		if filter.Status.matches(b) && genreMatches(filter.Genre, b) {
			visible = append(visible, b)
		}
	}

	col := collate.New(tag)
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if a.Favorite != b.Favorite {
			return a.Favorite
		}
		return col.CompareString(a.Title, b.Title) < 0
	})
	return visible
}

// AvailableGenres lists the genres in use, in order of first appearance.
// Books without a genre are skipped.
func AvailableGenres(books []models.Book) []models.Genre {
	var genres []models.Genre
	seen := make(map[models.Genre]bool)
	for _, b := range books {
		if b.Genre == "" || seen[b.Genre] {
			continue
		}
		seen[b.Genre] = true
		genres = append(genres, b.Genre)
	}
	return genres
}

// ResolveGenreFilter keeps current while some book still has that genre,
// otherwise falls back to All
func ResolveGenreFilter(current string, genres []models.Genre) string {
	if current == All {
		return All
	}
	for _, g := range genres {
		if string(g) == current {
			return current
		}
	}
	return All
}
