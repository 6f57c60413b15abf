package library

import (
	"strings"

	"readtrack/internal/models"
)

// BookFields are the user editable parts of a book
type BookFields struct {
	Title         string
	Author        string
	TotalChapters int
	Genre         models.Genre
	CoverImage    string
	// PreviouslyRead marks every chapter read on creation. Ignored by Update.
	PreviouslyRead bool
}

// Normalize trims the fields and checks them in form order: title, author,
// chapter count, genre. The first invalid field is reported.
func (f BookFields) Normalize() (BookFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.CoverImage = strings.TrimSpace(f.CoverImage)

	if f.Title == "" {
		return f, models.NewValidationError(models.FieldTitle, "Please enter a book title.")
	}
	if f.Author == "" {
		return f, models.NewValidationError(models.FieldAuthor, "Please enter an author name.")
	}
	if f.TotalChapters < 1 {
		return f, models.NewValidationError(models.FieldChapters, "Please enter a valid number of chapters (minimum 1).")
	}
	if f.Genre == "" {
		return f, models.NewValidationError(models.FieldGenre, "Please select a genre.")
	}
	if !f.Genre.IsValid() {
		return f, models.NewValidationError(models.FieldGenre, "Unknown genre "+string(f.Genre)+".")
	}
	return f, nil
}
