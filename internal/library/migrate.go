package library

import "readtrack/internal/models"

// Migrate brings a stored book to the current schema:
//   - a missing chapters array is rebuilt from the legacy readChapters list
//   - chapters is sized to totalChapters
//   - the reading session counter starts at 1
//   - readChapters is recomputed from chapters
//
// Migrate does not modify b and is idempotent.
func Migrate(b models.Book) models.Book {
	out := b.Clone()
	if out.TotalChapters < 0 {
		out.TotalChapters = 0
	}

	if len(out.Chapters) == 0 && out.TotalChapters > 0 {
		out.Chapters = make([]models.Chapter, out.TotalChapters)
		for _, n := range b.ReadChapters {
			if n >= 1 && n <= out.TotalChapters {
				out.Chapters[n-1].Completed = true
			}
		}
	} else {
		out.Chapters, _ = resizeChapters(out.Chapters, out.TotalChapters)
	}

	if out.CurrentReadingSession < 1 {
		out.CurrentReadingSession = 1
	}

	out.SyncReadChapters()
	return out
}

// resizeChapters truncates or pads chapters to n entries. It returns how
// many completed chapters were cut off.
func resizeChapters(chapters []models.Chapter, n int) ([]models.Chapter, int) {
	if len(chapters) == n {
		return chapters, 0
	}
	if len(chapters) > n {
		dropped := 0
		for _, ch := range chapters[n:] {
			if ch.Completed {
				dropped++
			}
		}
		return chapters[:n:n], dropped
	}
	out := make([]models.Chapter, n)
	copy(out, chapters)
	return out, 0
}
