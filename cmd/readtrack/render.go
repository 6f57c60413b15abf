package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	gloss "github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"readtrack/internal/app"
	"readtrack/internal/models"
	"readtrack/internal/stats"
)

const (
	titleWidth  = 32
	authorWidth = 20
	barWidth    = 10
	chartWidth  = 40
	shortIDLen  = 8
)

var (
	headingStyle  = gloss.NewStyle().Bold(true).Foreground(gloss.Color("#89b4fa"))
	favoriteStyle = gloss.NewStyle().Foreground(gloss.Color("#f9e2af"))
	barStyle      = gloss.NewStyle().Foreground(gloss.Color("#a6e3a1"))
	mutedStyle    = gloss.NewStyle().Foreground(gloss.Color("#6c7086"))
	goalMetStyle  = gloss.NewStyle().Bold(true).Foreground(gloss.Color("#a6e3a1"))
)

// summaryRenderer prints a one line summary after every change
type summaryRenderer struct {
	w io.Writer
}

func (r *summaryRenderer) Render(v app.View) {
	fmt.Fprintln(r.w, mutedStyle.Render(summaryLine(v.Stats)))
}

func summaryLine(s stats.Snapshot) string {
	parts := []string{
		plural(s.TotalBooks, "book", "books"),
		fmt.Sprintf("%d in progress", s.BooksInProgress),
		fmt.Sprintf("%d completed", s.BooksCompleted),
	}
	today := fmt.Sprintf("today %d", s.TodayChaptersRead)
	if s.DailyGoal > 0 {
		today += fmt.Sprintf("/%d", s.DailyGoal)
		if s.GoalAchieved {
			today += " goal reached"
		}
	}
	return strings.Join(append(parts, today), " | ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func genreName(g models.Genre) string {
	if g == "" {
		return "-"
	}
	return g.DisplayName()
}

func printBookTable(w io.Writer, books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found. Add one with: readtrack add")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tTITLE\tAUTHOR\tGENRE\tPROGRESS\tSTATUS")
	for _, b := range books {
		fav := ""
		if b.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %3d%%\t%s\n",
			shortID(b.ID),
			fav,
			runewidth.Truncate(b.Title, titleWidth, "..."),
			runewidth.Truncate(b.Author, authorWidth, "..."),
			genreName(b.Genre),
			progressBar(b.ProgressPercent(), barWidth),
			b.ProgressPercent(),
			b.Status(),
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal: %s\n", plural(len(books), "book", "books"))
}

func printBook(w io.Writer, b models.Book) {
	title := b.Title
	if b.Favorite {
		title = favoriteStyle.Render("* ") + title
	}
	fmt.Fprintln(w, headingStyle.Render(title))
	fmt.Fprintf(w, "by %s\n\n", b.Author)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", b.ID)
	fmt.Fprintf(tw, "Genre:\t%s\n", genreName(b.Genre))
	fmt.Fprintf(tw, "Progress:\t%d/%d chapters (%d%%)\n", b.ReadCount(), b.TotalChapters, b.ProgressPercent())
	fmt.Fprintf(tw, "Status:\t%s\n", b.Status())
	fmt.Fprintf(tw, "Session:\t%d\n", b.CurrentReadingSession)
	if b.CoverImage != "" {
		fmt.Fprintf(tw, "Cover:\t%s\n", humanBytes(len(b.CoverImage)))
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Chapters"))
	fmt.Fprintln(w, chapterGrid(b.Chapters, 10))

	if len(b.ReadingHistory) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Reading history"))
		for _, h := range b.ReadingHistory {
			fmt.Fprintf(w, "  session %d, finished %s: %s read\n",
				h.Session,
				h.CompletedDate.Local().Format("2006-01-02"),
				plural(len(h.ReadChapters), "chapter", "chapters"),
			)
		}
	}
}

// chapterGrid lays chapters out in rows of perRow, [x] for read ones
func chapterGrid(chapters []models.Chapter, perRow int) string {
	var sb strings.Builder
	for i, ch := range chapters {
		if i > 0 && i%perRow == 0 {
			sb.WriteByte('\n')
		} else if i > 0 {
			sb.WriteByte(' ')
		}
		mark := " "
		if ch.Completed {
			mark = "x"
		}
		fmt.Fprintf(&sb, "%3d[%s]", i+1, mark)
	}
	return sb.String()
}

func humanBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func printStats(w io.Writer, s stats.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Books:\t%d\n", s.TotalBooks)
	fmt.Fprintf(tw, "Chapters read:\t%d\n", s.TotalChaptersRead)
	fmt.Fprintf(tw, "In progress:\t%d\n", s.BooksInProgress)
	fmt.Fprintf(tw, "Completed:\t%d\n", s.BooksCompleted)
	fmt.Fprintf(tw, "Read today:\t%d\n", s.TodayChaptersRead)
	tw.Flush()
	printGoal(w, s)
}

func printGoal(w io.Writer, s stats.Snapshot) {
	if s.DailyGoal <= 0 {
		fmt.Fprintln(w, "No daily goal set. Set one with: readtrack goal <chapters>")
		return
	}
	line := fmt.Sprintf("Daily goal: %d/%d chapters %s", s.TodayChaptersRead, s.DailyGoal, progressBar(s.GoalProgress(), barWidth))
	if s.GoalAchieved {
		line += " " + goalMetStyle.Render("goal reached!")
	}
	fmt.Fprintln(w, line)
}

// printChart draws one horizontal bar per retained day, labelled MM/DD
func printChart(w io.Writer, series []models.DailyCount) {
	if len(series) == 0 {
		fmt.Fprintln(w, "No reading recorded yet.")
		return
	}

	peak := 0
	for _, d := range series {
		if d.Count > peak {
			peak = d.Count
		}
	}

	fmt.Fprintln(w, headingStyle.Render("Chapters read"))
	for _, d := range series {
		length := 0
		if peak > 0 {
			length = d.Count * chartWidth / peak
		}
		if d.Count > 0 && length == 0 {
			length = 1
		}
		fmt.Fprintf(w, "%s %s %d\n", chartLabel(d.Date), barStyle.Render(strings.Repeat("█", length)), d.Count)
	}
}

func chartLabel(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[1] + "/" + parts[2]
}
