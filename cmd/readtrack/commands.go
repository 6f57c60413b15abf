package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"readtrack/internal/app"
	"readtrack/internal/library"
	"readtrack/internal/models"
	"readtrack/internal/view"
)

var errNeedsConfirmation = errors.New("this cannot be undone, pass --yes to confirm")

// resolveID accepts a full book id or an unambiguous prefix of one
func resolveID(a *app.App, arg string) (string, error) {
	var matches []string
	for _, b := range a.Books() {
		if b.ID == arg {
			return b.ID, nil
		}
		if strings.HasPrefix(b.ID, arg) {
			matches = append(matches, b.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("book %s: %w", arg, models.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("book id %q is ambiguous (%d matches)", arg, len(matches))
	}
}

// chapterArg parses a 1-based chapter number into a chapter index
func chapterArg(b models.Book, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid chapter number %q", arg)
	}
	if n < 1 || n > b.TotalChapters {
		return 0, fmt.Errorf("chapter must be between 1 and %d", b.TotalChapters)
	}
	return n - 1, nil
}

func addCmd() *cobra.Command {
	var f library.BookFields
	var genre, coverPath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new book to your collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			f.Genre = models.Genre(genre)
			if coverPath != "" {
				if f.CoverImage, err = a.EncodeCover(coverPath); err != nil {
					return reported(err)
				}
			}

			b, err := a.AddBook(context.Background(), f)
			if b.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Added: %s by %s (ID: %s)\n", b.Title, b.Author, b.ID)
			}
			return reported(err)
		},
	}

	cmd.Flags().StringVarP(&f.Title, "title", "t", "", "book title (required)")
	cmd.Flags().StringVarP(&f.Author, "author", "a", "", "book author (required)")
	cmd.Flags().IntVarP(&f.TotalChapters, "chapters", "c", 0, "number of chapters (required)")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "genre: "+genreList())
	cmd.Flags().StringVar(&coverPath, "cover", "", "path to a cover image (PNG, JPEG or GIF)")
	cmd.Flags().BoolVar(&f.PreviouslyRead, "read", false, "mark every chapter as already read")

	return cmd
}

func editCmd() *cobra.Command {
	var title, author, genre, coverPath string
	var chapters int
	var removeCover bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the details of a book, keeping its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			b, err := a.Book(id)
			if err != nil {
				return err
			}

			f := library.BookFields{
				Title:         b.Title,
				Author:        b.Author,
				TotalChapters: b.TotalChapters,
				Genre:         b.Genre,
				CoverImage:    b.CoverImage,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				f.Title = title
			}
			if flags.Changed("author") {
				f.Author = author
			}
			if flags.Changed("chapters") {
				f.TotalChapters = chapters
			}
			if flags.Changed("genre") {
				f.Genre = models.Genre(genre)
			}
			if removeCover {
				f.CoverImage = ""
			}
			if coverPath != "" {
				if f.CoverImage, err = a.EncodeCover(coverPath); err != nil {
					return reported(err)
				}
			}

			if f.TotalChapters < b.ReadCount() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: progress beyond chapter %d will be dropped\n", f.TotalChapters)
			}

			updated, err := a.EditBook(context.Background(), id, f)
			if updated.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s by %s\n", updated.Title, updated.Author)
			}
			return reported(err)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&author, "author", "a", "", "new author")
	cmd.Flags().IntVarP(&chapters, "chapters", "c", 0, "new number of chapters")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "new genre: "+genreList())
	cmd.Flags().StringVar(&coverPath, "cover", "", "path to a new cover image")
	cmd.Flags().BoolVar(&removeCover, "remove-cover", false, "remove the cover image")

	return cmd
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book and its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			b, _ := a.Book(id)
			if err := a.DeleteBook(context.Background(), id); err != nil {
				return reported(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s by %s\n", b.Title, b.Author)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func listCmd() *cobra.Command {
	var status, genre string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, favorites first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := view.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			quiet = true
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			a.SetFilter(view.Filter{Status: filter, Genre: genre})
			v := a.View()
			if genre != "" && genre != view.All && v.Filter.Genre != genre {
				fmt.Fprintf(cmd.ErrOrStderr(), "no books with genre %q, showing all genres\n", genre)
			}
			printBookTable(cmd.OutOrStdout(), v.Books)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", view.All, "all, in-progress, completed or not-started")
	cmd.Flags().StringVarP(&genre, "genre", "g", view.All, "all or a genre: "+genreList())
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a book with its chapters and reading history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			b, err := a.Book(id)
			if err != nil {
				return err
			}
			printBook(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func chapterCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id> <chapter>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			b, err := a.Book(id)
			if err != nil {
				return err
			}
			index, err := chapterArg(b, args[1])
			if err != nil {
				return err
			}
			if b.Chapters[index].Completed == completed {
				fmt.Fprintf(cmd.OutOrStdout(), "Chapter %d of %s is already %s\n", index+1, b.Title, chapterState(completed))
				return nil
			}
			return reported(a.ToggleChapter(context.Background(), id, index, completed))
		},
	}
}

func chapterState(completed bool) string {
	if completed {
		return "read"
	}
	return "unread"
}

func readCmd() *cobra.Command {
	return chapterCmd("read", "Mark a chapter as read today", true)
}

func unreadCmd() *cobra.Command {
	return chapterCmd("unread", "Mark a chapter as not read", false)
}

func readAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all <id>",
		Short: "Mark every unread chapter of a book as read today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			_, err = a.MarkAllReadToday(context.Background(), id)
			return reported(err)
		},
	}
}

func restartCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restart <id>",
		Short: "Start reading a book again, archiving the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			b, err := a.RestartReading(context.Background(), id)
			if b.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Started reading session %d of %s\n", b.CurrentReadingSession, b.Title)
			}
			return reported(err)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the restart")
	return cmd
}

func favoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveID(a, args[0])
			if err != nil {
				return err
			}
			b, err := a.ToggleFavorite(context.Background(), id)
			if b.ID != "" {
				if b.Favorite {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", b.Title)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", b.Title)
				}
			}
			return reported(err)
		},
	}
}

func reorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Put the given books in this order; other books keep their place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			order := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := resolveID(a, arg)
				if err != nil {
					return err
				}
				order = append(order, id)
			}
			return reported(a.Reorder(context.Background(), order))
		},
	}
}

func goalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goal [chapters]",
		Short: "Show or set the daily reading goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 0 {
				printGoal(cmd.OutOrStdout(), a.View().Stats)
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil {
				n = 0
			}
			if err := a.SetDailyGoal(context.Background(), n); err != nil {
				return reported(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daily goal set to %d chapters\n", n)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			printStats(cmd.OutOrStdout(), a.View().Stats)
			return nil
		},
	}
}

func chartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Show chapters read per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			printChart(cmd.OutOrStdout(), a.View().Series)
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all books, reading progress and the daily goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			quiet = true
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Reset(context.Background()); err != nil {
				return reported(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data has been reset")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func genreList() string {
	names := make([]string, len(models.Genres))
	for i, g := range models.Genres {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}
