package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readtrack/internal/app"
	"readtrack/internal/notify"
)

var quiet bool

// errReported marks errors the notification sink already printed
var errReported = errors.New("reported")

func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errReported, err)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "readtrack",
		Short: "Track the books you read, chapter by chapter",
		Long: `readtrack keeps your reading list, the chapters you have read and a
daily reading goal. Storage, logging and limits are configured through
environment variables or a .env file (STORAGE_BACKEND, SQLITE_PATH, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary line after changes")

	rootCmd.AddCommand(
		addCmd(),
		editCmd(),
		deleteCmd(),
		listCmd(),
		showCmd(),
		readCmd(),
		unreadCmd(),
		readAllCmd(),
		restartCmd(),
		favoriteCmd(),
		reorderCmd(),
		goalCmd(),
		statsCmd(),
		chartCmd(),
		resetCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// openApp starts the application with output going to the command streams.
// The returned cleanup flushes and closes the store.
func openApp(cmd *cobra.Command) (*app.App, func(), error) {
	var renderer app.Renderer
	if !quiet {
		renderer = &summaryRenderer{w: cmd.OutOrStdout()}
	}

	a, err := app.New(renderer, notify.NewWriter(cmd.OutOrStdout()))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error closing database:", err)
		}
	}
	return a, cleanup, nil
}
