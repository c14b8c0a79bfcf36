package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var fe *errors.FeedError
		if stderrors.As(err, &fe) {
			fmt.Fprintln(os.Stderr, fe.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "goalfeed",
		Short: "Post, edit and like goal updates from the terminal",
		Long: `goalfeed is a client for a goal-tracking social feed.

Users post progress updates on their goals, comment on updates and like
both. Every write shows a status indicator and refreshes the cached feed
views it affects.

Configuration is read from goalfeed.json in the working directory or a
parent, then from GOALFEED_* environment variables. Run 'goalfeed env'
for the full list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to goalfeed.json")
	pf.StringVar(&flags.baseURL, "base-url", "", "Override api.baseURL")
	pf.StringVar(&flags.user, "user", "", "Act as this user id")

	rootCmd.AddCommand(
		listCmd(&flags),
		postCmd(&flags),
		commentCmd(&flags),
		editCmd(&flags),
		deleteCmd(&flags),
		likeCmd(&flags),
		watchCmd(&flags),
		envCmd(),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
