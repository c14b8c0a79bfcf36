package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/pkg/feed"
)

func listCmd(flags *globalFlags) *cobra.Command {
	var (
		goalID string
		userID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List updates",
		Long: `List updates from one of the feed views.

Without flags the aggregate feed of every update is listed.

Examples:
  goalfeed list
  goalfeed list --goal g1
  goalfeed list --user-goals u1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return runList(cmd, s, goalID, userID)
		},
	}

	cmd.Flags().StringVar(&goalID, "goal", "", "List the recent updates of this goal")
	cmd.Flags().StringVar(&userID, "user-goals", "", "List the goals, with updates, of this user")

	return cmd
}

func runList(cmd *cobra.Command, s *session, goalID, userID string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	switch {
	case userID != "":
		v := s.feed.GoalsByUser(userID)
		defer v.Close()
		if err := v.Load(ctx); err != nil {
			return err
		}
		for _, g := range v.Data() {
			fmt.Fprintf(w, "%s  %s\n", g.ID, g.Title)
			for _, u := range g.Updates {
				printUpdate(w, u, "  ")
			}
		}
	case goalID != "":
		v := s.feed.RecentUpdates(goalID)
		defer v.Close()
		if err := v.Load(ctx); err != nil {
			return err
		}
		printUpdates(w, v.Data())
	default:
		v := s.feed.AllUpdates()
		defer v.Close()
		if err := v.Load(ctx); err != nil {
			return err
		}
		printUpdates(w, v.Data())
	}
	return nil
}

func printUpdates(w io.Writer, updates []feed.Update) {
	if len(updates) == 0 {
		info(w, "No updates yet")
		return
	}
	for _, u := range updates {
		printUpdate(w, u, "")
	}
}

func printUpdate(w io.Writer, u feed.Update, indent string) {
	liked := ""
	if u.HasLiked {
		liked = " (liked)"
	}
	fmt.Fprintf(w, "%s%s  %s: %s  [%d likes%s]\n",
		indent, u.ID, u.PostedBy.DisplayName(), oneLine(u.Description), u.Likes.Data, liked)
	for _, c := range u.Comments {
		fmt.Fprintf(w, "%s    %s  %s: %s  [%d likes]\n",
			indent, c.ID, c.PostedBy.DisplayName(), oneLine(c.Description), c.Likes.Data)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
