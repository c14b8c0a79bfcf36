package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/pkg/editable"
)

func postCmd(flags *globalFlags) *cobra.Command {
	var (
		goalID    string
		aggregate bool
	)

	cmd := &cobra.Command{
		Use:   "post <text>",
		Short: "Post an update on a goal",
		Long: `Post a progress update on one of your goals.

Examples:
  goalfeed post --goal g1 "ran 10k this morning"
  goalfeed post --goal g1 --feed "finished chapter one"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			return runPost(cmd, s, goalID, aggregate, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&goalID, "goal", "", "Goal to post on (required)")
	cmd.Flags().BoolVar(&aggregate, "feed", false, "Post from the aggregate feed, refreshing it too")
	cmd.MarkFlagRequired("goal")

	return cmd
}

func runPost(cmd *cobra.Command, s *session, goalID string, aggregate bool, text string) error {
	var opts []editable.Option
	if aggregate {
		opts = append(opts, editable.FromAggregateFeed())
	}

	c := s.feed.UpdateComposer(goalID, s.viewer, nil, opts...)
	c.OnPosted(func(it editable.Item) {
		info(s.out, "update id: %s", it.Ref.ID)
	})
	if _, err := c.Submit(cmd.Context(), text); err != nil {
		s.close()
		return err
	}
	return s.finish()
}

func commentCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <update-id> <text>",
		Short: "Comment on an update",
		Long: `Comment on an update from the aggregate feed.

Examples:
  goalfeed comment 42 "great pace!"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			return runComment(cmd, s, args[0], strings.Join(args[1:], " "))
		},
	}
	return cmd
}

func runComment(cmd *cobra.Command, s *session, updateID, text string) error {
	ctx := cmd.Context()
	u, err := s.feed.FindUpdate(ctx, updateID)
	if err != nil {
		s.close()
		return err
	}

	c := s.feed.CommentComposer(u, s.viewer, nil, editable.WithList(u.CommentItems()), editable.FromAggregateFeed())
	c.OnPosted(func(it editable.Item) {
		info(s.out, "comment id: %s", it.Ref.ID)
	})
	if _, err := c.Submit(ctx, text); err != nil {
		s.close()
		return err
	}
	return s.finish()
}
