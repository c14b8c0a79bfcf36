package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/pkg/editable"
	"github.com/vango-dev/goalfeed/pkg/entity"
)

func editCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <update|comment> <id> <text>",
		Short: "Edit one of your updates or comments",
		Long: `Replace the text of an update or comment you posted.

Examples:
  goalfeed edit update 42 "ran 12k, not 10k"
  goalfeed edit comment 7 "great pace!!"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			return runEdit(cmd, s, kind, args[1], strings.Join(args[2:], " "))
		},
	}
	return cmd
}

func runEdit(cmd *cobra.Command, s *session, kind entity.Kind, id, text string) error {
	ctx := cmd.Context()
	e, err := s.editor(ctx, kind, id)
	if err != nil {
		s.close()
		return err
	}

	if _, err := e.BeginEdit(); err != nil {
		s.close()
		return err
	}
	if _, err := e.Submit(ctx, text); err != nil {
		s.close()
		return err
	}
	return s.finish()
}

func deleteCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <update|comment> <id>",
		Short: "Delete one of your updates or comments",
		Long: `Delete an update or comment you posted.

Examples:
  goalfeed delete update 42
  goalfeed delete comment 7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			return runDelete(cmd, s, kind, args[1])
		},
	}
	return cmd
}

func runDelete(cmd *cobra.Command, s *session, kind entity.Kind, id string) error {
	ctx := cmd.Context()
	e, err := s.editor(ctx, kind, id)
	if err != nil {
		s.close()
		return err
	}
	if _, err := e.Delete(ctx); err != nil {
		s.close()
		return err
	}
	return s.finish()
}

// editor looks up id in the aggregate feed and returns its editor. Comments
// are edited inside the comment list of their update.
func (s *session) editor(ctx context.Context, kind entity.Kind, id string) (*editable.Editor, error) {
	if kind == entity.KindComment {
		c, u, err := s.feed.FindComment(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.feed.Editor(c.Item(u), s.viewer, nil,
			editable.WithList(u.CommentItems()), editable.FromAggregateFeed()), nil
	}

	u, err := s.feed.FindUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.feed.Editor(u.Item(), s.viewer, nil, editable.FromAggregateFeed()), nil
}
