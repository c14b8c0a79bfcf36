package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/likes"
)

func likeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "like <update|comment> <id>",
		Short: "Like or unlike an update or comment",
		Long: `Toggle your like on an update or comment.

Liking something you already like removes the like.

Examples:
  goalfeed like update 42
  goalfeed like comment 7`,
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
			return runLike(cmd, s, kind, args[1])
		},
	}
	return cmd
}

func runLike(cmd *cobra.Command, s *session, kind entity.Kind, id string) error {
	ctx := cmd.Context()

	var (
		subject entity.Ref
		initial likes.State
	)
	if kind == entity.KindComment {
		c, _, err := s.feed.FindComment(ctx, id)
		if err != nil {
			s.close()
			return err
		}
		subject, initial = c.Ref(), c.LikeState()
	} else {
		u, err := s.feed.FindUpdate(ctx, id)
		if err != nil {
			s.close()
			return err
		}
		subject, initial = u.Ref(), u.LikeState()
	}

	tg := s.feed.Like(subject, initial, s.viewer, nil)
	if _, err := tg.Toggle(ctx); err != nil {
		s.close()
		if errors.Is(err, likes.ErrSignInRequired) {
			// The prompter already told the user.
			return nil
		}
		return err
	}
	if err := s.finish(); err != nil {
		return err
	}

	st := tg.State()
	info(s.out, "%d likes", st.Count)
	return nil
}
