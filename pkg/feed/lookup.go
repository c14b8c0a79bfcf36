package feed

import (
	"context"

	"github.com/vango-dev/goalfeed/internal/errors"
)

// FindUpdate loads the aggregate feed and returns the update with id.
func (f *Feed) FindUpdate(ctx context.Context, id string) (Update, error) {
	updates, err := f.loadAll(ctx)
	if err != nil {
		return Update{}, err
	}
	for _, u := range updates {
		if u.ID == id {
			return u, nil
		}
	}
	return Update{}, notFound("update", id)
}

// FindComment loads the aggregate feed and returns the comment with id
// together with the update it belongs to.
func (f *Feed) FindComment(ctx context.Context, id string) (Comment, Update, error) {
	updates, err := f.loadAll(ctx)
	if err != nil {
		return Comment{}, Update{}, err
	}
	for _, u := range updates {
		for _, c := range u.Comments {
			if c.ID == id {
				return c, u, nil
			}
		}
	}
	return Comment{}, Update{}, notFound("comment", id)
}

func (f *Feed) loadAll(ctx context.Context) ([]Update, error) {
	v := f.AllUpdates()
	defer v.Close()
	if err := v.Load(ctx); err != nil {
		return nil, err
	}
	return v.Data(), nil
}

func notFound(kind, id string) error {
	return errors.New(errors.CodeNotFound).
		WithField(kind).
		WithDetail("no " + kind + " with id " + id + " in the aggregate feed")
}
