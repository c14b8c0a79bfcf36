package feed

import (
	"time"

	"github.com/vango-dev/goalfeed/pkg/editable"
	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/likes"
)

// Author is the user who posted an update or comment.
type Author struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Image    string   `json:"image,omitempty"`
	Account  *Account `json:"account,omitempty"`
}

// Account is the optional profile of an Author.
type Account struct {
	FirstName string `json:"firstName,omitempty"`
}

// DisplayName returns the first name when the profile has one.
func (a Author) DisplayName() string {
	if a.Account != nil && a.Account.FirstName != "" {
		return a.Account.FirstName
	}
	return a.Username
}

// Count wraps a server-side aggregate.
type Count struct {
	Data int `json:"data"`
}

// Comment is a comment rendered inline under an update.
type Comment struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	PostedBy    Author `json:"postedBy"`
	CreatedAt   int64  `json:"createdAt"`
	Likes       Count  `json:"likes"`
	HasLiked    bool   `json:"hasLiked"`
}

// Ref returns the entity reference of c.
func (c Comment) Ref() entity.Ref {
	return entity.NewRef(entity.KindComment, c.ID)
}

// PostedOn returns CreatedAt, which is in milliseconds, as a time.
func (c Comment) PostedOn() time.Time {
	return time.UnixMilli(c.CreatedAt)
}

// LikeState returns the server-supplied like counter.
func (c Comment) LikeState() likes.State {
	return likes.State{Count: c.Likes.Data, Engaged: c.HasLiked}
}

// Item returns the editable rendering of c under update u.
func (c Comment) Item(u Update) editable.Item {
	return editable.Item{
		Ref:      c.Ref(),
		AuthorID: c.PostedBy.ID,
		Text:     c.Description,
		GoalID:   u.GoalID,
		UpdateID: u.ID,
	}
}

// Update is a progress post on a goal.
type Update struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	GoalID      string    `json:"goalId"`
	PostedBy    Author    `json:"postedBy"`
	CreatedAt   int64     `json:"createdAt"`
	Likes       Count     `json:"likes"`
	HasLiked    bool      `json:"hasLiked"`
	Comments    []Comment `json:"comments,omitempty"`
}

// Ref returns the entity reference of u.
func (u Update) Ref() entity.Ref {
	return entity.NewRef(entity.KindUpdate, u.ID)
}

// PostedOn returns CreatedAt as a time.
func (u Update) PostedOn() time.Time {
	return time.UnixMilli(u.CreatedAt)
}

// LikeState returns the server-supplied like counter.
func (u Update) LikeState() likes.State {
	return likes.State{Count: u.Likes.Data, Engaged: u.HasLiked}
}

// Item returns the editable rendering of u.
func (u Update) Item() editable.Item {
	return editable.Item{
		Ref:      u.Ref(),
		AuthorID: u.PostedBy.ID,
		Text:     u.Description,
		GoalID:   u.GoalID,
	}
}

// CommentItems returns the comments of u as an editable list.
func (u Update) CommentItems() *editable.List {
	items := make([]editable.Item, 0, len(u.Comments))
	for _, c := range u.Comments {
		items = append(items, c.Item(u))
	}
	return editable.NewList(items...)
}

// Goal is a goal together with its updates, as listed on a user's page.
type Goal struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Updates []Update `json:"updates,omitempty"`
}
