package editable

import "github.com/vango-dev/goalfeed/pkg/entity"

// Messages are the status indicator texts of one operation.
type Messages struct {
	Pending string
	Success string
}

var messages = map[entity.Pair]Messages{
	{Kind: entity.KindUpdate, Op: entity.OpCreate}:  {"Posting your update...", "Posted your update!!"},
	{Kind: entity.KindUpdate, Op: entity.OpEdit}:    {"Posting your update...", "You have successfully edited the update."},
	{Kind: entity.KindUpdate, Op: entity.OpDelete}:  {"Deleting your update...", "Deleted your update!!"},
	{Kind: entity.KindComment, Op: entity.OpCreate}: {"Posting your comment...", "Posted your comment!!"},
	{Kind: entity.KindComment, Op: entity.OpEdit}:   {"Updating your comment...", "You have successfully edited the comment."},
	{Kind: entity.KindComment, Op: entity.OpDelete}: {"Deleting your comment...", "Deleted your comment!!"},
}

// MessagesFor returns the indicator texts for p.
func MessagesFor(p entity.Pair) Messages {
	if m, ok := messages[p]; ok {
		return m
	}
	return Messages{Pending: "Saving...", Success: "Saved!"}
}
