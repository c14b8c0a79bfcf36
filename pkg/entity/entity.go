package entity

import (
	"fmt"
	"strings"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
)

// Kind identifies the type of a mutable domain object.
type Kind int

const (
	KindUpdate Kind = iota
	KindComment
	KindLike
)

// Kinds lists every entity kind.
var Kinds = []Kind{KindUpdate, KindComment, KindLike}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUpdate:
		return "update"
	case KindComment:
		return "comment"
	case KindLike:
		return "like"
	default:
		return "unknown"
	}
}

// Operation is the kind of write a mutation performs.
type Operation int

const (
	OpCreate Operation = iota
	OpEdit
	OpDelete
	OpToggleLike
)

// String returns a human-readable name for the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpEdit:
		return "edit"
	case OpDelete:
		return "delete"
	case OpToggleLike:
		return "toggle-like"
	default:
		return "unknown"
	}
}

// Pair is an (entity kind, operation) combination.
type Pair struct {
	Kind Kind
	Op   Operation
}

func (p Pair) String() string {
	return p.Kind.String() + "/" + p.Op.String()
}

// Reachable lists every (kind, operation) pair a user action can issue.
var Reachable = []Pair{
	{KindUpdate, OpCreate},
	{KindUpdate, OpEdit},
	{KindUpdate, OpDelete},
	{KindComment, OpCreate},
	{KindComment, OpEdit},
	{KindComment, OpDelete},
	{KindLike, OpToggleLike},
}

// Ref identifies a mutable domain object. Refs are values and never change
// after construction.
type Ref struct {
	Kind Kind
	ID   string
}

// NewRef returns a reference to the entity of kind k with the given id.
func NewRef(k Kind, id string) Ref {
	return Ref{Kind: k, ID: id}
}

func (r Ref) String() string {
	if r.ID == "" {
		return r.Kind.String() + ":new"
	}
	return r.Kind.String() + ":" + r.ID
}

// Payload is the serializable body of a mutation request.
type Payload map[string]any

// String returns the string value stored under key, or "".
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p[key].(string)
	return s
}

// Descriptor is one intended write against an entity.
type Descriptor struct {
	Entity    Ref
	Operation Operation

	// Subject is the liked entity for OpToggleLike.
	Subject *Ref

	Payload Payload
}

// Pair returns the (kind, operation) of the descriptor.
func (d Descriptor) Pair() Pair {
	return Pair{Kind: d.Entity.Kind, Op: d.Operation}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s", d.Operation, d.Entity)
}

// Body builds the JSON request body: the payload plus the entity id under
// "id" when the entity already exists.
func (d Descriptor) Body() map[string]any {
	body := make(map[string]any, len(d.Payload)+1)
	for k, v := range d.Payload {
		body[k] = v
	}
	if d.Entity.ID != "" && d.Operation != OpToggleLike {
		body["id"] = d.Entity.ID
	}
	return body
}

// Validate performs the required-field checks the remote API would otherwise
// reject. It returns a ValidationFailed error; nothing is sent on failure.
func Validate(d Descriptor) error {
	switch d.Operation {
	case OpCreate, OpEdit:
		if d.Entity.Kind == KindLike {
			return ferrors.Validation("operation", d.String()+" is not supported")
		}
		if strings.TrimSpace(d.Payload.String("description")) == "" {
			return ferrors.Validation("description", requiredMessage(d.Entity.Kind))
		}
		if d.Operation == OpEdit && d.Entity.ID == "" {
			return ferrors.Validation("id", "id is required")
		}
	case OpDelete:
		if d.Entity.Kind == KindLike {
			return ferrors.Validation("operation", d.String()+" is not supported")
		}
		if d.Entity.ID == "" {
			return ferrors.Validation("id", "id is required")
		}
	case OpToggleLike:
		if d.Entity.Kind != KindLike {
			return ferrors.Validation("operation", d.String()+" is not supported")
		}
		if d.Subject == nil || d.Subject.ID == "" {
			return ferrors.Validation("subject", "a comment or update to like is required")
		}
		if d.Subject.Kind != KindComment && d.Subject.Kind != KindUpdate {
			return ferrors.Validation("subject", "only comments and updates can be liked")
		}
	default:
		return ferrors.Validation("operation", "unknown operation")
	}
	return nil
}

func requiredMessage(k Kind) string {
	if k == KindComment {
		return "Comment is required!!!"
	}
	return "Update is required!!!"
}
