package entity

import (
	"errors"
	"testing"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
)

func TestValidate(t *testing.T) {
	comment := NewRef(KindComment, "c1")

	tests := []struct {
		name      string
		d         Descriptor
		wantField string
	}{
		{
			name: "create update ok",
			d:    Descriptor{Entity: NewRef(KindUpdate, ""), Operation: OpCreate, Payload: Payload{"description": "ran 5k", "goalId": "g1"}},
		},
		{
			name:      "create update blank description",
			d:         Descriptor{Entity: NewRef(KindUpdate, ""), Operation: OpCreate, Payload: Payload{"description": "  \n"}},
			wantField: "description",
		},
		{
			name:      "edit comment without id",
			d:         Descriptor{Entity: NewRef(KindComment, ""), Operation: OpEdit, Payload: Payload{"description": "x"}},
			wantField: "id",
		},
		{
			name: "delete comment ok",
			d:    Descriptor{Entity: comment, Operation: OpDelete},
		},
		{
			name:      "delete like rejected",
			d:         Descriptor{Entity: NewRef(KindLike, "l1"), Operation: OpDelete},
			wantField: "operation",
		},
		{
			name: "toggle like ok",
			d:    Descriptor{Entity: NewRef(KindLike, "c1"), Operation: OpToggleLike, Subject: &comment},
		},
		{
			name:      "toggle like without subject",
			d:         Descriptor{Entity: NewRef(KindLike, "c1"), Operation: OpToggleLike},
			wantField: "subject",
		},
		{
			name:      "toggle like on update entity",
			d:         Descriptor{Entity: NewRef(KindUpdate, "u1"), Operation: OpToggleLike, Subject: &comment},
			wantField: "operation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.d)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ferrors.ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ValidationFailed", err)
			}
			var fe *ferrors.FeedError
			errors.As(err, &fe)
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
			}
		})
	}
}

func TestValidateRequiredMessage(t *testing.T) {
	err := Validate(Descriptor{Entity: NewRef(KindUpdate, "u1"), Operation: OpEdit})
	var fe *ferrors.FeedError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FeedError, got %v", err)
	}
	if fe.Detail != "Update is required!!!" {
		t.Errorf("Detail = %q", fe.Detail)
	}
}

func TestDescriptorBody(t *testing.T) {
	d := Descriptor{
		Entity:    NewRef(KindUpdate, "u1"),
		Operation: OpEdit,
		Payload:   Payload{"description": "new text"},
	}
	body := d.Body()
	if body["id"] != "u1" || body["description"] != "new text" {
		t.Errorf("Body() = %#v", body)
	}
	if _, ok := d.Payload["id"]; ok {
		t.Error("Body() must not modify the payload")
	}

	subject := NewRef(KindComment, "c1")
	like := Descriptor{Entity: NewRef(KindLike, "c1"), Operation: OpToggleLike, Subject: &subject, Payload: Payload{"commentId": "c1"}}
	if _, ok := like.Body()["id"]; ok {
		t.Error("toggle-like body should only carry the subject id field")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"first name wins", Authenticated{ID: "u1", Name: "jdoe", FirstName: "Jane"}, "Jane"},
		{"falls back to name", Authenticated{ID: "u1", Name: "jdoe"}, "jdoe"},
		{"pointer", &Authenticated{ID: "u1", Name: "jdoe"}, "jdoe"},
		{"anonymous", Anonymous{}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.id); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsOwner(t *testing.T) {
	me := Authenticated{ID: "u1"}
	if !IsOwner(me, "u1") {
		t.Error("expected author to own the entity")
	}
	if IsOwner(me, "u2") {
		t.Error("expected non-author not to own the entity")
	}
	if IsOwner(Anonymous{}, "") {
		t.Error("anonymous never owns anything")
	}
}

func TestStrings(t *testing.T) {
	if got := (Pair{KindComment, OpDelete}).String(); got != "comment/delete" {
		t.Errorf("Pair.String() = %q", got)
	}
	if got := NewRef(KindUpdate, "").String(); got != "update:new" {
		t.Errorf("Ref.String() = %q", got)
	}
}
