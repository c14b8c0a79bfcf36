package entity

// Identity is the current viewer: either Authenticated or Anonymous.
type Identity interface {
	isIdentity()
}

// Authenticated is a signed-in viewer.
type Authenticated struct {
	ID    string
	Image string
	Name  string

	// FirstName comes from the optional account profile.
	FirstName string
}

// Anonymous is a viewer without a session. Like and Comment affordances are
// read-only for anonymous viewers.
type Anonymous struct{}

func (Authenticated) isIdentity() {}
func (Anonymous) isIdentity()     {}

// User returns the authenticated user behind id, if any.
func User(id Identity) (Authenticated, bool) {
	switch u := id.(type) {
	case Authenticated:
		return u, true
	case *Authenticated:
		if u != nil {
			return *u, true
		}
	}
	return Authenticated{}, false
}

// DisplayName returns the first name when the profile has one, the account
// name otherwise. Anonymous viewers have no display name.
func DisplayName(id Identity) string {
	u, ok := User(id)
	if !ok {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Name
}

// IsOwner reports whether the viewer authored the entity. This gates the
// edit and delete affordances only; the remote API enforces authorization.
func IsOwner(id Identity, authorID string) bool {
	u, ok := User(id)
	return ok && authorID != "" && u.ID == authorID
}
