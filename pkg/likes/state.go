package likes

// State is the like counter shown next to a comment or update.
type State struct {
	Count   int  `json:"count"`
	Engaged bool `json:"engaged"`
}

// Flip returns the state after the viewer toggles their like: engaged
// flips and the count moves by one in the matching direction.
func Flip(s State) State {
	if s.Engaged {
		s.Engaged = false
		if s.Count > 0 {
			s.Count--
		}
		return s
	}
	s.Engaged = true
	s.Count++
	return s
}

// Settle applies a settlement to the current state. Success keeps whatever
// is displayed; failure restores the snapshot taken before the toggle.
func Settle(current, before State, err error) State {
	if err != nil {
		return before
	}
	return current
}
