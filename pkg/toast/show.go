package toast

import "github.com/google/uuid"

// Notify displays a one-off notification that is not tied to a mutation and
// returns its id.
func (c *Channel) Notify(level Type, message string) string {
	return c.NotifyWithTitle(level, "", message)
}

// NotifyWithTitle displays a one-off notification with a title.
func (c *Channel) NotifyWithTitle(level Type, title, message string) string {
	id := uuid.NewString()
	phase := PhaseSuccess
	if level == TypeError {
		phase = PhaseFailure
	}
	c.Show(Indicator{ID: id, Type: level, Phase: phase, Title: title, Message: message})
	return id
}

// Success shows a success toast.
//
//	ch.Success("Changes saved!")
func (c *Channel) Success(message string) string {
	return c.Notify(TypeSuccess, message)
}

// Error shows an error toast.
func (c *Channel) Error(message string) string {
	return c.Notify(TypeError, message)
}

// Warning shows a warning toast.
func (c *Channel) Warning(message string) string {
	return c.Notify(TypeWarning, message)
}

// Info shows an info toast.
func (c *Channel) Info(message string) string {
	return c.Notify(TypeInfo, message)
}
