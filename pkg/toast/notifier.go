package toast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// FailureMessage is the generic text shown when a mutation fails.
const FailureMessage = "Something went wrong!!!"

// Token binds one in-flight mutation to one indicator id.
type Token struct {
	ID    string
	Phase Phase
}

// Notifier drives indicators through pending, then success or failure.
type Notifier struct {
	ch     *Channel
	logger *slog.Logger
	newID  func() string

	mu      sync.Mutex
	pending map[string]Token
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithLogger sets the logger used for lifecycle violations.
func WithLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = l
	}
}

// WithIDGenerator replaces the token id source.
func WithIDGenerator(fn func() string) NotifierOption {
	return func(n *Notifier) {
		n.newID = fn
	}
}

// NewNotifier creates a Notifier that shows indicators on ch.
func NewNotifier(ch *Channel, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		ch:      ch,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		pending: make(map[string]Token),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Channel returns the channel the notifier shows indicators on.
func (n *Notifier) Channel() *Channel {
	return n.ch
}

// Begin shows a pending indicator and returns its token.
func (n *Notifier) Begin(message string) Token {
	tok := Token{ID: n.newID(), Phase: PhasePending}

	n.mu.Lock()
	n.pending[tok.ID] = tok
	n.mu.Unlock()

	n.ch.Show(Indicator{ID: tok.ID, Type: TypeLoading, Phase: PhasePending, Message: message})
	return tok
}

// Resolve moves the token's indicator to success (err == nil) or failure,
// reusing the indicator id. Only the first Resolve or Discard for a token
// has any effect; later calls are logged and ignored.
func (n *Notifier) Resolve(tok Token, err error, successMessage string) (Token, bool) {
	n.mu.Lock()
	_, ok := n.pending[tok.ID]
	delete(n.pending, tok.ID)
	n.mu.Unlock()

	if !ok {
		n.logger.Warn("toast token already resolved", "id", tok.ID)
		return tok, false
	}

	ind := Indicator{ID: tok.ID}
	if err != nil {
		tok.Phase = PhaseFailure
		ind.Type, ind.Phase, ind.Message = TypeError, PhaseFailure, FailureMessage
	} else {
		tok.Phase = PhaseSuccess
		ind.Type, ind.Phase, ind.Message = TypeSuccess, PhaseSuccess, successMessage
	}
	n.ch.Show(ind)
	return tok, true
}

// Discard removes a pending indicator without resolving it. Use it when the
// mutation will never settle.
func (n *Notifier) Discard(tok Token) bool {
	n.mu.Lock()
	_, ok := n.pending[tok.ID]
	delete(n.pending, tok.ID)
	n.mu.Unlock()

	if !ok {
		return false
	}
	n.ch.Dismiss(tok.ID)
	return true
}

// Pending returns the tokens that have not been resolved or discarded.
func (n *Notifier) Pending() []Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Token, 0, len(n.pending))
	for _, tok := range n.pending {
		out = append(out, tok)
	}
	return out
}

// DiscardAll discards every pending token, e.g. when the session ends.
func (n *Notifier) DiscardAll() int {
	count := 0
	for _, tok := range n.Pending() {
		if n.Discard(tok) {
			count++
		}
	}
	return count
}
