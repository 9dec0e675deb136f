// Package dialogue orchestrates conversation turns: it runs the intent
// oracle, resolves ambiguous train references against the catalog, dispatches
// the resulting operation, and maintains the per-session memory window.
package dialogue

import (
	"github.com/google/uuid"

	"traintalk/internal/perception"
)

// State is the per-session conversation memory. It holds a sliding window
// of recent exchanges plus the user identity the session has settled on.
// Methods return a new State; callers decide when an update is committed,
// so a failed turn never corrupts the window.
type State struct {
	SessionID string
	// Turns holds at most 2*window entries, oldest first, alternating
	// user and agent roles.
	Turns []perception.ConversationTurn
	// CurrentUserID is the last explicitly named user, or the configured
	// default. It persists across turns until the user names another.
	CurrentUserID string

	window int
}

// NewState creates a session with a fresh ID.
func NewState(defaultUserID string, window int) State {
	if window <= 0 {
		window = 10
	}
	return State{
		SessionID:     uuid.NewString(),
		CurrentUserID: defaultUserID,
		window:        window,
	}
}

// WithExchange appends one user/agent pair, evicting the oldest pair when
// the window is full.
func (s State) WithExchange(userMsg, agentMsg string) State {
	turns := make([]perception.ConversationTurn, 0, len(s.Turns)+2)
	turns = append(turns, s.Turns...)
	turns = append(turns,
		perception.ConversationTurn{Role: "user", Content: userMsg},
		perception.ConversationTurn{Role: "agent", Content: agentMsg},
	)
	if max := 2 * s.window; len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	s.Turns = turns
	return s
}

// WithUserID pins the session to a new user identity.
func (s State) WithUserID(userID string) State {
	if userID != "" {
		s.CurrentUserID = userID
	}
	return s
}

// Window returns the configured pair capacity.
func (s State) Window() int {
	return s.window
}
