package perception

import "strings"

// Operation is the closed set of backend operations an utterance can map
// to. The string values double as the wire vocabulary the understanding
// oracle is instructed to emit.
type Operation string

const (
	OpQueryTicket  Operation = "query_ticket"
	OpBookTicket   Operation = "book_ticket"
	OpCancelTicket Operation = "cancel_ticket"
	OpListTrains   Operation = "list_trains"
	OpSearchTrains Operation = "search_trains"
	OpMyTickets    Operation = "my_tickets"
	OpUnknown      Operation = "unknown"
)

// ParseOperation maps an oracle-emitted string onto the closed set.
// Anything outside the vocabulary collapses to OpUnknown.
func ParseOperation(s string) Operation {
	switch Operation(strings.ToLower(strings.TrimSpace(s))) {
	case OpQueryTicket:
		return OpQueryTicket
	case OpBookTicket:
		return OpBookTicket
	case OpCancelTicket:
		return OpCancelTicket
	case OpListTrains:
		return OpListTrains
	case OpSearchTrains:
		return OpSearchTrains
	case OpMyTickets:
		return OpMyTickets
	default:
		return OpUnknown
	}
}

// ActionVerb is the human verb used in clarification questions.
func (o Operation) ActionVerb() string {
	switch o {
	case OpBookTicket:
		return "book"
	case OpCancelTicket:
		return "cancel"
	case OpQueryTicket:
		return "query"
	default:
		return ""
	}
}

// TargetsTrain reports whether the operation acts on a single train and is
// therefore subject to ambiguity resolution.
func (o Operation) TargetsTrain() bool {
	return o == OpQueryTicket || o == OpBookTicket || o == OpCancelTicket
}

// Slots is the fixed five-field parameter vocabulary. Empty string means
// "not extracted"; there is no null sentinel, so downstream code branches
// only on emptiness.
type Slots struct {
	TrainID string
	UserID  string
	From    string
	To      string
	Date    string
}

// HasLocation reports whether any location criterion was extracted.
func (s Slots) HasLocation() bool {
	return s.From != "" || s.To != ""
}

// Intent is the structured result of understanding one utterance.
type Intent struct {
	Operation Operation
	Slots     Slots
	// Missing lists required slot names the oracle flagged as absent.
	Missing []string
	// Clarify is the oracle's own follow-up question, if any. Ambiguity
	// resolution may supersede it.
	Clarify string
}

// ConversationTurn is one prior exchange passed to the oracle for context.
type ConversationTurn struct {
	Role    string // "user" or "agent"
	Content string
}

// FallbackClarification is returned whenever the oracle fails; the turn
// degrades to a rephrase request instead of an error.
const FallbackClarification = "I didn't understand your request. Could you please rephrase it?"

// FallbackIntent is the well-formed record returned on any oracle failure.
func FallbackIntent() Intent {
	return Intent{
		Operation: OpUnknown,
		Clarify:   FallbackClarification,
	}
}
