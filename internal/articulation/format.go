// Package articulation renders catalog data and dialogue outcomes into the
// user-facing strings the agent prints. Every reply starts with one of three
// markers: success, failure, or a question back to the user.
package articulation

import (
	"fmt"
	"strings"

	"traintalk/internal/booking"
)

// Reply markers.
const (
	markSuccess  = "✅"
	markFailure  = "❌"
	markQuestion = "🤔"
)

// maxAmbiguityOptions caps how many candidates a disambiguation question
// lists before trailing off.
const maxAmbiguityOptions = 5

// Criteria renders search criteria as a human phrase, e.g.
// "from Beijing to Shanghai on 2025-06-01". Returns "" when all empty.
func Criteria(from, to, date string) string {
	var parts []string
	if from != "" {
		parts = append(parts, "from "+from)
	}
	if to != "" {
		parts = append(parts, "to "+to)
	}
	if date != "" {
		parts = append(parts, "on "+date)
	}
	return strings.Join(parts, " ")
}

func trainLine(n int, t booking.Train) string {
	return fmt.Sprintf("%d. %s: %s → %s | %s | %s-%s (%d/%d available)",
		n, t.ID, t.From, t.To, t.Date, t.DepartureTime, t.ArrivalTime, t.Available, t.TotalTickets)
}

// TrainList renders the full catalog listing.
func TrainList(trains []booking.Train) string {
	if len(trains) == 0 {
		return markFailure + " No trains available"
	}
	var b strings.Builder
	b.WriteString("🚄 Available Trains:\n")
	for i, t := range trains {
		b.WriteString(trainLine(i+1, t))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// SearchResults renders a criteria search outcome.
func SearchResults(trains []booking.Train, criteria string) string {
	if len(trains) == 0 {
		return NoTrainsFound(criteria)
	}
	var b strings.Builder
	b.WriteString("🔍 Search Results:\n")
	for i, t := range trains {
		b.WriteString(trainLine(i+1, t))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NoTrainsFound reports an empty search.
func NoTrainsFound(criteria string) string {
	if criteria == "" {
		return markFailure + " No trains found"
	}
	return fmt.Sprintf("%s No trains found %s", markFailure, criteria)
}

// TrainCard renders a single train's details.
func TrainCard(t booking.Train) string {
	return fmt.Sprintf("🚄 Train %s\n📍 Route: %s → %s\n📅 Date: %s\n🕐 Departure: %s | Arrival: %s\n🎫 Available: %d/%d tickets",
		t.ID, t.From, t.To, t.Date, t.DepartureTime, t.ArrivalTime, t.Available, t.TotalTickets)
}

// TrainNotFound reports an unknown train ID.
func TrainNotFound(id string) string {
	return fmt.Sprintf("%s Train %s not found", markFailure, id)
}

// Booked confirms a booking.
func Booked(trainID, userID string) string {
	return fmt.Sprintf("%s Successfully booked ticket for train %s for user %s!", markSuccess, trainID, userID)
}

// SoldOut reports a booking attempt on a full train.
func SoldOut(trainID string) string {
	return fmt.Sprintf("%s No tickets available for train %s", markFailure, trainID)
}

// Canceled confirms a cancellation.
func Canceled(trainID string) string {
	return fmt.Sprintf("%s Successfully canceled ticket for train %s!", markSuccess, trainID)
}

// NothingToCancel reports a cancellation with no matching booking.
func NothingToCancel(trainID string) string {
	return fmt.Sprintf("%s No tickets to cancel for train %s", markFailure, trainID)
}

// InvalidRequest surfaces the backend's rejection text.
func InvalidRequest(detail string) string {
	return fmt.Sprintf("%s Invalid request: %s", markFailure, detail)
}

// TicketEntry pairs a booking with its train details. Train is nil when
// the catalog lookup failed; the entry still renders with the bare ID.
type TicketEntry struct {
	Booking booking.UserBooking
	Train   *booking.Train
}

// UserTickets renders a user's booked tickets.
func UserTickets(userID string, entries []TicketEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("📋 No booked tickets found for user %s.", userID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 Booked Tickets for user %s:\n", userID)
	for _, e := range entries {
		if e.Train != nil {
			t := e.Train
			fmt.Fprintf(&b, "• %s: %s → %s | %s | %s-%s (x%d tickets)\n",
				t.ID, t.From, t.To, t.Date, t.DepartureTime, t.ArrivalTime, e.Booking.Count)
		} else {
			fmt.Fprintf(&b, "• %s (x%d tickets)\n", e.Booking.TrainID, e.Booking.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Ambiguity asks the user to pick among several matching trains. verb is
// the action being attempted ("book", "cancel", "query").
func Ambiguity(criteria string, candidates []booking.Train, verb string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s I found multiple trains %s:\n\n", markQuestion, criteria)
	shown := candidates
	if len(shown) > maxAmbiguityOptions {
		shown = shown[:maxAmbiguityOptions]
	}
	for i, t := range shown {
		fmt.Fprintf(&b, "%d. %s: %s → %s | %s | %s\n", i+1, t.ID, t.From, t.To, t.Date, t.DepartureTime)
	}
	if len(candidates) > maxAmbiguityOptions {
		fmt.Fprintf(&b, "...and %d more\n", len(candidates)-maxAmbiguityOptions)
	}
	fmt.Fprintf(&b, "\nWhich specific train would you like to %s? Please specify the train ID (e.g., %s).",
		verb, candidates[0].ID)
	return b.String()
}

// Clarify wraps an oracle follow-up question.
func Clarify(question string) string {
	return markQuestion + " " + question
}

// NeedTrainID asks for a train ID when no criteria were given either.
func NeedTrainID(verb string) string {
	if verb == "" {
		return markFailure + " Please specify a train ID (e.g., G100, D200, K300)"
	}
	return fmt.Sprintf("%s Please specify a train ID to %s (e.g., G100, D200, K300)", markFailure, verb)
}

// Unknown is the capability summary for unrecognized requests.
func Unknown() string {
	return markFailure + " I don't understand that request. I can help you query trains, book tickets, cancel bookings, list all trains, search by criteria, or show your tickets."
}

// CatalogError surfaces a backend failure on a read operation.
func CatalogError(what string, err error) string {
	return fmt.Sprintf("%s Error %s: %v", markFailure, what, err)
}
