package articulation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"traintalk/internal/booking"
)

var (
	g100 = booking.Train{ID: "G100", From: "Beijing", To: "Shanghai", Date: "2025-06-01", DepartureTime: "08:00", ArrivalTime: "13:30", TotalTickets: 100, Available: 42}
	g101 = booking.Train{ID: "G101", From: "Beijing", To: "Shanghai", Date: "2025-06-02", DepartureTime: "08:00", ArrivalTime: "13:30", TotalTickets: 100, Available: 95}
)

func TestCriteria(t *testing.T) {
	tests := []struct {
		from, to, date string
		want           string
	}{
		{"Beijing", "Shanghai", "2025-06-01", "from Beijing to Shanghai on 2025-06-01"},
		{"Beijing", "", "", "from Beijing"},
		{"", "Shanghai", "", "to Shanghai"},
		{"", "", "2025-06-01", "on 2025-06-01"},
		{"Beijing", "", "2025-06-01", "from Beijing on 2025-06-01"},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Criteria(tt.from, tt.to, tt.date))
	}
}

func TestTrainList(t *testing.T) {
	got := TrainList([]booking.Train{g100, g101})

	lines := strings.Split(got, "\n")
	assert.Equal(t, "🚄 Available Trains:", lines[0])
	assert.Equal(t, "1. G100: Beijing → Shanghai | 2025-06-01 | 08:00-13:30 (42/100 available)", lines[1])
	assert.Equal(t, "2. G101: Beijing → Shanghai | 2025-06-02 | 08:00-13:30 (95/100 available)", lines[2])

	assert.Equal(t, "❌ No trains available", TrainList(nil))
}

func TestSearchResults(t *testing.T) {
	got := SearchResults([]booking.Train{g100}, "from Beijing")
	assert.True(t, strings.HasPrefix(got, "🔍 Search Results:\n"))
	assert.Contains(t, got, "1. G100:")

	assert.Equal(t, "❌ No trains found from Beijing", SearchResults(nil, "from Beijing"))
	assert.Equal(t, "❌ No trains found", SearchResults(nil, ""))
}

func TestTrainCard(t *testing.T) {
	want := "🚄 Train G100\n" +
		"📍 Route: Beijing → Shanghai\n" +
		"📅 Date: 2025-06-01\n" +
		"🕐 Departure: 08:00 | Arrival: 13:30\n" +
		"🎫 Available: 42/100 tickets"
	assert.Equal(t, want, TrainCard(g100))
}

func TestBookingMessages(t *testing.T) {
	assert.Equal(t, "✅ Successfully booked ticket for train G100 for user user_001!", Booked("G100", "user_001"))
	assert.Equal(t, "❌ No tickets available for train K300", SoldOut("K300"))
	assert.Equal(t, "✅ Successfully canceled ticket for train G100!", Canceled("G100"))
	assert.Equal(t, "❌ No tickets to cancel for train G100", NothingToCancel("G100"))
	assert.Equal(t, "❌ Train Z999 not found", TrainNotFound("Z999"))
	assert.Equal(t, "❌ Invalid request: missing train id", InvalidRequest("missing train id"))
}

func TestUserTickets(t *testing.T) {
	assert.Equal(t, "📋 No booked tickets found for user user_001.", UserTickets("user_001", nil))

	entries := []TicketEntry{
		{Booking: booking.UserBooking{TrainID: "G100", Count: 2}, Train: &g100},
		{Booking: booking.UserBooking{TrainID: "X999", Count: 1}},
	}
	got := UserTickets("user_001", entries)

	lines := strings.Split(got, "\n")
	assert.Equal(t, "🎫 Booked Tickets for user user_001:", lines[0])
	assert.Equal(t, "• G100: Beijing → Shanghai | 2025-06-01 | 08:00-13:30 (x2 tickets)", lines[1])
	assert.Equal(t, "• X999 (x1 tickets)", lines[2], "entries without train details fall back to the bare ID")
}

func TestAmbiguity(t *testing.T) {
	got := Ambiguity("from Beijing to Shanghai", []booking.Train{g100, g101}, "book")

	assert.True(t, strings.HasPrefix(got, "🤔 I found multiple trains from Beijing to Shanghai:\n\n"))
	assert.Contains(t, got, "1. G100: Beijing → Shanghai | 2025-06-01 | 08:00\n")
	assert.Contains(t, got, "2. G101: Beijing → Shanghai | 2025-06-02 | 08:00\n")
	assert.True(t, strings.HasSuffix(got, "Which specific train would you like to book? Please specify the train ID (e.g., G100)."))
}

func TestAmbiguityCapsOptions(t *testing.T) {
	trains := make([]booking.Train, 8)
	for i := range trains {
		trains[i] = g100
		trains[i].ID = string(rune('A'+i)) + "100"
	}
	got := Ambiguity("from Beijing", trains, "cancel")

	assert.Contains(t, got, "5. E100:")
	assert.NotContains(t, got, "6. F100:")
	assert.Contains(t, got, "...and 3 more")
	assert.Contains(t, got, "(e.g., A100)")
}

func TestQuestionAndFallbacks(t *testing.T) {
	assert.Equal(t, "🤔 Which date?", Clarify("Which date?"))
	assert.Equal(t, "❌ Please specify a train ID (e.g., G100, D200, K300)", NeedTrainID(""))
	assert.Equal(t, "❌ Please specify a train ID to book (e.g., G100, D200, K300)", NeedTrainID("book"))
	assert.Contains(t, Unknown(), "I don't understand that request")
}
