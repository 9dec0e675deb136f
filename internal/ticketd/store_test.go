package ticketd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traintalk/internal/booking"
)

func TestStoreQuery(t *testing.T) {
	s := NewSeededStore()

	train, ok := s.Query("G100")
	require.True(t, ok)
	assert.Equal(t, "Beijing", train.From)
	assert.Equal(t, "Shanghai", train.To)
	assert.Equal(t, 100, train.Available)

	_, ok = s.Query("Z999")
	assert.False(t, ok)
}

func TestStoreListSorted(t *testing.T) {
	s := NewSeededStore()

	trains := s.List()
	require.Len(t, trains, 6)
	for i := 1; i < len(trains); i++ {
		assert.Less(t, trains[i-1].ID, trains[i].ID, "list must be sorted by ID")
	}
}

func TestStoreSearch(t *testing.T) {
	s := NewSeededStore()

	tests := []struct {
		name    string
		from    string
		to      string
		date    string
		wantIDs []string
	}{
		{"by route", "Beijing", "Shanghai", "", []string{"G100", "G101"}},
		{"case insensitive", "beijing", "SHANGHAI", "", []string{"G100", "G101"}},
		{"route and date", "Beijing", "Shanghai", "2025-06-01", []string{"G100"}},
		{"by date only", "", "", "2025-06-02", []string{"D201", "G101"}},
		{"reverse route", "Shanghai", "Beijing", "", []string{"G102"}},
		{"no match", "Beijing", "Guangzhou", "", nil},
		{"unknown city", "Atlantis", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Search(tt.from, tt.to, tt.date)
			ids := make([]string, 0, len(got))
			for _, tr := range got {
				ids = append(ids, tr.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestStoreSearchExcludesSoldOut(t *testing.T) {
	s := NewSeededStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Book("K300", "user_001"))
	}

	got := s.Search("Chengdu", "", "")
	assert.Empty(t, got, "sold-out trains must not appear in search results")

	// Direct query still works.
	train, ok := s.Query("K300")
	require.True(t, ok)
	assert.Equal(t, 0, train.Available)
}

func TestStoreBookAndCancel(t *testing.T) {
	s := NewSeededStore()

	require.NoError(t, s.Book("G100", "user_001"))
	require.NoError(t, s.Book("G100", "user_001"))

	train, _ := s.Query("G100")
	assert.Equal(t, 98, train.Available)

	tickets := s.UserTickets("user_001")
	require.Len(t, tickets, 1)
	assert.Equal(t, booking.UserBooking{TrainID: "G100", Count: 2}, tickets[0])

	require.NoError(t, s.Cancel("G100", "user_001"))
	train, _ = s.Query("G100")
	assert.Equal(t, 99, train.Available)

	require.NoError(t, s.Cancel("G100", "user_001"))
	assert.Empty(t, s.UserTickets("user_001"), "zero-count bookings are dropped")

	assert.ErrorIs(t, s.Cancel("G100", "user_001"), ErrNoBooking)
}

func TestStoreBookErrors(t *testing.T) {
	s := NewSeededStore()

	assert.ErrorIs(t, s.Book("Z999", "user_001"), ErrUnknownTrain)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Book("K300", "user_001"))
	}
	assert.ErrorIs(t, s.Book("K300", "user_001"), ErrSoldOut)
}

func TestStoreUserTicketsSorted(t *testing.T) {
	s := NewSeededStore()
	require.NoError(t, s.Book("G101", "user_002"))
	require.NoError(t, s.Book("D200", "user_002"))
	require.NoError(t, s.Book("G100", "user_002"))

	tickets := s.UserTickets("user_002")
	require.Len(t, tickets, 3)
	assert.Equal(t, "D200", tickets[0].TrainID)
	assert.Equal(t, "G100", tickets[1].TrainID)
	assert.Equal(t, "G101", tickets[2].TrainID)
}

func TestStoreUsersAreIsolated(t *testing.T) {
	s := NewSeededStore()
	require.NoError(t, s.Book("G100", "user_001"))

	assert.Empty(t, s.UserTickets("user_002"))
	assert.ErrorIs(t, s.Cancel("G100", "user_002"), ErrNoBooking)
}
