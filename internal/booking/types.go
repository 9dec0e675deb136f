package booking

// Train is a single scheduled train run as returned by the ticketing
// backend. Snapshots are immutable; Available never exceeds TotalTickets
// (enforced server-side).
type Train struct {
	ID            string `json:"id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Date          string `json:"date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	TotalTickets  int    `json:"total_tickets"`
	Available     int    `json:"available"`
}

// UserBooking is one entry of a user's booked tickets. Count is always
// positive; the backend does not return zero-count bookings.
type UserBooking struct {
	TrainID string `json:"train_id"`
	Count   int    `json:"count"`
}
