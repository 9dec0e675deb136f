// Package ticketd is the in-memory train ticketing backend: a seeded train
// table plus per-user booking counts behind a mutex, exposed over HTTP by
// Server. It exists so the agent has a real wire-level collaborator both in
// production (cmd/ticketd) and in tests (httptest).
package ticketd

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"traintalk/internal/booking"
)

var (
	ErrUnknownTrain = errors.New("train not found")
	ErrSoldOut      = errors.New("no tickets available")
	ErrNoBooking    = errors.New("no tickets to cancel for this user")
)

// Store holds trains and user bookings. All methods are safe for
// concurrent use.
type Store struct {
	mu          sync.Mutex
	trains      map[string]*booking.Train
	userTickets map[string]map[string]int // userID -> trainID -> count
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		trains:      make(map[string]*booking.Train),
		userTickets: make(map[string]map[string]int),
	}
}

// NewSeededStore returns a store preloaded with a small demo timetable.
func NewSeededStore() *Store {
	s := NewStore()
	s.Add(booking.Train{ID: "G100", From: "Beijing", To: "Shanghai", Date: "2025-06-01", DepartureTime: "08:00", ArrivalTime: "13:30", TotalTickets: 100, Available: 100})
	s.Add(booking.Train{ID: "G101", From: "Beijing", To: "Shanghai", Date: "2025-06-02", DepartureTime: "08:00", ArrivalTime: "13:30", TotalTickets: 100, Available: 95})
	s.Add(booking.Train{ID: "G102", From: "Shanghai", To: "Beijing", Date: "2025-06-01", DepartureTime: "14:00", ArrivalTime: "19:30", TotalTickets: 100, Available: 88})
	s.Add(booking.Train{ID: "D200", From: "Guangzhou", To: "Shenzhen", Date: "2025-06-01", DepartureTime: "09:15", ArrivalTime: "10:45", TotalTickets: 80, Available: 80})
	s.Add(booking.Train{ID: "D201", From: "Guangzhou", To: "Shenzhen", Date: "2025-06-02", DepartureTime: "09:15", ArrivalTime: "10:45", TotalTickets: 80, Available: 75})
	s.Add(booking.Train{ID: "K300", From: "Chengdu", To: "Xi'an", Date: "2025-06-01", DepartureTime: "18:20", ArrivalTime: "07:40", TotalTickets: 50, Available: 3})
	return s
}

// Add inserts or replaces a train.
func (s *Store) Add(t booking.Train) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := t
	s.trains[t.ID] = &cp
}

// Query returns a snapshot of the train with the given id.
func (s *Store) Query(id string) (booking.Train, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trains[id]
	if !ok {
		return booking.Train{}, false
	}
	return *t, true
}

// List returns all trains that still have availability, ordered by id so
// the catalog order is stable across calls.
func (s *Store) List() []booking.Train {
	return s.Search("", "", "")
}

// Search filters trains by any non-empty subset of origin, destination and
// date. Origin and destination match case-insensitively. Only trains with
// remaining availability are returned, ordered by id.
func (s *Store) Search(from, to, date string) []booking.Train {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]booking.Train, 0)
	for _, t := range s.trains {
		if t.Available <= 0 {
			continue
		}
		if from != "" && !strings.EqualFold(t.From, from) {
			continue
		}
		if to != "" && !strings.EqualFold(t.To, to) {
			continue
		}
		if date != "" && t.Date != date {
			continue
		}
		matches = append(matches, *t)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}

// Book decrements availability and records the booking for the user.
func (s *Store) Book(trainID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trains[trainID]
	if !ok {
		return ErrUnknownTrain
	}
	if t.Available <= 0 {
		return ErrSoldOut
	}
	t.Available--
	if s.userTickets[userID] == nil {
		s.userTickets[userID] = make(map[string]int)
	}
	s.userTickets[userID][trainID]++
	return nil
}

// Cancel returns one ticket held by the user on the given train.
func (s *Store) Cancel(trainID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trains[trainID]
	if !ok {
		return ErrUnknownTrain
	}
	if s.userTickets[userID][trainID] <= 0 {
		return ErrNoBooking
	}
	t.Available++
	s.userTickets[userID][trainID]--
	if s.userTickets[userID][trainID] == 0 {
		delete(s.userTickets[userID], trainID)
		if len(s.userTickets[userID]) == 0 {
			delete(s.userTickets, userID)
		}
	}
	return nil
}

// UserTickets returns the user's bookings ordered by train id. Zero-count
// entries never appear.
func (s *Store) UserTickets(userID string) []booking.UserBooking {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := make([]booking.UserBooking, 0, len(s.userTickets[userID]))
	for trainID, count := range s.userTickets[userID] {
		bookings = append(bookings, booking.UserBooking{TrainID: trainID, Count: count})
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].TrainID < bookings[j].TrainID })
	return bookings
}
