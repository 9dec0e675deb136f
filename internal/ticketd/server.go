package ticketd

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server exposes a Store over the ticketing HTTP contract:
//
//	GET /query?id=            train detail, 404 unknown id
//	GET /list                 full catalog
//	GET /tickets?from=&to=&date=  search, all params optional
//	GET /book?id=&user_id=    200 / 404 / 409 sold out / 400 missing id
//	GET /cancel?id=&user_id=  200 / 404 / 409 nothing to cancel
//	GET /user/tickets?user_id=    user's bookings
type Server struct {
	store  *Store
	logger *zap.Logger
}

// NewServer wraps a store with HTTP handlers.
func NewServer(store *Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, logger: logger}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/list", s.handleList)
	mux.HandleFunc("/tickets", s.handleSearch)
	mux.HandleFunc("/book", s.handleBook)
	mux.HandleFunc("/cancel", s.handleCancel)
	mux.HandleFunc("/user/tickets", s.handleUserTickets)
	return s.logRequests(mux)
}

// statusRecorder captures the status code written by a handler so the
// request log can include it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	train, ok := s.store.Query(id)
	if !ok {
		http.Error(w, ErrUnknownTrain.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, train)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.List())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, s.store.Search(q.Get("from"), q.Get("to"), q.Get("date")))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing train id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "default"
	}
	switch err := s.store.Book(id, userID); err {
	case nil:
		writeJSON(w, map[string]string{"message": "booked successfully"})
	case ErrUnknownTrain:
		http.Error(w, err.Error(), http.StatusNotFound)
	case ErrSoldOut:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "default"
	}
	switch err := s.store.Cancel(id, userID); err {
	case nil:
		writeJSON(w, map[string]string{"message": "cancellation successful"})
	case ErrUnknownTrain:
		http.Error(w, err.Error(), http.StatusNotFound)
	case ErrNoBooking:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleUserTickets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "default"
	}
	writeJSON(w, s.store.UserTickets(userID))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
