// Package booking is the HTTP client for the train ticketing backend.
// Read paths (query, list, search, user tickets) are idempotent; booking
// and cancellation are single-attempt writes and are never retried here.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for the structured backend rejections. Callers map these
// to user-facing messages with errors.Is.
var (
	ErrTrainNotFound      = errors.New("train not found")
	ErrNoTicketsAvailable = errors.New("no tickets available")
	ErrNothingToCancel    = errors.New("no tickets to cancel")
	ErrInvalidRequest     = errors.New("invalid request")
)

// Client talks to the ticketing backend over HTTP+JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. A zero timeout falls back to 10s.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Query fetches a single train by id. Returns ErrTrainNotFound on 404.
func (c *Client) Query(ctx context.Context, id string) (Train, error) {
	var train Train
	resp, body, err := c.get(ctx, "/query", url.Values{"id": {id}})
	if err != nil {
		return train, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return train, fmt.Errorf("query %s: %w", id, ErrTrainNotFound)
	default:
		return train, fmt.Errorf("query %s: unexpected status %d: %s", id, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &train); err != nil {
		return train, fmt.Errorf("query %s: decode response: %w", id, err)
	}
	return train, nil
}

// List fetches the full catalog of trains with availability.
func (c *Client) List(ctx context.Context) ([]Train, error) {
	resp, body, err := c.get(ctx, "/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list: unexpected status %d: %s", resp.StatusCode, body)
	}
	var trains []Train
	if err := json.Unmarshal(body, &trains); err != nil {
		return nil, fmt.Errorf("list: decode response: %w", err)
	}
	return trains, nil
}

// Search queries the catalog by any non-empty subset of origin, destination
// and date. All three empty is a valid full-catalog search.
func (c *Client) Search(ctx context.Context, from, to, date string) ([]Train, error) {
	params := url.Values{}
	if from != "" {
		params.Set("from", from)
	}
	if to != "" {
		params.Set("to", to)
	}
	if date != "" {
		params.Set("date", date)
	}
	resp, body, err := c.get(ctx, "/tickets", params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d: %s", resp.StatusCode, body)
	}
	var trains []Train
	if err := json.Unmarshal(body, &trains); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return trains, nil
}

// Book books one ticket on the given train for the given user. Not
// idempotent: a retry would double-book, so the request is made exactly once.
func (c *Client) Book(ctx context.Context, trainID, userID string) error {
	resp, body, err := c.get(ctx, "/book", url.Values{"id": {trainID}, "user_id": {userID}})
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		c.logger.Debug("booked ticket", zap.String("train_id", trainID), zap.String("user_id", userID))
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("book %s: %w", trainID, ErrTrainNotFound)
	case http.StatusConflict:
		return fmt.Errorf("book %s: %w", trainID, ErrNoTicketsAvailable)
	case http.StatusBadRequest:
		return fmt.Errorf("book %s: %w: %s", trainID, ErrInvalidRequest, strings.TrimSpace(string(body)))
	default:
		return fmt.Errorf("book %s: unexpected status %d: %s", trainID, resp.StatusCode, body)
	}
}

// Cancel cancels one booked ticket. Like Book, single-attempt.
func (c *Client) Cancel(ctx context.Context, trainID, userID string) error {
	resp, body, err := c.get(ctx, "/cancel", url.Values{"id": {trainID}, "user_id": {userID}})
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		c.logger.Debug("canceled ticket", zap.String("train_id", trainID), zap.String("user_id", userID))
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("cancel %s: %w", trainID, ErrTrainNotFound)
	case http.StatusConflict:
		return fmt.Errorf("cancel %s: %w", trainID, ErrNothingToCancel)
	default:
		return fmt.Errorf("cancel %s: unexpected status %d: %s", trainID, resp.StatusCode, body)
	}
}

// UserTickets fetches the user's current bookings.
func (c *Client) UserTickets(ctx context.Context, userID string) ([]UserBooking, error) {
	resp, body, err := c.get(ctx, "/user/tickets", url.Values{"user_id": {userID}})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user tickets: unexpected status %d: %s", resp.StatusCode, body)
	}
	var bookings []UserBooking
	if err := json.Unmarshal(body, &bookings); err != nil {
		return nil, fmt.Errorf("user tickets: decode response: %w", err)
	}
	return bookings, nil
}

// get issues a GET and returns the response plus its fully-read body.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, []byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("backend request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response %s: %w", path, err)
	}

	c.logger.Debug("backend call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return resp, body, nil
}
