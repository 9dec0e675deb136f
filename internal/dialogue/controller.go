package dialogue

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"traintalk/internal/articulation"
	"traintalk/internal/booking"
	"traintalk/internal/perception"
)

// IntentExtractor produces an Intent from one utterance plus history.
type IntentExtractor interface {
	Extract(ctx context.Context, utterance string, history []perception.ConversationTurn) perception.Intent
}

// Catalog is the ticketing backend surface the controller dispatches to.
// *booking.Client satisfies it.
type Catalog interface {
	CatalogSearcher
	Query(ctx context.Context, id string) (booking.Train, error)
	List(ctx context.Context) ([]booking.Train, error)
	Book(ctx context.Context, trainID, userID string) error
	Cancel(ctx context.Context, trainID, userID string) error
	UserTickets(ctx context.Context, userID string) ([]booking.UserBooking, error)
}

// Controller runs one conversation turn end to end.
type Controller struct {
	extractor IntentExtractor
	resolver  *Resolver
	catalog   Catalog
	logger    *zap.Logger
}

// NewController wires the turn pipeline together.
func NewController(extractor IntentExtractor, catalog Catalog, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		extractor: extractor,
		resolver:  NewResolver(catalog, logger),
		catalog:   catalog,
		logger:    logger,
	}
}

// HandleTurn processes one user message and returns the reply plus the
// updated session state. The exchange is committed to memory whatever the
// outcome, so the oracle sees failed turns too.
func (c *Controller) HandleTurn(ctx context.Context, state State, input string) (string, State) {
	start := time.Now()
	intent := c.extractor.Extract(ctx, input, state.Turns)

	if intent.Slots.UserID != "" {
		state = state.WithUserID(intent.Slots.UserID)
	}

	reply := c.respond(ctx, state, intent)

	c.logger.Debug("turn handled",
		zap.String("session", state.SessionID),
		zap.String("operation", string(intent.Operation)),
		zap.String("user_id", state.CurrentUserID),
		zap.Duration("duration", time.Since(start)))

	return reply, state.WithExchange(input, reply)
}

// respond resolves ambiguity and dispatches the intent. Resolution outcomes
// outrank the oracle's own clarification: a definitive answer from the
// catalog (unique match, no match, or a concrete candidate list) is better
// than a generic "which train?" question.
func (c *Controller) respond(ctx context.Context, state State, intent perception.Intent) string {
	res := c.resolver.Resolve(ctx, intent)
	switch res.Kind {
	case ResolveClarify, ResolveNotFound:
		return res.Message
	}
	intent = res.Intent

	if !res.AutoFilled && intent.Clarify != "" {
		return articulation.Clarify(intent.Clarify)
	}

	switch intent.Operation {
	case perception.OpListTrains:
		return c.listTrains(ctx)
	case perception.OpSearchTrains:
		return c.searchTrains(ctx, intent.Slots)
	case perception.OpQueryTicket:
		return c.queryTrain(ctx, intent.Slots.TrainID)
	case perception.OpBookTicket:
		return c.bookTicket(ctx, intent.Slots.TrainID, state.CurrentUserID)
	case perception.OpCancelTicket:
		return c.cancelTicket(ctx, intent.Slots.TrainID, state.CurrentUserID)
	case perception.OpMyTickets:
		return c.myTickets(ctx, state.CurrentUserID)
	default:
		return articulation.Unknown()
	}
}

func (c *Controller) listTrains(ctx context.Context) string {
	trains, err := c.catalog.List(ctx)
	if err != nil {
		return articulation.CatalogError("fetching train list", err)
	}
	return articulation.TrainList(trains)
}

func (c *Controller) searchTrains(ctx context.Context, slots perception.Slots) string {
	trains, err := c.catalog.Search(ctx, slots.From, slots.To, slots.Date)
	if err != nil {
		return articulation.CatalogError("searching trains", err)
	}
	return articulation.SearchResults(trains, articulation.Criteria(slots.From, slots.To, slots.Date))
}

func (c *Controller) queryTrain(ctx context.Context, trainID string) string {
	if trainID == "" {
		return articulation.NeedTrainID("")
	}
	train, err := c.catalog.Query(ctx, trainID)
	switch {
	case errors.Is(err, booking.ErrTrainNotFound):
		return articulation.TrainNotFound(trainID)
	case err != nil:
		return articulation.CatalogError("querying train "+trainID, err)
	}
	return articulation.TrainCard(train)
}

func (c *Controller) bookTicket(ctx context.Context, trainID, userID string) string {
	if trainID == "" {
		return articulation.NeedTrainID("book")
	}
	err := c.catalog.Book(ctx, trainID, userID)
	switch {
	case errors.Is(err, booking.ErrTrainNotFound):
		return articulation.TrainNotFound(trainID)
	case errors.Is(err, booking.ErrNoTicketsAvailable):
		return articulation.SoldOut(trainID)
	case errors.Is(err, booking.ErrInvalidRequest):
		return articulation.InvalidRequest(err.Error())
	case err != nil:
		return articulation.CatalogError("booking train "+trainID, err)
	}
	return articulation.Booked(trainID, userID)
}

func (c *Controller) cancelTicket(ctx context.Context, trainID, userID string) string {
	if trainID == "" {
		return articulation.NeedTrainID("cancel")
	}
	err := c.catalog.Cancel(ctx, trainID, userID)
	switch {
	case errors.Is(err, booking.ErrTrainNotFound):
		return articulation.TrainNotFound(trainID)
	case errors.Is(err, booking.ErrNothingToCancel):
		return articulation.NothingToCancel(trainID)
	case errors.Is(err, booking.ErrInvalidRequest):
		return articulation.InvalidRequest(err.Error())
	case err != nil:
		return articulation.CatalogError("canceling train "+trainID, err)
	}
	return articulation.Canceled(trainID)
}

// myTickets fetches the user's bookings and enriches each with its train
// details. Lookups run in parallel but the rendered order matches the
// backend's. A failed lookup degrades that entry to the bare train ID.
func (c *Controller) myTickets(ctx context.Context, userID string) string {
	bookings, err := c.catalog.UserTickets(ctx, userID)
	if err != nil {
		return articulation.CatalogError("fetching tickets for user "+userID, err)
	}

	entries := make([]articulation.TicketEntry, len(bookings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, bk := range bookings {
		entries[i].Booking = bk
		g.Go(func() error {
			train, err := c.catalog.Query(gctx, bk.TrainID)
			if err != nil {
				c.logger.Debug("ticket enrichment lookup failed",
					zap.String("train_id", bk.TrainID),
					zap.Error(err))
				return nil
			}
			entries[i].Train = &train
			return nil
		})
	}
	g.Wait()

	return articulation.UserTickets(userID, entries)
}
