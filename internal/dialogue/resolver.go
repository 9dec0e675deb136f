package dialogue

import (
	"context"

	"go.uber.org/zap"

	"traintalk/internal/articulation"
	"traintalk/internal/booking"
	"traintalk/internal/perception"
)

// ResolutionKind classifies the outcome of ambiguity resolution.
type ResolutionKind int

const (
	// ResolveProceed means the intent can be dispatched as-is (possibly
	// with an auto-filled train ID).
	ResolveProceed ResolutionKind = iota
	// ResolveClarify means the user must pick among several candidates.
	ResolveClarify
	// ResolveNotFound means no train matched the criteria.
	ResolveNotFound
)

// Resolution is the result of resolving a train-targeting intent against
// the catalog.
type Resolution struct {
	Kind   ResolutionKind
	Intent perception.Intent
	// Message is the user-facing text for Clarify and NotFound outcomes.
	Message string
	// AutoFilled is true when the train ID was filled from a unique
	// catalog match. It suppresses any oracle clarification, since the
	// reference is no longer ambiguous.
	AutoFilled bool
}

// Resolver disambiguates train references using catalog searches.
type Resolver struct {
	catalog CatalogSearcher
	logger  *zap.Logger
}

// CatalogSearcher is the slice of the catalog client the resolver needs.
type CatalogSearcher interface {
	Search(ctx context.Context, from, to, date string) ([]booking.Train, error)
}

// NewResolver creates a resolver.
func NewResolver(catalog CatalogSearcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Resolve applies ambiguity resolution to one intent. Only query, book and
// cancel intents without an explicit train ID but with a location criterion
// are resolved; a date narrows the search once a location is present, but a
// date alone passes through. An explicitly stated train ID is trusted and
// never re-validated here; the backend reports unknown IDs itself.
func (r *Resolver) Resolve(ctx context.Context, intent perception.Intent) Resolution {
	if !intent.Operation.TargetsTrain() || intent.Slots.TrainID != "" {
		return Resolution{Kind: ResolveProceed, Intent: intent}
	}
	if !intent.Slots.HasLocation() {
		return Resolution{Kind: ResolveProceed, Intent: intent}
	}

	criteria := articulation.Criteria(intent.Slots.From, intent.Slots.To, intent.Slots.Date)
	matches, err := r.catalog.Search(ctx, intent.Slots.From, intent.Slots.To, intent.Slots.Date)
	if err != nil {
		// Resolution is best-effort: on catalog failure the intent passes
		// through and the oracle's own clarification (if any) surfaces.
		r.logger.Warn("catalog search failed during resolution",
			zap.String("criteria", criteria),
			zap.Error(err))
		return Resolution{Kind: ResolveProceed, Intent: intent}
	}

	switch len(matches) {
	case 0:
		return Resolution{
			Kind:    ResolveNotFound,
			Intent:  intent,
			Message: articulation.NoTrainsFound(criteria),
		}
	case 1:
		resolved := intent
		resolved.Slots.TrainID = matches[0].ID
		resolved.Clarify = ""
		r.logger.Debug("resolved unique train",
			zap.String("criteria", criteria),
			zap.String("train_id", matches[0].ID))
		return Resolution{
			Kind:       ResolveProceed,
			Intent:     resolved,
			AutoFilled: true,
		}
	default:
		return Resolution{
			Kind:    ResolveClarify,
			Intent:  intent,
			Message: articulation.Ambiguity(criteria, matches, intent.Operation.ActionVerb()),
		}
	}
}
