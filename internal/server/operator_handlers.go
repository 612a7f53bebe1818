package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/pricing"
	"github.com/aristath/freightwatch/internal/scheduler"
	"github.com/aristath/freightwatch/internal/state"
)

const operatorsModule = "operators"

// OperatorHandlers handles the per-operator command endpoints
type OperatorHandlers struct {
	store        *state.Store
	orchestrator *scheduler.Orchestrator
	marketplace  domain.MarketplaceClient
	events       *events.Manager
	log          zerolog.Logger
}

// OperatorView is an operator with its runtime state. The token is never exposed.
type OperatorView struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	ContactID   int64          `json:"contact_id,omitempty"`
	HasChat     bool           `json:"has_chat"`
	State       state.Snapshot `json:"state"`
	NextRenewal *time.Time     `json:"next_renewal,omitempty"`
}

// ListingView is a listing with its ranked offers
type ListingView struct {
	Listing     domain.Listing       `json:"listing"`
	Offers      []domain.RankedOffer `json:"offers"`
	BestOfferID string               `json:"best_offer_id,omitempty"`
	OffersError string               `json:"offers_error,omitempty"`
}

// NewOperatorHandlers creates the operator handlers
func NewOperatorHandlers(
	store *state.Store,
	orchestrator *scheduler.Orchestrator,
	marketplace domain.MarketplaceClient,
	emitter *events.Manager,
	log zerolog.Logger,
) *OperatorHandlers {
	return &OperatorHandlers{
		store:        store,
		orchestrator: orchestrator,
		marketplace:  marketplace,
		events:       emitter,
		log:          log.With().Str("handler", "operators").Logger(),
	}
}

// HandleListOperators lists every operator with its state
// GET /api/operators
func (h *OperatorHandlers) HandleListOperators(w http.ResponseWriter, r *http.Request) {
	operators := h.orchestrator.Operators()
	views := make([]OperatorView, 0, len(operators))
	for _, op := range operators {
		if partition, ok := h.store.Partition(op.Key); ok {
			views = append(views, h.view(op, partition))
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operators": views,
	}, h.log)
}

// HandleStatus returns one operator's state
// GET /api/operators/{key}/status
func (h *OperatorHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	op, partition, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(op, partition), h.log)
}

// HandleToggleAutoUpdate flips the auto-update flag
// POST /api/operators/{key}/auto-update/toggle
func (h *OperatorHandlers) HandleToggleAutoUpdate(w http.ResponseWriter, r *http.Request) {
	op, partition, ok := h.lookup(w, r)
	if !ok {
		return
	}

	enabled := partition.ToggleAutoUpdate()
	h.autoUpdateChanged(op, enabled)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operator":    op.Key,
		"auto_update": enabled,
	}, h.log)
}

// HandleSetAutoUpdate sets the auto-update flag explicitly
// PUT /api/operators/{key}/auto-update {"enabled": true}
func (h *OperatorHandlers) HandleSetAutoUpdate(w http.ResponseWriter, r *http.Request) {
	op, partition, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`, h.log)
		return
	}

	partition.SetAutoUpdate(*req.Enabled)
	h.autoUpdateChanged(op, *req.Enabled)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operator":    op.Key,
		"auto_update": *req.Enabled,
	}, h.log)
}

// HandleRenew runs a renewal cycle synchronously, regardless of the auto-update flag
// POST /api/operators/{key}/renew
func (h *OperatorHandlers) HandleRenew(w http.ResponseWriter, r *http.Request) {
	op, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	job, ok := h.orchestrator.RenewalJob(op.Key)
	if !ok {
		writeError(w, http.StatusNotFound, "no renewal job for operator", h.log)
		return
	}

	h.log.Info().Str("operator", op.Key).Msg("Manual renewal triggered")

	results, err := job.RunCycle(r.Context())
	if err != nil {
		h.writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operator": op.Key,
		"results":  results,
	}, h.log)
}

// HandleRenewListing renews a single listing
// POST /api/operators/{key}/listings/{listingID}/renew
func (h *OperatorHandlers) HandleRenewListing(w http.ResponseWriter, r *http.Request) {
	op, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	job, ok := h.orchestrator.RenewalJob(op.Key)
	if !ok {
		writeError(w, http.StatusNotFound, "no renewal job for operator", h.log)
		return
	}

	result, err := job.RenewOne(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		h.writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result, h.log)
}

// HandleListings fetches the operator's listings and ranks the offers of those that have any.
// Read-only: known offers are not updated.
// GET /api/operators/{key}/listings
func (h *OperatorHandlers) HandleListings(w http.ResponseWriter, r *http.Request) {
	op, _, ok := h.lookup(w, r)
	if !ok {
		return
	}

	listings, err := h.marketplace.FetchListings(r.Context(), op.Token)
	if err != nil {
		h.log.Warn().Err(err).Str("operator", op.Key).Msg("Failed to fetch listings")
		writeError(w, http.StatusBadGateway, "marketplace unavailable", h.log)
		return
	}
	listings = domain.FilterOwned(listings, op.ContactID)

	views := make([]ListingView, 0, len(listings))
	for _, listing := range listings {
		view := ListingView{Listing: listing, Offers: []domain.RankedOffer{}}
		if listing.OfferCount > 0 {
			offers, err := h.marketplace.FetchOffers(r.Context(), op.Token, listing.ID)
			if err != nil {
				view.OffersError = err.Error()
			} else {
				view.Offers, view.BestOfferID = pricing.Rank(offers, nil)
			}
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operator": op.Key,
		"listings": views,
	}, h.log)
}

// lookup resolves {key}; it writes a 404 and returns false for unknown operators
func (h *OperatorHandlers) lookup(w http.ResponseWriter, r *http.Request) (domain.Operator, *state.Partition, bool) {
	key := chi.URLParam(r, "key")

	op, ok := h.orchestrator.Operator(key)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownOperator.Error()+": "+key, h.log)
		return domain.Operator{}, nil, false
	}
	partition, ok := h.store.Partition(key)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownOperator.Error()+": "+key, h.log)
		return domain.Operator{}, nil, false
	}
	return op, partition, true
}

func (h *OperatorHandlers) view(op domain.Operator, partition *state.Partition) OperatorView {
	v := OperatorView{
		Key:       op.Key,
		Name:      op.Name,
		ContactID: op.ContactID,
		HasChat:   op.ChatID != 0,
		State:     partition.Snapshot(),
	}
	if next, ok := h.orchestrator.NextRenewal(op.Key); ok {
		v.NextRenewal = &next
	}
	return v
}

func (h *OperatorHandlers) autoUpdateChanged(op domain.Operator, enabled bool) {
	h.events.Emit(operatorsModule, op.Key, &events.AutoUpdateChangedData{Enabled: enabled})
	h.log.Info().Str("operator", op.Key).Bool("enabled", enabled).Msg("Auto-update changed")
}

func (h *OperatorHandlers) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduler.ErrCycleInProgress):
		writeError(w, http.StatusConflict, err.Error(), h.log)
	case domain.IsTransportError(err):
		writeError(w, http.StatusBadGateway, err.Error(), h.log)
	default:
		h.log.Error().Err(err).Msg("Job failed")
		writeError(w, http.StatusInternalServerError, err.Error(), h.log)
	}
}
