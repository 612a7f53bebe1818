// Package ati provides the HTTP client for the freight marketplace API.
//
// The client turns every network failure into a *domain.TransportError and degrades
// application errors on reads (non-2xx, malformed bodies) to empty results, so the
// polling jobs only ever have to decide "retry next tick" or "nothing to process".
package ati

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/freightwatch/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.ati.su"
	maxBodyBytes   = 8 << 20
)

// CityNamer resolves marketplace city ids to display names
type CityNamer interface {
	Name(cityID *int64) string
}

// Client is the marketplace API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cities     CityNamer
	log        zerolog.Logger
}

// NewClient creates a marketplace client whose every call is bounded by timeout.
// cities may be nil, in which case routes show raw city ids.
func NewClient(baseURL string, timeout time.Duration, cities CityNamer, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if cities == nil {
		cities = rawCityNamer{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cities: cities,
		log:    log.With().Str("client", "ati").Logger(),
	}
}

// FetchListings returns the listings visible to the token, unfiltered.
func (c *Client) FetchListings(ctx context.Context, token string) ([]domain.Listing, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1.0/loads", token)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Warn().Int("status", status).Str("body", truncate(body, 300)).Msg("Failed to fetch listings")
		return nil, nil
	}

	items, err := decodeList(body, "loads")
	if err != nil {
		c.log.Warn().Err(err).Msg("Malformed listings payload")
		return nil, nil
	}

	listings := make([]domain.Listing, 0, len(items))
	for _, item := range items {
		listings = append(listings, transformListing(item, c.cities))
	}
	return listings, nil
}

// FetchOffers returns the competing offers submitted against a listing.
func (c *Client) FetchOffers(ctx context.Context, token, listingID string) ([]domain.CompetingOffer, error) {
	path := "/v1.0/loads/" + url.PathEscape(listingID) + "/responses"
	status, body, err := c.do(ctx, http.MethodGet, path, token)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.log.Warn().Int("status", status).Str("listing_id", listingID).Msg("Failed to fetch offers")
		return nil, nil
	}

	items, err := decodeList(body, "responses", "items")
	if err != nil {
		c.log.Warn().Err(err).Str("listing_id", listingID).Msg("Malformed offers payload")
		return nil, nil
	}

	offers := make([]domain.CompetingOffer, 0, len(items))
	for _, item := range items {
		offer, ok := transformOffer(item, listingID)
		if !ok {
			c.log.Debug().Str("listing_id", listingID).Msg("Skipping offer without id")
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// Renew asks the marketplace to refresh a listing.
func (c *Client) Renew(ctx context.Context, token, listingID string) (domain.RenewOutcome, error) {
	path := "/v1.0/loads/" + url.PathEscape(listingID) + "/renew"
	status, body, err := c.do(ctx, http.MethodPut, path, token)
	if err != nil {
		return domain.RenewOutcome{}, err
	}

	c.log.Debug().Int("status", status).Str("listing_id", listingID).Msg("Renew response")

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return domain.RenewOutcome{Status: domain.RenewSucceeded}, nil
	case http.StatusTooManyRequests:
		return domain.RenewOutcome{Status: domain.RenewRateLimited}, nil
	default:
		return domain.RenewOutcome{Status: domain.RenewRejected, Reason: rejectionReason(status, body)}, nil
	}
}

// FetchCities downloads the marketplace city dictionary as id -> name.
func (c *Client) FetchCities(ctx context.Context, token string) (map[string]string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1.0/dictionaries/cities", token)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("city dictionary returned status %d", status)
	}

	items, err := decodeList(body, "cities", "Cities")
	if err != nil {
		return nil, fmt.Errorf("failed to parse city dictionary: %w", err)
	}
	return transformCities(items), nil
}

// do performs one authenticated call. Only network-level failures are returned as errors.
func (c *Client) do(ctx context.Context, method, path, token string) (int, []byte, error) {
	op := method + " " + path

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Dur("elapsed", time.Since(start)).Msg("Marketplace call failed")
		return 0, nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &domain.TransportError{Op: op, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return resp.StatusCode, body, nil
}

// rejectionReason extracts the server-provided reason, falling back to the raw body.
func rejectionReason(status int, body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"Reason", "reason", "error"} {
			if reason := getString(payload, key); reason != "" {
				return reason
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// decodeList accepts either a bare JSON array or an object wrapping one under any of keys.
func decodeList(body []byte, keys ...string) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var arr []interface{}
	switch v := raw.(type) {
	case []interface{}:
		arr = v
	case map[string]interface{}:
		for _, key := range keys {
			if list, ok := v[key].([]interface{}); ok {
				arr = list
				break
			}
		}
		if arr == nil {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("unexpected payload type %T", raw)
	}

	items := make([]map[string]interface{}, 0, len(arr))
	for _, entry := range arr {
		if m, ok := entry.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
