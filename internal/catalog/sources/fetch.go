package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/pkg/requestcontext"
)

type ratesPayload struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

// FetchCountries retrieves the raw country list. Entries that do not decode
// are returned with Malformed set; only an unreadable payload is an error.
func (c *Client) FetchCountries(ctx context.Context) ([]models.RawCountry, error) {
	var entries []json.RawMessage
	err := c.getJSON(ctx, SourceCountries, c.countriesURL, &entries)
	c.record(ctx, SourceCountries, err)
	if err != nil {
		return nil, err
	}

	// Entries decode one by one so a single bad entry is dropped, not the payload.
	countries := make([]models.RawCountry, len(entries))
	malformed := 0
	for i, entry := range entries {
		if err := json.Unmarshal(entry, &countries[i]); err != nil {
			countries[i] = models.RawCountry{Malformed: true}
			malformed++
			c.logger.DebugContext(ctx, "malformed country entry",
				"index", i,
				"run_id", requestcontext.RefreshRunID(ctx),
				"error", err,
			)
		}
	}
	if malformed > 0 {
		c.logger.WarnContext(ctx, "countries payload had malformed entries",
			"malformed", malformed,
			"total", len(entries),
			"run_id", requestcontext.RefreshRunID(ctx),
		)
	}
	return countries, nil
}

// FetchRates retrieves the USD exchange rate table. A payload without a
// rates object yields an empty table.
func (c *Client) FetchRates(ctx context.Context) (rates models.Rates, err error) {
	defer func() { c.record(ctx, SourceRates, err) }()

	var payload ratesPayload
	if err := c.getJSON(ctx, SourceRates, c.ratesURL, &payload); err != nil {
		return nil, err
	}
	if payload.Result == "error" {
		ue := unavailable(SourceRates, ErrorBadData, fmt.Errorf("upstream reported result=error"))
		ue.Host = hostOf(c.ratesURL)
		return nil, ue
	}
	if payload.Rates == nil {
		return models.Rates{}, nil
	}
	return models.Rates(payload.Rates), nil
}

func (c *Client) getJSON(ctx context.Context, source, rawURL string, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if c.observe != nil {
			c.observe(source, elapsed)
		}
		if ue, ok := err.(*UnavailableError); ok && ue.Host == "" {
			ue.Host = hostOf(rawURL)
		}
		if err != nil {
			c.logger.WarnContext(ctx, "source fetch failed",
				"source", source,
				"duration_ms", elapsed.Milliseconds(),
				"run_id", requestcontext.RefreshRunID(ctx),
				"error", err,
			)
			return
		}
		c.logger.DebugContext(ctx, "source fetched",
			"source", source,
			"duration_ms", elapsed.Milliseconds(),
		)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return unavailable(source, ErrorTransport, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &UnavailableError{Source: source, Category: ErrorBadStatus, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyTransportError(source, ctx.Err())
		}
		return unavailable(source, ErrorBadData, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// record feeds the source's breaker and logs health transitions once.
func (c *Client) record(ctx context.Context, source string, err error) {
	b, ok := c.breakers[source]
	if !ok {
		return
	}
	if err != nil {
		if _, change := b.RecordFailure(); change.Opened {
			c.logger.ErrorContext(ctx, "source marked unhealthy",
				"source", source,
				"consecutive_failures", breakerFailures,
			)
		}
		return
	}
	if _, change := b.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "source recovered", "source", source)
	}
}

// Healthy reports whether source has not failed repeatedly in a row.
func (c *Client) Healthy(source string) bool {
	b, ok := c.breakers[source]
	return !ok || !b.IsOpen()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
