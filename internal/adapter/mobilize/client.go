package mobilize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/drive-scout-service/internal/domain"
)

const (
	userAgent = "Drive-Scout-App/1.0"

	// maxBodyBytes bounds a single listing response.
	maxBodyBytes = 16 << 20
)

// Client implements pipeline.Fetcher against the Mobilize public events API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	org        string
	tagIDs     []string
	perPage    int
	logger     *slog.Logger
}

// NewClient creates a Mobilize client. baseURL is the API root including the
// version segment, e.g. "https://api.mobilize.us/v1".
func NewClient(baseURL, org string, tagIDs []string, perPage int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		org:     org,
		tagIDs:  tagIDs,
		perPage: perPage,
		logger:  logger,
	}
}

// FetchEvents requests one page of upcoming events for the organization.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.RawEvent, error) {
	params := url.Values{
		"timeslot_start": {"gte_now"},
		"per_page":       {strconv.Itoa(c.perPage)},
	}
	for _, id := range c.tagIDs {
		params.Add("tag_ids", id)
	}
	u := fmt.Sprintf("%s/organizations/%s/events?%s", c.baseURL, url.PathEscape(c.org), params.Encode())

	events, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched events", "org", c.org, "count", len(events))
	return events, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]domain.RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mobilize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("Mobilize API responded with status: %d", resp.StatusCode) //nolint:staticcheck // message is part of the response contract
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return c.decodeListing(body)
}

// listing is the envelope of a Mobilize list endpoint. Data stays raw so a
// missing or non-array value can be told apart from a malformed body.
type listing struct {
	Data json.RawMessage `json:"data"`
}

// decodeListing fails only when the body is not valid JSON. A body that is
// not an object, or a missing or non-array "data", yields no events, and
// elements that do not decode as events are skipped.
func (c *Client) decodeListing(body []byte) ([]domain.RawEvent, error) {
	if !json.Valid(body) {
		return nil, errors.New("decode response: body is not valid JSON")
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		c.logger.Warn("mobilize response is not an object")
		return []domain.RawEvent{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(l.Data, &elems); err != nil || elems == nil {
		if len(l.Data) > 0 && string(l.Data) != "null" {
			c.logger.Warn("mobilize response data is not an array")
		}
		return []domain.RawEvent{}, nil
	}

	events := make([]domain.RawEvent, 0, len(elems))
	for i, elem := range elems {
		var ev domain.RawEvent
		if err := json.Unmarshal(elem, &ev); err != nil {
			c.logger.Warn("skipping undecodable event", "index", i, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
