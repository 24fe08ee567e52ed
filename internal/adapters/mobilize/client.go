package mobilize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mobilizewarehouse/internal/domain"
)

// DefaultBaseURL is the public Mobilize API root.
const DefaultBaseURL = "https://api.mobilize.us/v1/"

// Config configures the attendances fetcher.
type Config struct {
	BaseURL        string
	APIKey         string
	OrganizationID string
	PageSize       int
}

// page is one page of a Mobilize list response.
type page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Data     []json.RawMessage `json:"data"`
}

type httpFetcher struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// NewHTTPFetcher returns a fetcher that reads every page of the attendances
// endpoint. With an OrganizationID the organization-scoped endpoint is used.
func NewHTTPFetcher(client *http.Client, config Config, logger *slog.Logger) domain.AttendanceFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &httpFetcher{client: client, config: config, logger: logger}
}

func (f *httpFetcher) firstPageURL() (string, error) {
	endpoint := "attendances"
	if f.config.OrganizationID != "" {
		endpoint = "organizations/" + url.PathEscape(f.config.OrganizationID) + "/attendances"
	}
	u, err := url.Parse(f.config.BaseURL + endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid mobilize base url: %w", err)
	}
	if f.config.PageSize > 0 {
		q := u.Query()
		q.Set("per_page", strconv.Itoa(f.config.PageSize))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Fetch follows the next links until the last page. Records are decoded
// directly into domain.RawAttendance; the original record bytes are kept
// for the archive.
func (f *httpFetcher) Fetch(ctx context.Context) (*domain.FetchResult, error) {
	next, err := f.firstPageURL()
	if err != nil {
		return nil, err
	}

	var (
		records = make([]json.RawMessage, 0)
		seen    = make(map[string]bool)
		pages   int
	)
	for next != "" {
		if seen[next] {
			return nil, fmt.Errorf("mobilize pagination loops back to %s", next)
		}
		seen[next] = true

		p, err := f.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		pages++
		records = append(records, p.Data...)
		next = ""
		if p.Next != nil {
			next = *p.Next
		}
	}
	f.logger.Info("fetched mobilize attendances", "pages", pages, "records", len(records))

	result := &domain.FetchResult{Attendances: make([]domain.RawAttendance, len(records))}
	for i, rec := range records {
		if err := json.Unmarshal(rec, &result.Attendances[i]); err != nil {
			return nil, fmt.Errorf("failed to decode attendance %d: %w: %w", i, domain.ErrMalformedRecord, err)
		}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload: %w", err)
	}
	result.Payload = payload
	return result, nil
}

func (f *httpFetcher) getPage(ctx context.Context, pageURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.config.APIKey)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from mobilize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mobilize api returned status: %d", resp.StatusCode)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode mobilize response: %w", err)
	}
	return &p, nil
}
