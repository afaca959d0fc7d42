package calllogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// Client is the read-only interface to the telephony provider's call-log API.
type Client interface {
	FetchCallLogs(ctx context.Context, req FetchRequest) (*CallLogResponse, error)
}

// HTTPClient talks to the provider over HTTP with bearer-token auth.
type HTTPClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// FetchRequest describes one page of call logs. Phone is optional; omitting
// it fetches calls for every caller.
type FetchRequest struct {
	Phone  string
	Limit  int
	Offset int
	Page   int
}

// CallLogResponse is the provider's paged envelope.
type CallLogResponse struct {
	Data []CallLogRecord `json:"data"`
}

// CallLogRecord is one raw call as the provider reports it. Only calls with a
// non-null transcript are requested, so FullTranscript is expected to be set.
type CallLogRecord struct {
	CallID         string     `json:"call_id"`
	CallerPhone    PhoneField `json:"caller_phone"`
	CallDate       string     `json:"call_date"`
	CallDuration   int        `json:"call_duration"`
	FullTranscript string     `json:"full_transcript"`
	Summary        string     `json:"summary"`
}

// PhoneField normalizes the provider's caller_phone field, which is either a
// plain string or a nested contact object.
type PhoneField struct {
	Number string
}

type nestedPhone struct {
	PhoneNumber string `json:"phone_number"`
}

// UnmarshalJSON accepts "caller_phone": "+1555..." as well as
// "caller_phone": {"phone_number": "+1555..."}.
func (p *PhoneField) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		p.Number = plain
		return nil
	}

	var nested nestedPhone
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("caller_phone is neither string nor object: %w", err)
	}
	p.Number = nested.PhoneNumber
	return nil
}

// MarshalJSON writes the normalized plain-string form.
func (p PhoneField) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Number)
}

// NewClient creates a new call-log API client.
func NewClient(baseURL, apiToken string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCallLogs retrieves one page of call logs, newest first. Records
// without a transcript are filtered out server-side.
func (c *HTTPClient) FetchCallLogs(ctx context.Context, req FetchRequest) (*CallLogResponse, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/api/v1/call-logs", c.baseURL))
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	query := parsed.Query()
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("sort", "-call_date")
	query.Set("fields", "*")
	query.Set("filter[full_transcript][_nnull]", "true")
	if req.Offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", req.Offset))
	}
	if req.Page > 0 {
		query.Set("page", fmt.Sprintf("%d", req.Page))
	}
	if strings.TrimSpace(req.Phone) != "" {
		query.Set("filter[caller_phone][_eq]", strings.TrimSpace(req.Phone))
	}
	parsed.RawQuery = query.Encode()

	out := &CallLogResponse{}
	if err := c.doJSON(ctx, http.MethodGet, parsed.String(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call log api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	return nil
}
