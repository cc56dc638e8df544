// Package apiclient talks to the bookingcrm HTTP API. It backs the terminal
// browser: list fetchers, reference lists and lead bulk actions.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookingcrm/internal/config"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const requestIDHeader = "X-Request-ID"

type apiError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

func New(opts config.ClientOptions) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.ValidationError{Field: "API_BASE_URL", Msg: fmt.Sprintf("invalid url %q", raw)}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    u,
		token:      strings.TrimSpace(opts.Token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return err
	}
	c.SetToken(out.Token)
	return nil
}

// Bookings fetches booking pages from /api/bookings.
func (c *Client) Bookings() listing.Fetcher {
	return pageFetcher(c, "/api/bookings", models.Booking.ToRecord)
}

// Leads fetches lead pages from /api/leads.
func (c *Client) Leads() listing.Fetcher {
	return pageFetcher(c, "/api/leads", models.Lead.ToRecord)
}

func (c *Client) Agents(ctx context.Context) ([]listing.ReferenceItem, error) {
	return c.referenceList(ctx, "/api/reference/agents")
}

func (c *Client) Statuses(ctx context.Context) ([]listing.ReferenceItem, error) {
	return c.referenceList(ctx, "/api/reference/statuses")
}

func (c *Client) BulkUpdate(ctx context.Context, ids []string, u listing.BulkUpdate) error {
	body := map[string]any{"ids": ids, "agent_id": u.AgentID, "status_id": u.StatusID}
	return c.doJSON(ctx, http.MethodPost, "/api/leads/bulk-update", nil, body, nil)
}

func (c *Client) BulkDelete(ctx context.Context, ids []string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/leads/bulk-delete", nil, map[string]any{"ids": ids}, nil)
}

func (c *Client) referenceList(ctx context.Context, path string) ([]listing.ReferenceItem, error) {
	var out struct {
		Data []listing.ReferenceItem `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type page[T any] struct {
	Data       []T               `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

func pageFetcher[T any](c *Client, path string, toRecord func(T) listing.Record) listing.Fetcher {
	return listing.FetcherFunc(func(ctx context.Context, q listing.Query) listing.Result {
		var out page[T]
		if err := c.doJSON(ctx, http.MethodGet, path, QueryValues(q), nil, &out); err != nil {
			return listing.Failure{Message: err.Error()}
		}
		recs := make([]listing.Record, len(out.Data))
		for i, it := range out.Data {
			recs[i] = toRecord(it)
		}
		return listing.Success{Records: recs, TotalCount: out.Pagination.Total, Page: out.Pagination.Page}
	})
}

// QueryValues encodes a list query the way the list endpoints read it.
func QueryValues(q listing.Query) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if s := strings.TrimSpace(q.SearchText); s != "" {
		v.Set("search", s)
	}
	for key, cond := range q.Criteria {
		if cond == nil || cond.Empty() {
			continue
		}
		switch c := cond.(type) {
		case listing.Eq:
			v.Set(key, formatValue(c.Value))
		case listing.DateRange:
			if c.Start != nil {
				v.Set("start_date", c.Start.Format("2006-01-02"))
			}
			if c.End != nil {
				v.Set("end_date", c.End.Format("2006-01-02"))
			}
		}
	}
	return v
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case decimal.Decimal:
		return x.String()
	}
	return fmt.Sprint(v)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("http read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("json unmarshal response: %w", err)
	}
	return nil
}

// statusError turns an error response back into the domain error it came from.
func statusError(status int, body []byte) error {
	var e apiError
	msg := ""
	if err := json.Unmarshal(body, &e); err == nil {
		msg = e.Message
		if msg == "" {
			msg = e.Error
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("http status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	switch status {
	case http.StatusBadRequest:
		return domain.ValidationError{Msg: msg}
	case http.StatusUnauthorized:
		return domain.UnauthorizedError{Msg: msg}
	case http.StatusForbidden:
		return domain.ForbiddenError{}
	case http.StatusNotFound:
		return domain.NotFoundError{Err: errors.New(msg)}
	case http.StatusConflict:
		return domain.ConflictError{Msg: msg}
	}
	return domain.InternalError{Msg: msg}
}
