package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.notion.com"
	defaultAPIVersion = "2022-06-28"
	defaultPageSize   = 100
)

type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	APIVersion string
	UserAgent  string
	PageSize   int
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client issues typed operations against the remote workspace API. It holds
// no credentials of its own; every operation takes the grant's bearer token,
// so one client serves any number of workspaces.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiVersion string
	userAgent  string
	pageSize   int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiVersion: apiVersion,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		pageSize:   pageSize,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

type searchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type searchRequest struct {
	Query       string        `json:"query,omitempty"`
	Filter      *searchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

// ListDatabases returns every database the grant can see, across all pages.
func (c *Client) ListDatabases(ctx context.Context, token string) ([]Database, error) {
	return CollectAll(ctx, func(ctx context.Context, cursor string) (Envelope[Database], error) {
		req := searchRequest{
			Filter:      &searchFilter{Property: "object", Value: "database"},
			StartCursor: cursor,
			PageSize:    c.pageSize,
		}
		var envelope Envelope[Database]
		err := c.do(ctx, http.MethodPost, "/v1/search", token, req, &envelope)
		return envelope, err
	})
}

// SearchPages returns every page the grant can see, across all pages of the
// search feed. Block content is not included; see BlockChildren.
func (c *Client) SearchPages(ctx context.Context, token string) ([]Page, error) {
	return CollectAll(ctx, func(ctx context.Context, cursor string) (Envelope[Page], error) {
		req := searchRequest{
			Filter:      &searchFilter{Property: "object", Value: "page"},
			StartCursor: cursor,
			PageSize:    c.pageSize,
		}
		var envelope Envelope[Page]
		err := c.do(ctx, http.MethodPost, "/v1/search", token, req, &envelope)
		return envelope, err
	})
}

// QueryDatabase runs one page of a database query, honoring the caller's
// cursor and page size. The envelope is returned as-is so callers can drive
// their own pagination.
func (c *Client) QueryDatabase(ctx context.Context, token, databaseID string, query *DatabaseQuery) (Envelope[Row], error) {
	body := DatabaseQuery{}
	if query != nil {
		body = *query
	}
	if body.PageSize <= 0 {
		body.PageSize = c.pageSize
	}
	var envelope Envelope[Row]
	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"
	err := c.do(ctx, http.MethodPost, path, token, body, &envelope)
	return envelope, err
}

// QueryDatabaseAll collects every row matched by the query, preserving the
// caller's filter and sorts while the pagination driver owns the cursor.
func (c *Client) QueryDatabaseAll(ctx context.Context, token, databaseID string, query *DatabaseQuery) ([]Row, error) {
	return CollectAll(ctx, func(ctx context.Context, cursor string) (Envelope[Row], error) {
		page := DatabaseQuery{}
		if query != nil {
			page = *query
		}
		page.StartCursor = cursor
		return c.QueryDatabase(ctx, token, databaseID, &page)
	})
}

// BlockChildren fetches the direct children of a block or page: one level
// only, fully paginated. Recursive expansion is the resolver's job.
func (c *Client) BlockChildren(ctx context.Context, token, blockID string) ([]Block, error) {
	return CollectAll(ctx, func(ctx context.Context, cursor string) (Envelope[Block], error) {
		path := "/v1/blocks/" + url.PathEscape(blockID) + "/children?page_size=" + strconv.Itoa(c.pageSize)
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var envelope Envelope[Block]
		err := c.do(ctx, http.MethodGet, path, token, nil, &envelope)
		return envelope, err
	})
}

type apiErrorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is empty")
	}
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	requestURL := c.baseURL + path

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return &TransportError{Op: method + " " + path, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return &TransportError{Op: method + " " + path, Err: readErr}
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return &DecodeError{Err: err, RawPreview: truncatePreview(respBody)}
			}
			return nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		return classifyStatus(resp.StatusCode, respBody)
	}
}

// classifyStatus always attempts the structured error shape first and only
// falls back to a bare status error when the body does not decode.
func classifyStatus(statusCode int, body []byte) error {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Code != "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       parsed.Code,
			Message:    parsed.Message,
		}
	}
	return &StatusError{
		StatusCode:  statusCode,
		BodyPreview: truncatePreview(body),
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
