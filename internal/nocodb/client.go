// Package nocodb is a minimal client for the NocoDB v2 records API, covering the
// calls the remote storage backend needs: list, insert, patch and delete rows of
// a single table.
package nocodb

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

	"github.com/dyluth/ucm/internal/logger"
)

// RowIDKey is the NocoDB system primary key column.
const RowIDKey = "Id"

// defaultPageSize is the number of rows requested per list call.
const defaultPageSize = 100

// maxMessageLen caps the raw body echoed into an error message, in runes.
const maxMessageLen = 200

// Row is a single table row as returned by the API.
type Row map[string]json.RawMessage

// RowID returns the NocoDB primary key of the row, or 0 if absent.
func (r Row) RowID() int64 {
	raw, ok := r[RowIDKey]
	if !ok {
		return 0
	}
	var id json.Number
	if err := json.Unmarshal(raw, &id); err != nil {
		// Some deployments return the key as a string
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		id = json.Number(s)
	}
	n, err := id.Int64()
	if err != nil {
		return 0
	}
	return n
}

// Client talks to one NocoDB table.
type Client struct {
	baseURL    string
	token      string
	tableID    string
	pageSize   int
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a client for the table identified by tableID.
// Each request is bounded by timeout. A nil log discards output.
func NewClient(baseURL, token, tableID string, timeout time.Duration, log *logger.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("api token cannot be empty")
	}
	if tableID == "" {
		return nil, fmt.Errorf("table id cannot be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		tableID:    tableID,
		pageSize:   defaultPageSize,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// APIError is a non-2xx response from NocoDB.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nocodb: HTTP %d: %s", e.StatusCode, e.Message)
}

func (c *Client) recordsURL() string {
	return fmt.Sprintf("%s/api/v2/tables/%s/records", c.baseURL, url.PathEscape(c.tableID))
}

// Ping verifies the table is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("limit", "1")
	_, err := c.send(ctx, http.MethodGet, c.recordsURL()+"?"+q.Encode(), nil)
	return err
}

type pageInfo struct {
	TotalRows  int  `json:"totalRows"`
	IsLastPage bool `json:"isLastPage"`
}

type page struct {
	rows []Row
	info *pageInfo // nil when the response carries no page info
}

// parsePage decodes a list response. A missing or null list is an empty page;
// any other shape is an error.
func parsePage(data []byte) (page, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return page{}, fmt.Errorf("response is not an object: %w", err)
	}

	var p page
	if raw, ok := body["list"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &p.rows); err != nil {
			return page{}, fmt.Errorf("list is not an array of rows: %w", err)
		}
	}
	if raw, ok := body["pageInfo"]; ok && !isNull(raw) {
		p.info = &pageInfo{}
		if err := json.Unmarshal(raw, p.info); err != nil {
			return page{}, fmt.Errorf("malformed pageInfo: %w", err)
		}
	}
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// List returns every row of the table, following pagination. Paging stops on
// the last page, a short page, or a response without page info. A response of
// unexpected shape ends the listing with the rows read so far and is logged.
func (c *Client) List(ctx context.Context) ([]Row, error) {
	rows := []Row{}
	offset := 0

	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(offset))

		data, err := c.send(ctx, http.MethodGet, c.recordsURL()+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		p, err := parsePage(data)
		if err != nil {
			c.log.Warn("Unexpected NocoDB list response, ignoring it", "offset", offset, "error", err)
			return rows, nil
		}

		rows = append(rows, p.rows...)
		offset += len(p.rows)

		if p.info == nil || p.info.IsLastPage || len(p.rows) < c.pageSize {
			return rows, nil
		}
		if p.info.TotalRows > 0 && offset >= p.info.TotalRows {
			return rows, nil
		}
	}
}

// Insert creates a row and returns the server's representation of it
// (typically just the new primary key).
func (c *Client) Insert(ctx context.Context, record any) (Row, error) {
	var created Row
	if err := c.do(ctx, http.MethodPost, c.recordsURL(), record, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Patch updates the given fields of the row with primary key rowID.
func (c *Client) Patch(ctx context.Context, rowID int64, fields map[string]any) error {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body[RowIDKey] = rowID
	return c.do(ctx, http.MethodPatch, c.recordsURL(), body, nil)
}

// Delete removes the row with primary key rowID.
func (c *Client) Delete(ctx context.Context, rowID int64) error {
	return c.do(ctx, http.MethodDelete, c.recordsURL(), map[string]any{RowIDKey: rowID}, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	data, err := c.send(ctx, method, target, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs one request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, method, target string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("xc-token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nocodb %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	return data, nil
}

// errorMessage extracts a human-readable message from an error response.
func errorMessage(status int, body []byte) string {
	var errResp struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		for _, m := range []string{errResp.Msg, errResp.Message, errResp.Error} {
			if m != "" {
				return m
			}
		}
	}

	switch status {
	case http.StatusUnauthorized:
		return "authentication failed, check NOCODB_API_TOKEN"
	case http.StatusForbidden:
		return "access denied for this token"
	case http.StatusNotFound:
		return "table not found, check NOCODB_TABLE_ID"
	}

	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > maxMessageLen {
		s = string(r[:maxMessageLen]) + "..."
	}
	if s == "" {
		s = http.StatusText(status)
	}
	return s
}
