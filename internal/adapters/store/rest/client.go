// Package rest implements the remote catalog store over a PostgREST-style
// HTTP API: the table rides in the path, filters and ordering in the query
// string. The store assigns record ids; this client never sends one on
// insert.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

const maxResponseBytes = 1 << 20

type Client struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration

	// BearerToken returns the current access token, if any. Wired to the
	// identity adapter so catalog calls ride the signed-in session; when it
	// returns "" the anon key alone authenticates the request.
	BearerToken func() string
}

var _ ports.CatalogStore = (*Client)(nil)

type storeErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Code    string `json:"code"`
}

func (e storeErrorResponse) String() string {
	if e.Message == "" {
		return "unknown store error"
	}
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Details)
}

func (c *Client) List(ctx context.Context, table string, orderBy string) ([]domain.InvestmentOption, error) {
	if orderBy == "" {
		orderBy = "id"
	}

	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", orderBy+".asc")

	resp, err := c.do(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, "list rows"); err != nil {
		return nil, err
	}

	var rows []optionRow
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode catalog rows: %w", err)
	}

	options := make([]domain.InvestmentOption, 0, len(rows))
	for _, row := range rows {
		option, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("malformed catalog row: %w", err)
		}
		options = append(options, option)
	}

	return options, nil
}

func (c *Client) Insert(ctx context.Context, table string, draft domain.OptionDraft) error {
	body, err := json.Marshal([]draftRow{toDraftRow(draft)})
	if err != nil {
		return fmt.Errorf("encode insert payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, table, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkStatus(resp, "insert row")
}

func (c *Client) Update(ctx context.Context, table string, id domain.OptionID, patch domain.OptionPatch) error {
	if patch.Empty() {
		return nil
	}

	body, err := json.Marshal(toPatchBody(patch))
	if err != nil {
		return fmt.Errorf("encode update payload: %w", err)
	}

	query := url.Values{}
	query.Set("id", "eq."+string(id))

	resp, err := c.do(ctx, http.MethodPatch, table, query, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkStatus(resp, "update row")
}

func (c *Client) Delete(ctx context.Context, table string, id domain.OptionID) error {
	query := url.Values{}
	query.Set("id", "eq."+string(id))

	resp, err := c.do(ctx, http.MethodDelete, table, query, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkStatus(resp, "delete row")
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Response, error) {
	endpoint, err := c.tableURL(table, query)
	if err != nil {
		return nil, err
	}

	requestCtx := ctx
	var cancel context.CancelFunc = func() {}
	if c.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
	}

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create %s request: %w", strings.ToLower(method), err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}
	token := c.APIKey
	if c.BearerToken != nil {
		if t := c.BearerToken(); t != "" {
			token = t
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), table, err)
	}

	// The cancel func is tied to the response body lifetime; wrapping Close
	// keeps the timeout context alive until the caller has read the body.
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) tableURL(table string, query url.Values) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("store base url is required")
	}
	if strings.TrimSpace(table) == "" {
		return "", errors.New("table key is required")
	}

	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/rest/v1/" + url.PathEscape(table))
	if err != nil {
		return "", fmt.Errorf("parse store url: %w", err)
	}
	if query != nil {
		base.RawQuery = query.Encode()
	}

	return base.String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func checkStatus(resp *http.Response, operation string) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var payload storeErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload)

	return fmt.Errorf("%s: %s (status %d)", operation, payload, resp.StatusCode)
}

type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
