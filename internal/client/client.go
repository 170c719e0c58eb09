// Package client talks to a remote MindCare API. It implements the
// report store, history source and alert submitter contracts so a
// fusion session can run outside the server process.
package client

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

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/assessments"
	"github.com/wyxpro/mindcare/internal/escalation"
	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
)

// DefaultTimeout bounds each request when no client is supplied.
const DefaultTimeout = 10 * time.Second

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError carries the response status and server message.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type created struct {
	ID uuid.UUID `json:"id"`
}

// Client is an HTTP client for the assessments and alerts endpoints.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New creates a client rooted at the API base URL, e.g.
// "https://mindcare.example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitReport posts a report submission and returns the stored assessment ID.
func (c *Client) SubmitReport(ctx context.Context, sub reportsync.Submission) (uuid.UUID, error) {
	var out created
	if err := c.do(ctx, http.MethodPost, "/assessments", nil, sub, &out); err != nil {
		return uuid.Nil, fmt.Errorf("submit report: %w", err)
	}
	return out.ID, nil
}

// HistoricalReports fetches the user's newest reports.
func (c *Client) HistoricalReports(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var items []assessments.Assessment
	path := "/assessments/users/" + userID.String() + "/recent"
	if err := c.do(ctx, http.MethodGet, path, q, nil, &items); err != nil {
		return nil, fmt.Errorf("fetch historical reports: %w", err)
	}

	reports := make([]fusion.Report, len(items))
	for i, a := range items {
		reports[i] = a.Report()
	}
	return reports, nil
}

// SubmitRiskAlert posts an alert and returns its ID.
func (c *Client) SubmitRiskAlert(ctx context.Context, alert escalation.Alert) (uuid.UUID, error) {
	var out created
	if err := c.do(ctx, http.MethodPost, "/alerts", nil, alert, &out); err != nil {
		return uuid.Nil, fmt.Errorf("submit risk alert: %w", err)
	}
	return out.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
