package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rhettg/noteapi/internal/notes"
)

// Client talks to a noteapi server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new noteapi client
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/"), HTTPClient: http.DefaultClient}
}

// ListNotes returns the most recent notes, newest first.
func (c *Client) ListNotes(ctx context.Context) ([]notes.Note, error) {
	resp, err := c.do(ctx, http.MethodGet, "/notes/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out []notes.Note
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding notes: %w", err)
	}
	return out, nil
}

// CreateNote posts n. The server does not return the assigned id.
func (c *Client) CreateNote(ctx context.Context, n notes.Note) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, "/notes/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return statusError(resp)
	}
	return nil
}

// Probe GETs one of the probe routes and returns its body.
func (c *Client) Probe(ctx context.Context, path string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %v", err)
	}
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP %s error: %w", method, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
