package upload

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

	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/storage"
)

const maxAttempts = 3

// Client sends backups to a liftlog server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client

	// backoff is the delay before the first retry; it doubles per attempt.
	backoff time.Duration
}

// NewClient creates a new HTTP client for the liftlog server. An empty
// apiKey sends no X-API-Key header.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// ServerURL returns the base URL uploads are sent to.
func (c *Client) ServerURL() string {
	return c.serverURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// Upload POSTs a backup to the server's import endpoint and returns the
// server's import stats. Network failures and 5xx responses are retried up
// to 3 times with exponential backoff; any other status fails at once.
func (c *Client) Upload(ctx context.Context, name string, backup []byte, mode storage.ImportMode, dryRun bool) (*importer.Stats, error) {
	q := url.Values{}
	q.Set("mode", string(mode))
	if dryRun {
		q.Set("dry_run", strconv.FormatBool(true))
	}
	path := "/api/v1/import?" + q.Encode()

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := c.newRequest(ctx, http.MethodPost, path, backup)
		if err != nil {
			return nil, fmt.Errorf("building import request: %w", err)
		}
		req.Header.Set("X-Backup-Name", name)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var stats importer.Stats
			if err := json.Unmarshal(body, &stats); err != nil {
				return nil, fmt.Errorf("decoding import stats: %w", err)
			}
			return &stats, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("import failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		default:
			return nil, fmt.Errorf("import rejected (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// ImportLogs fetches the server's most recent import logs.
func (c *Client) ImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/imports?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, fmt.Errorf("building import logs request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching import logs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("import logs request failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var logs []storage.ImportLog
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		return nil, fmt.Errorf("decoding import logs: %w", err)
	}
	return logs, nil
}
