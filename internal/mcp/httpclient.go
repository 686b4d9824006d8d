package mcp

import (
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

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server relies on tailnet identity.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// statusError is a non-200 response from the API.
type statusError struct {
	path   string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.path, e.status, e.body)
}

func hasStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{path: path, status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// getJSON fetches path and decodes the body into a T.
func getJSON[T any](ctx context.Context, c *HTTPClient, path string, params url.Values) (T, error) {
	var out T
	body, err := c.get(ctx, path, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return out, nil
}

func periodParams(p stats.Period) url.Values {
	v := url.Values{}
	v.Set("period", string(p))
	return v
}

func exercisePath(id, leaf string) string {
	return "/api/v1/stats/exercises/" + url.PathEscape(id) + "/" + leaf
}

func (c *HTTPClient) Overview(ctx context.Context, p stats.Period) (*stats.OverviewStats, error) {
	return getJSON[*stats.OverviewStats](ctx, c, "/api/v1/stats/overview", periodParams(p))
}

func (c *HTTPClient) SessionTypeStats(ctx context.Context, t models.WorkoutType, p stats.Period) (*stats.SessionTypeStats, error) {
	return getJSON[*stats.SessionTypeStats](ctx, c, "/api/v1/stats/types/"+url.PathEscape(string(t)), periodParams(p))
}

func (c *HTTPClient) TopExercises(ctx context.Context, p stats.Period, limit int, t models.WorkoutType) ([]stats.TopExercise, error) {
	params := periodParams(p)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if t != "" {
		params.Set("type", string(t))
	}
	return getJSON[[]stats.TopExercise](ctx, c, "/api/v1/stats/top", params)
}

func (c *HTTPClient) Insights(ctx context.Context, p stats.Period) ([]stats.Insight, error) {
	return getJSON[[]stats.Insight](ctx, c, "/api/v1/stats/insights", periodParams(p))
}

func (c *HTTPClient) PersonalRecords(ctx context.Context) ([]stats.PersonalRecord, error) {
	return getJSON[[]stats.PersonalRecord](ctx, c, "/api/v1/stats/records", nil)
}

func (c *HTTPClient) ExerciseProgress(ctx context.Context, exerciseID string, p stats.Period) ([]stats.ProgressPoint, error) {
	return getJSON[[]stats.ProgressPoint](ctx, c, exercisePath(exerciseID, "progress"), periodParams(p))
}

func (c *HTTPClient) OneRMProgression(ctx context.Context, exerciseID string, p stats.Period) ([]stats.OneRMPoint, error) {
	return getJSON[[]stats.OneRMPoint](ctx, c, exercisePath(exerciseID, "one-rm"), periodParams(p))
}

func (c *HTTPClient) ExerciseHistory(ctx context.Context, exerciseID string, p stats.Period) ([]stats.HistorySession, error) {
	return getJSON[[]stats.HistorySession](ctx, c, exercisePath(exerciseID, "history"), periodParams(p))
}

func (c *HTTPClient) LastPerformance(ctx context.Context, exerciseID string) ([]stats.LastPerformanceSet, error) {
	return getJSON[[]stats.LastPerformanceSet](ctx, c, exercisePath(exerciseID, "last"), nil)
}

func (c *HTTPClient) MuscleVolumeThisWeek(ctx context.Context) (*stats.MuscleWeek, error) {
	return getJSON[*stats.MuscleWeek](ctx, c, "/api/v1/stats/muscles/week", nil)
}

func (c *HTTPClient) HeatmapData(ctx context.Context, year int) ([]stats.HeatmapDay, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))
	return getJSON[[]stats.HeatmapDay](ctx, c, "/api/v1/stats/heatmap", params)
}

func (c *HTTPClient) WeekActivity(ctx context.Context) (*stats.WeekActivity, error) {
	return getJSON[*stats.WeekActivity](ctx, c, "/api/v1/stats/week", nil)
}

func (c *HTTPClient) Dashboard(ctx context.Context, p stats.Period) (*stats.Dashboard, error) {
	return getJSON[*stats.Dashboard](ctx, c, "/api/v1/stats/dashboard", periodParams(p))
}

func (c *HTTPClient) ComparableSessions(ctx context.Context, t models.WorkoutType, limit int) ([]stats.ComparableSession, error) {
	params := url.Values{}
	params.Set("type", string(t))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return getJSON[[]stats.ComparableSession](ctx, c, "/api/v1/sessions/comparable", params)
}

// SessionForComparison returns nil without error when the server reports the
// session missing.
func (c *HTTPClient) SessionForComparison(ctx context.Context, id string) (*stats.ComparisonSession, error) {
	out, err := getJSON[*stats.ComparisonSession](ctx, c, "/api/v1/sessions/"+url.PathEscape(id)+"/comparison", nil)
	if hasStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	return out, err
}

// CompareSessions mirrors the engine: nil for a missing session and
// stats.ErrSessionTypeMismatch for mixed workout types.
func (c *HTTPClient) CompareSessions(ctx context.Context, aID, bID string) (*stats.Comparison, error) {
	params := url.Values{}
	params.Set("a", aID)
	params.Set("b", bID)
	out, err := getJSON[*stats.Comparison](ctx, c, "/api/v1/sessions/compare", params)
	switch {
	case hasStatus(err, http.StatusNotFound):
		return nil, nil
	case hasStatus(err, http.StatusUnprocessableEntity):
		return nil, fmt.Errorf("%w: %v", stats.ErrSessionTypeMismatch, err)
	}
	return out, err
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return getJSON[[]models.Exercise](ctx, c, "/api/v1/exercises", nil)
}
