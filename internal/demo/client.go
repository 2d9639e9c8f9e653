package demo

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

	"github.com/okian/candirank/internal/adapters/repository"
	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/domain/model"
)

// drainPollInterval is how often Drain polls /stats.
const drainPollInterval = 50 * time.Millisecond

// APIError is a non-2xx response from the ranking service.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps well-known error codes back to service errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "not_found":
		return service.ErrNotFound
	case "unknown_reference":
		return service.ErrUnknownReference
	case "backpressure":
		return service.ErrBackpressure
	case "not_started":
		return service.ErrNotStarted
	case "bad_request", "limit_exceeded":
		return model.ErrInvalid
	}
	return nil
}

// Client talks to a running ranking service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

type storedResponse struct {
	Stored int `json:"stored"`
}

// PutSkills implements Target.
func (c *Client) PutSkills(ctx context.Context, skills []model.Skill) (int, error) {
	var out storedResponse
	err := c.do(ctx, http.MethodPut, "/skills", skills, &out)
	return out.Stored, err
}

// PutPositions implements Target.
func (c *Client) PutPositions(ctx context.Context, positions []model.Position) (int, error) {
	var out storedResponse
	err := c.do(ctx, http.MethodPut, "/positions", positions, &out)
	return out.Stored, err
}

// PutCandidates implements Target.
func (c *Client) PutCandidates(ctx context.Context, candidates []model.Candidate) (int, error) {
	var out storedResponse
	err := c.do(ctx, http.MethodPut, "/candidates", candidates, &out)
	return out.Stored, err
}

// SubmitEvaluation implements Target.
func (c *Client) SubmitEvaluation(ctx context.Context, e model.Evaluation) (service.Submission, error) { //nolint:gocritic // hugeParam: mirrors the service signature
	var out service.Submission
	err := c.do(ctx, http.MethodPost, "/evaluations", e, &out)
	return out, err
}

// Stats fetches service statistics.
func (c *Client) Stats(ctx context.Context) (service.Stats, error) {
	var out service.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out)
	return out, err
}

// Drain implements Target by polling /stats until nothing is pending.
func (c *Client) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		st, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		if st.Pending == 0 && st.QueueLength == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Ranking implements Target.
func (c *Client) Ranking(ctx context.Context, positionID string, n int) ([]repository.Entry, error) {
	var out struct {
		Entries []repository.Entry `json:"entries"`
	}
	path := "/positions/" + url.PathEscape(positionID) + "/ranking?limit=" + strconv.Itoa(n)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsRetryable reports whether err is worth retrying later.
func IsRetryable(err error) bool {
	return errors.Is(err, service.ErrBackpressure) || errors.Is(err, service.ErrNotStarted)
}
