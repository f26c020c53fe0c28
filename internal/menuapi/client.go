package menuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lunch-menu/internal/config"
	"lunch-menu/internal/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Recorder receives one metric per backend call. metrics.Store satisfies it.
type Recorder interface {
	Record(m metrics.CallMetric) error
}

// Client dispatches requests to the menu backend. Every call is a single
// attempt: there is no retry and no timeout beyond the transport defaults.
type Client struct {
	http     *resty.Client
	recorder Recorder
	log      logrus.FieldLogger
}

// NewClient creates a new backend client for cfg.BackendURL.
// recorder may be nil.
func NewClient(cfg *config.Config, recorder Recorder) *Client {
	return &Client{
		http:     resty.New().SetBaseURL(cfg.BackendURL),
		recorder: recorder,
		log:      logrus.WithField("component", "menuapi"),
	}
}

// Call POSTs payload as JSON to /api/{endpoint} and returns the raw JSON body.
//
// The body is always read in full before it is interpreted: invalid JSON
// yields ErrInvalidResponse, a non-2xx status yields *APIError carrying the
// backend's "error" or "message" field, and an empty 2xx body yields
// ErrEmptyResponse. Failures are logged and returned to the caller.
func (c *Client) Call(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	start := time.Now()
	data, status, err := c.do(ctx, endpoint, payload)
	c.record(endpoint, status, err, time.Since(start))

	if err != nil {
		c.log.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"status":   status,
		}).WithError(err).Error("backend call failed")
		return nil, err
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, endpoint string, payload any) (json.RawMessage, int, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Post("/api/" + endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	status := resp.StatusCode()
	text := bytes.TrimSpace(resp.Body())

	var data json.RawMessage
	if len(text) > 0 && !bytes.Equal(text, []byte("null")) {
		if !json.Valid(text) {
			return nil, status, ErrInvalidResponse
		}
		data = json.RawMessage(text)
	}

	if !resp.IsSuccess() {
		return nil, status, &APIError{
			Endpoint:   endpoint,
			StatusCode: status,
			Message:    errorMessage(data, status),
		}
	}

	if data == nil {
		return nil, status, ErrEmptyResponse
	}
	return data, status, nil
}

// errorMessage picks the user-visible text out of an error body.
func errorMessage(data json.RawMessage, status int) string {
	if data == nil {
		return statusMessage(status)
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return statusMessage(status)
	}
	if body.Error != "" {
		return body.Error
	}
	if body.Message != "" {
		return body.Message
	}
	return statusMessage(status)
}

func (c *Client) record(endpoint string, status int, callErr error, latency time.Duration) {
	if c.recorder == nil {
		return
	}
	m := metrics.CallMetric{
		Endpoint:   endpoint,
		StatusCode: status,
		Success:    callErr == nil,
		LatencyMS:  latency.Milliseconds(),
	}
	if err := c.recorder.Record(m); err != nil {
		c.log.WithError(err).Warn("failed to record call metric")
	}
}

// callInto runs Call and decodes the body into out.
func (c *Client) callInto(ctx context.Context, endpoint string, payload, out any) error {
	data, err := c.Call(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.WithField("endpoint", endpoint).WithError(err).Error("unexpected response shape")
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
