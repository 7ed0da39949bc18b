//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package evalapi provides the client for the Evaluation Platform
// Configuration and Status APIs.
package evalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
	"trpc.group/trpc-go/trpc-eval-runner/status"
)

const (
	// defaultConnectTimeout bounds TCP connection establishment.
	defaultConnectTimeout = 30 * time.Second
	// defaultReadTimeout bounds a full request/response round trip.
	defaultReadTimeout = 60 * time.Second
)

// Client calls the Evaluation Platform APIs over a pooled HTTP transport.
// One Client is created per process and shared across runs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*options)

type options struct {
	httpClient     *http.Client
	connectTimeout time.Duration
	readTimeout    time.Duration
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithConnectTimeout overrides the connection establishment timeout.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = timeout
	}
}

// WithReadTimeout overrides the full round-trip timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.readTimeout = timeout
	}
}

// NewClient creates a Client for the given API base URL.
func NewClient(baseURL string, opt ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("api base url is empty")
	}
	opts := &options{
		connectTimeout: defaultConnectTimeout,
		readTimeout:    defaultReadTimeout,
	}
	for _, o := range opt {
		o(opts)
	}
	httpClient := opts.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   opts.connectTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// FetchDataset retrieves the enriched dataset for the given eval run.
func (c *Client) FetchDataset(ctx context.Context, evalRunID string) (*dataset.Dataset, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/v1/evaluations/%s/dataset", evalRunID), "enriched dataset")
	if err != nil {
		return nil, err
	}
	ds, err := dataset.ParseEnrichedDataset(body)
	if err != nil {
		return nil, configurationError("parse enriched dataset", err)
	}
	return ds, nil
}

// FetchMetricsConfiguration retrieves the metrics configuration by ID.
func (c *Client) FetchMetricsConfiguration(ctx context.Context, configurationID string) (*metric.Configuration, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/v1/metrics-configurations/%s", configurationID), "metrics configuration")
	if err != nil {
		return nil, err
	}
	cfg, err := metric.ParseConfiguration(body)
	if err != nil {
		return nil, configurationError("parse metrics configuration", err)
	}
	return cfg, nil
}

// statusUpdate is the wire body of a status transition.
type statusUpdate struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
}

// UpdateStatus reports a run status transition to the Status API.
// A conflict response for an already-terminal run is treated as success so
// that redelivered messages can re-report terminal states idempotently.
func (c *Client) UpdateStatus(ctx context.Context, evalRunID string, st status.RunStatus, message string) error {
	update := statusUpdate{
		Status:    st.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   message,
	}
	resp, err := c.send(ctx, http.MethodPut, fmt.Sprintf("/api/v1/evaluations/%s/status", evalRunID), update)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusConflict && st.Terminal() {
		// Run already reached a terminal state; re-reporting is a no-op.
		return nil
	}
	return c.responseError(resp, "update status")
}

// PostResults posts the evaluation summary and detailed results to the API.
func (c *Client) PostResults(ctx context.Context, evalRunID string, results any) error {
	resp, err := c.send(ctx, http.MethodPost, fmt.Sprintf("/api/v1/evaluations/%s/results", evalRunID), results)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return c.responseError(resp, "post results")
}

// get performs a GET and maps non-2xx responses onto the error taxonomy.
func (c *Client) get(ctx context.Context, path, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, configurationError("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError("get "+resource, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError("read "+resource, err)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFoundError(resource)
	default:
		return nil, c.responseError(resp, "get "+resource)
	}
}

// send marshals body as JSON and issues the request.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, configurationError("encode request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, configurationError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(method+" "+path, err)
	}
	return resp, nil
}

// responseError decodes the platform error shape from a non-2xx response.
// Server-side failures (5xx) and throttling (408/429) are retryable.
func (c *Client) responseError(resp *http.Response, op string) error {
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("%s: unexpected status %d", op, resp.StatusCode),
		Transient: resp.StatusCode >= 500 ||
			resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooManyRequests,
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}
	var wire wireError
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error.Code != "" {
		apiErr.Code = wire.Error.Code
		apiErr.Message = wire.Error.Message
	}
	return apiErr
}
