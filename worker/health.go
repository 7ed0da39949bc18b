//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// Health tracks liveness and readiness of the worker.
// The process is alive as soon as it starts; it is ready once the run loop
// is consuming the queue.
type Health struct {
	ready      atomic.Bool
	processing atomic.Value // string, eval run id or empty
}

func newHealth() *Health {
	h := &Health{}
	h.processing.Store("")
	return h
}

func (h *Health) setReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) setProcessing(evalRunID string) {
	h.processing.Store(evalRunID)
}

// Ready reports whether the run loop is consuming the queue.
func (h *Health) Ready() bool {
	return h.ready.Load()
}

// Processing returns the eval run id in flight, empty when idle.
func (h *Health) Processing() string {
	v, _ := h.processing.Load().(string)
	return v
}

// Handler serves the /health and /ready endpoints.
func (h *Health) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !h.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ready",
			"processing": h.Processing(),
		})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthServer exposes the health endpoints over HTTP.
type HealthServer struct {
	srv *http.Server
}

// NewHealthServer creates the health endpoint server on addr.
func NewHealthServer(addr string, h *Health) *HealthServer {
	return &HealthServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *HealthServer) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
