//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package sink delivers finished evaluation summaries to the content store
// and the Evaluation Platform results API.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-eval-runner/evalresult"
	"trpc.group/trpc-go/trpc-eval-runner/log"
	"trpc.group/trpc-go/trpc-eval-runner/store"
)

// contentType of persisted summaries.
const contentType = "application/json"

// ResultsAPI posts detailed results back to the platform.
type ResultsAPI interface {
	PostResults(ctx context.Context, evalRunID string, results any) error
}

// Sink persists summaries and forwards them to the results API.
// The store write happens before any status transition so that a Completed
// run always has its summary readable.
type Sink struct {
	store store.ContentStore
	api   ResultsAPI
}

// Option configures the Sink.
type Option func(*Sink)

// WithResultsAPI enables posting results to the platform API.
func WithResultsAPI(api ResultsAPI) Option {
	return func(s *Sink) {
		s.api = api
	}
}

// New creates a Sink writing to the given content store.
func New(st store.ContentStore, opt ...Option) (*Sink, error) {
	if st == nil {
		return nil, errors.New("content store is nil")
	}
	s := &Sink{store: st}
	for _, o := range opt {
		o(s)
	}
	return s, nil
}

// SummaryKey returns the content store key of a run's summary.
func SummaryKey(agentID, evalRunID string) string {
	return fmt.Sprintf("%s/evaluations/%s.json", agentID, evalRunID)
}

// Publish persists the summary and posts it to the results API.
//
// The store write is the source of truth: its failure fails the publish.
// The results API post is best-effort; a failure is logged and does not
// fail the run, the platform can re-read the summary from the store.
func (s *Sink) Publish(ctx context.Context, summary *evalresult.Summary) (string, error) {
	if summary == nil {
		return "", errors.New("summary is nil")
	}
	key := SummaryKey(summary.AgentID, summary.EvalRunID)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("store summary %s: %w", key, err)
	}
	if s.api != nil {
		if err := s.api.PostResults(ctx, summary.EvalRunID, summary); err != nil {
			log.Warnf("post results for run %s: %v", summary.EvalRunID, err)
		}
	}
	return key, nil
}

// PublishPartial persists whatever summary a failed run produced.
// Everything is best-effort here; the run is already being marked failed.
func (s *Sink) PublishPartial(ctx context.Context, summary *evalresult.Summary) {
	if summary == nil {
		return
	}
	key := SummaryKey(summary.AgentID, summary.EvalRunID)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Warnf("encode partial summary for run %s: %v", summary.EvalRunID, err)
		return
	}
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		log.Warnf("store partial summary %s: %v", key, err)
	}
}
