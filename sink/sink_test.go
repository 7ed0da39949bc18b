//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-runner/evalresult"
	"trpc.group/trpc-go/trpc-eval-runner/store/inmemory"
)

type fakeResultsAPI struct {
	calls int
	err   error
}

func (f *fakeResultsAPI) PostResults(_ context.Context, _ string, _ any) error {
	f.calls++
	return f.err
}

type failingStore struct {
	inmemory.Store
}

func (*failingStore) Put(_ context.Context, _ string, _ []byte, _ string) error {
	return errors.New("bucket unavailable")
}

func testSummary() *evalresult.Summary {
	return &evalresult.Summary{
		EvalRunID:      "run-1",
		AgentID:        "agent-1",
		TotalItems:     1,
		TotalMetrics:   1,
		OverallSuccess: true,
		ExecutionTime:  time.Second,
		GeneratedAt:    time.Unix(1750000000, 0).UTC(),
	}
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "agent-1/evaluations/run-1.json", SummaryKey("agent-1", "run-1"))
}

func TestPublishStoresSummary(t *testing.T) {
	st := inmemory.New()
	api := &fakeResultsAPI{}
	s, err := New(st, WithResultsAPI(api))
	require.NoError(t, err)

	key, err := s.Publish(context.Background(), testSummary())
	require.NoError(t, err)
	assert.Equal(t, "agent-1/evaluations/run-1.json", key)
	assert.Equal(t, 1, api.calls)

	data, err := st.Get(context.Background(), key)
	require.NoError(t, err)
	var stored evalresult.Summary
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "run-1", stored.EvalRunID)
	assert.True(t, stored.OverallSuccess)
}

func TestPublishAPIFailureIsBestEffort(t *testing.T) {
	st := inmemory.New()
	api := &fakeResultsAPI{err: errors.New("api down")}
	s, err := New(st, WithResultsAPI(api))
	require.NoError(t, err)

	// The stored summary is the source of truth, so a failed post
	// does not fail the publish.
	key, err := s.Publish(context.Background(), testSummary())
	require.NoError(t, err)
	_, err = st.Get(context.Background(), key)
	require.NoError(t, err)
}

func TestPublishStoreFailure(t *testing.T) {
	s, err := New(&failingStore{})
	require.NoError(t, err)
	_, err = s.Publish(context.Background(), testSummary())
	require.Error(t, err)
}

func TestPublishPartialNeverPanics(t *testing.T) {
	s, err := New(&failingStore{})
	require.NoError(t, err)
	s.PublishPartial(context.Background(), testSummary())
	s.PublishPartial(context.Background(), nil)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
