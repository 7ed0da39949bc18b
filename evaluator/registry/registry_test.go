//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package registry

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

type stubEvaluator struct{}

func (stubEvaluator) Name() string        { return "stub" }
func (stubEvaluator) Description() string { return "stub evaluator" }
func (stubEvaluator) Evaluate(_ context.Context, _ *dataset.Item,
	def *metric.Definition) (*metric.Result, error) {
	return metric.NewResult(def.Name, 1.0, def.Threshold, ""), nil
}

func stubFactory() evaluator.Factory {
	return func(*metric.Definition) (evaluator.Evaluator, error) {
		return stubEvaluator{}, nil
	}
}

func TestNewRegistersBuiltins(t *testing.T) {
	r := New()
	assert.Equal(t, []string{"exact_match", "f1_score", "rouge_l"}, r.List())
}

func TestRegisterAndGet(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("My Metric", stubFactory()))

	// Lookup is normalized the same way as registration.
	f, err := r.Get("my_metric")
	require.NoError(t, err)
	assert.NotNil(t, f)
	f, err = r.Get("My-Metric")
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = r.Get("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRegisterRejectsInvalid(t *testing.T) {
	r := New()
	require.Error(t, r.Register("name", nil))
	require.Error(t, r.Register("", stubFactory()))
}

func TestResolve(t *testing.T) {
	r := New()
	defs := []*metric.Definition{
		{Name: "exact_match", Threshold: 0.5},
		{Name: "no_such_metric", Threshold: 0.5},
		{Name: "f1_score", Threshold: 0.5, Parameters: map[string]any{"measure": 42}},
	}
	resolved := r.Resolve(defs)
	require.Len(t, resolved, 3)

	assert.NotNil(t, resolved[0].Evaluator)
	assert.NoError(t, resolved[0].Err)

	// Unknown metric and bad parameters resolve with Err set instead of
	// aborting the rest.
	assert.Nil(t, resolved[1].Evaluator)
	assert.Error(t, resolved[1].Err)
	assert.Nil(t, resolved[2].Evaluator)
	assert.Error(t, resolved[2].Err)
}
