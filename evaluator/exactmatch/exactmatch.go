//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package exactmatch provides deterministic exact-match evaluation of agent responses.
package exactmatch

import (
	"context"
	"errors"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator"
	"trpc.group/trpc-go/trpc-eval-runner/internal/textsim"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// exactMatchEvaluator scores a response 1.0 when it matches the ground truth.
type exactMatchEvaluator struct {
	// caseSensitive disables normalization before comparison.
	caseSensitive bool
}

// NewFactory returns the factory registered under "exact_match".
// The "case_sensitive" parameter (bool, default false) compares raw strings
// instead of normalized ones.
func NewFactory() evaluator.Factory {
	return func(def *metric.Definition) (evaluator.Evaluator, error) {
		e := &exactMatchEvaluator{}
		if raw, ok := def.Parameters["case_sensitive"]; ok {
			v, ok := raw.(bool)
			if !ok {
				return nil, errors.New("case_sensitive parameter must be a bool")
			}
			e.caseSensitive = v
		}
		return e, nil
	}
}

// Name returns the evaluator identifier.
func (e *exactMatchEvaluator) Name() string {
	return "exact_match"
}

// Description describes the evaluator purpose.
func (e *exactMatchEvaluator) Description() string {
	return "Scores 1.0 when the actual response matches the ground truth exactly"
}

// Evaluate compares the actual response against the ground truth.
func (e *exactMatchEvaluator) Evaluate(_ context.Context, item *dataset.Item,
	def *metric.Definition) (*metric.Result, error) {
	if item == nil {
		return nil, errors.New("dataset item is nil")
	}
	actual, expected := item.ActualResponse, item.GroundTruth
	if !e.caseSensitive {
		actual, expected = textsim.Normalize(actual), textsim.Normalize(expected)
	}
	score := 0.0
	reason := "response does not match ground truth"
	if expected != "" && actual == expected {
		score = 1.0
		reason = "response matches ground truth"
	}
	return metric.NewResult(def.Name, score, def.Threshold, reason), nil
}
