//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package exactmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		item      *dataset.Item
		params    map[string]any
		wantScore float64
	}{
		{
			name:      "identical strings",
			item:      &dataset.Item{GroundTruth: "Paris", ActualResponse: "Paris"},
			wantScore: 1.0,
		},
		{
			name:      "case and punctuation ignored by default",
			item:      &dataset.Item{GroundTruth: "Paris", ActualResponse: "paris!"},
			wantScore: 1.0,
		},
		{
			name:      "different strings",
			item:      &dataset.Item{GroundTruth: "Paris", ActualResponse: "London"},
			wantScore: 0.0,
		},
		{
			name:      "case sensitive mismatch",
			item:      &dataset.Item{GroundTruth: "Paris", ActualResponse: "paris"},
			params:    map[string]any{"case_sensitive": true},
			wantScore: 0.0,
		},
		{
			name:      "case sensitive match",
			item:      &dataset.Item{GroundTruth: "Paris", ActualResponse: "Paris"},
			params:    map[string]any{"case_sensitive": true},
			wantScore: 1.0,
		},
		{
			name:      "empty ground truth never matches",
			item:      &dataset.Item{GroundTruth: "", ActualResponse: ""},
			wantScore: 0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &metric.Definition{Name: "exact_match", Threshold: 0.5, Parameters: tt.params}
			ev, err := NewFactory()(def)
			require.NoError(t, err)
			res, err := ev.Evaluate(context.Background(), tt.item, def)
			require.NoError(t, err)
			require.NotNil(t, res.Score)
			assert.Equal(t, tt.wantScore, *res.Score)
			assert.Equal(t, tt.wantScore >= def.Threshold, *res.Passed)
		})
	}
}

func TestFactoryRejectsBadParameter(t *testing.T) {
	def := &metric.Definition{
		Name:       "exact_match",
		Parameters: map[string]any{"case_sensitive": "yes"},
	}
	_, err := NewFactory()(def)
	require.Error(t, err)
}

func TestEvaluateNilItem(t *testing.T) {
	def := &metric.Definition{Name: "exact_match"}
	ev, err := NewFactory()(def)
	require.NoError(t, err)
	_, err = ev.Evaluate(context.Background(), nil, def)
	require.Error(t, err)
}
