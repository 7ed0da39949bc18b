//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package textoverlap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

func TestEvaluateMeasures(t *testing.T) {
	// Reference "a b c d", candidate "a b": precision 1, recall 0.5, f1 2/3.
	item := &dataset.Item{GroundTruth: "a b c d", ActualResponse: "a b"}
	tests := []struct {
		name      string
		params    map[string]any
		wantScore float64
	}{
		{name: "default f1", wantScore: 2.0 / 3.0},
		{name: "precision", params: map[string]any{"measure": "precision"}, wantScore: 1.0},
		{name: "recall", params: map[string]any{"measure": "recall"}, wantScore: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &metric.Definition{Name: "f1_score", Threshold: 0.5, Parameters: tt.params}
			ev, err := NewFactory()(def)
			require.NoError(t, err)
			res, err := ev.Evaluate(context.Background(), item, def)
			require.NoError(t, err)
			require.NotNil(t, res.Score)
			assert.InDelta(t, tt.wantScore, *res.Score, 1e-9)
		})
	}
}

func TestEvaluateNoOverlap(t *testing.T) {
	def := &metric.Definition{Name: "f1_score", Threshold: 0.5}
	ev, err := NewFactory()(def)
	require.NoError(t, err)
	res, err := ev.Evaluate(context.Background(),
		&dataset.Item{GroundTruth: "alpha beta", ActualResponse: "gamma delta"}, def)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *res.Score)
	assert.False(t, *res.Passed)
}

func TestFactoryRejectsUnknownMeasure(t *testing.T) {
	def := &metric.Definition{
		Name:       "f1_score",
		Parameters: map[string]any{"measure": "accuracy"},
	}
	_, err := NewFactory()(def)
	require.Error(t, err)
}
