//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnrichedDataset(t *testing.T) {
	payload := []byte(`{
		"enrichedDataset": [
			{
				"prompt": "What is the capital of France?",
				"ground_truth": "Paris",
				"actual_response": "The capital of France is Paris.",
				"context": "geography"
			},
			{
				"prompt": "2+2?",
				"groundTruth": "4",
				"actualResponse": "4"
			}
		],
		"metadata": {"total_items": 2, "created_at": "2025-06-01T00:00:00Z", "version": "v3"}
	}`)
	ds, err := ParseEnrichedDataset(payload)
	require.NoError(t, err)
	require.Len(t, ds.Items, 2)

	assert.Equal(t, "Paris", ds.Items[0].GroundTruth)
	assert.Equal(t, "The capital of France is Paris.", ds.Items[0].ActualResponse)
	assert.Equal(t, "geography", ds.Items[0].Context)

	assert.Equal(t, "4", ds.Items[1].GroundTruth)
	assert.Equal(t, "4", ds.Items[1].ActualResponse)

	assert.Equal(t, 2, ds.Metadata.TotalItems)
	assert.Equal(t, "2025-06-01T00:00:00Z", ds.Metadata.CreatedAt)
	assert.Equal(t, "v3", ds.Metadata.Version)
}

func TestParseEnrichedDatasetRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty payload", payload: ""},
		{name: "not json", payload: "<html>"},
		{name: "no items", payload: `{"enrichedDataset": []}`},
		{name: "wrong shape", payload: `{"enrichedDataset": "nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnrichedDataset([]byte(tt.payload))
			require.Error(t, err)
		})
	}
}
