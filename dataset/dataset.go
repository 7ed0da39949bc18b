//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package dataset provides the enriched dataset consumed by an evaluation run.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Item is one (prompt, ground truth, actual response, context) tuple under evaluation.
// Items are read-only inputs to every metric.
type Item struct {
	// Prompt is the input that was sent to the agent.
	Prompt string `json:"prompt"`
	// GroundTruth is the reference answer for the prompt.
	GroundTruth string `json:"groundTruth"`
	// ActualResponse is the response produced by the agent.
	ActualResponse string `json:"actualResponse"`
	// Context is optional supporting material supplied with the prompt.
	Context string `json:"context,omitempty"`
}

// Metadata describes the enriched dataset payload.
type Metadata struct {
	// TotalItems is the item count reported by the Configuration API.
	TotalItems int `json:"totalItems,omitempty"`
	// CreatedAt is the dataset creation timestamp as reported by the API.
	CreatedAt string `json:"createdAt,omitempty"`
	// Version is the dataset version as reported by the API.
	Version string `json:"version,omitempty"`
}

// Dataset is the ordered list of items evaluated in one run.
type Dataset struct {
	// Items contains the dataset items in API order.
	Items []*Item `json:"items"`
	// Metadata carries payload metadata when the API provided it.
	Metadata Metadata `json:"metadata,omitempty"`
}

// itemWire tolerates both snake_case and camelCase field spellings.
type itemWire struct {
	Prompt              string `json:"prompt"`
	GroundTruthSnake    string `json:"ground_truth"`
	GroundTruthCamel    string `json:"groundTruth"`
	ActualResponseSnake string `json:"actual_response"`
	ActualResponseCamel string `json:"actualResponse"`
	Context             string `json:"context"`
}

type metadataWire struct {
	TotalItemsSnake int    `json:"total_items"`
	TotalItemsCamel int    `json:"totalItems"`
	CreatedAtSnake  string `json:"created_at"`
	CreatedAtCamel  string `json:"createdAt"`
	Version         string `json:"version"`
}

type enrichedDatasetWire struct {
	EnrichedDataset []itemWire    `json:"enrichedDataset"`
	Metadata        *metadataWire `json:"metadata"`
}

// ParseEnrichedDataset decodes the Configuration API enriched dataset payload.
func ParseEnrichedDataset(data []byte) (*Dataset, error) {
	if len(data) == 0 {
		return nil, errors.New("enriched dataset payload is empty")
	}
	var wire enrichedDatasetWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode enriched dataset: %w", err)
	}
	if len(wire.EnrichedDataset) == 0 {
		return nil, errors.New("enriched dataset contains no items")
	}
	items := make([]*Item, 0, len(wire.EnrichedDataset))
	for _, w := range wire.EnrichedDataset {
		items = append(items, &Item{
			Prompt:         w.Prompt,
			GroundTruth:    coalesce(w.GroundTruthSnake, w.GroundTruthCamel),
			ActualResponse: coalesce(w.ActualResponseSnake, w.ActualResponseCamel),
			Context:        w.Context,
		})
	}
	ds := &Dataset{Items: items}
	if wire.Metadata != nil {
		ds.Metadata = Metadata{
			TotalItems: coalesceInt(wire.Metadata.TotalItemsSnake, wire.Metadata.TotalItemsCamel),
			CreatedAt:  coalesce(wire.Metadata.CreatedAtSnake, wire.Metadata.CreatedAtCamel),
			Version:    wire.Metadata.Version,
		}
	}
	return ds, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func coalesceInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
