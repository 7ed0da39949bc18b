//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Configuration is the decoded metrics configuration for a run.
type Configuration struct {
	// AgentID identifies the agent the configuration belongs to, when present.
	AgentID string `json:"agentId,omitempty"`
	// Definitions contains every configured metric definition, enabled or not.
	Definitions []*Definition `json:"definitions"`
}

// Enabled returns the enabled subset of the configured definitions.
func (c *Configuration) Enabled() []*Definition {
	enabled := make([]*Definition, 0, len(c.Definitions))
	for _, def := range c.Definitions {
		if def.Enabled {
			enabled = append(enabled, def)
		}
	}
	return enabled
}

// definitionWire tolerates both snake_case and camelCase field spellings,
// and the metricOriginalName alias used by the Configuration API.
type definitionWire struct {
	MetricOriginalName string         `json:"metricOriginalName"`
	MetricNameSnake    string         `json:"metric_name"`
	MetricNameCamel    string         `json:"metricName"`
	Threshold          float64        `json:"threshold"`
	Weight             *float64       `json:"weight"`
	Enabled            *bool          `json:"enabled"`
	Parameters         map[string]any `json:"parameters"`
}

type configurationWire struct {
	MetricsConfiguration []definitionWire `json:"metricsConfiguration"`
	Metadata             struct {
		AgentIDSnake string `json:"agent_id"`
		AgentIDCamel string `json:"agentId"`
	} `json:"metadata"`
}

// ParseConfiguration decodes the Configuration API metrics configuration payload.
func ParseConfiguration(data []byte) (*Configuration, error) {
	if len(data) == 0 {
		return nil, errors.New("metrics configuration payload is empty")
	}
	var wire configurationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode metrics configuration: %w", err)
	}
	if len(wire.MetricsConfiguration) == 0 {
		return nil, errors.New("metrics configuration contains no definitions")
	}
	defs := make([]*Definition, 0, len(wire.MetricsConfiguration))
	for i, w := range wire.MetricsConfiguration {
		name := w.MetricOriginalName
		if name == "" {
			name = w.MetricNameSnake
		}
		if name == "" {
			name = w.MetricNameCamel
		}
		if name == "" {
			return nil, fmt.Errorf("metrics configuration entry %d has no metric name", i)
		}
		if w.Threshold < 0 || w.Threshold > 1 {
			return nil, fmt.Errorf("metric %s threshold %v is outside [0, 1]", name, w.Threshold)
		}
		def := &Definition{
			Name:       name,
			Threshold:  w.Threshold,
			Weight:     1,
			Enabled:    true,
			Parameters: w.Parameters,
		}
		if w.Weight != nil {
			if *w.Weight < 0 {
				return nil, fmt.Errorf("metric %s weight %v is negative", name, *w.Weight)
			}
			def.Weight = *w.Weight
		}
		if w.Enabled != nil {
			def.Enabled = *w.Enabled
		}
		defs = append(defs, def)
	}
	return &Configuration{
		AgentID:     coalesce(wire.Metadata.AgentIDSnake, wire.Metadata.AgentIDCamel),
		Definitions: defs,
	}, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
