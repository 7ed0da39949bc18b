//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package queue defines the evaluation request queue and its message format.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Priority orders evaluation requests. The runner processes one run at a
// time, so priority is informational for it, but malformed values still make
// the message invalid.
type Priority string

// Known priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Message is an evaluation request received from the platform.
type Message struct {
	// EvalRunID identifies the evaluation run to execute.
	EvalRunID string `json:"evalRunId"`
	// AgentID identifies the agent under evaluation.
	AgentID string `json:"agentId"`
	// DatasetID identifies the source dataset of the run.
	DatasetID string `json:"datasetId,omitempty"`
	// EnrichedDatasetID identifies the enriched dataset snapshot.
	EnrichedDatasetID string `json:"enrichedDatasetId,omitempty"`
	// MetricsConfigurationID references the metrics configuration to fetch.
	MetricsConfigurationID string `json:"metricsConfigurationId"`
	// RequestedAt is the enqueue timestamp, when the producer provided one.
	RequestedAt string `json:"requestedAt,omitempty"`
	// Priority is the requested scheduling priority, normal when omitted.
	Priority Priority `json:"priority,omitempty"`
}

// messageWire decodes both snake_case and camelCase producer payloads.
type messageWire struct {
	EvalRunID              string `json:"evalRunId"`
	EvalRunIDSnake         string `json:"eval_run_id"`
	AgentID                string `json:"agentId"`
	AgentIDSnake           string `json:"agent_id"`
	DatasetID              string `json:"datasetId"`
	DatasetIDSnake         string `json:"dataset_id"`
	EnrichedDatasetID      string `json:"enrichedDatasetId"`
	EnrichedDatasetIDSnake string `json:"enriched_dataset_id"`
	ConfigID               string `json:"metricsConfigurationId"`
	ConfigIDSnake          string `json:"metrics_configuration_id"`
	RequestedAt            string `json:"requestedAt"`
	RequestedAtSnake       string `json:"requested_at"`
	Priority               string `json:"priority"`
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseMessage decodes and validates an evaluation request payload.
// A message that decodes but misses a required identifier is malformed and
// must be routed to the poison store, never retried.
func ParseMessage(body []byte) (*Message, error) {
	if len(body) == 0 {
		return nil, errors.New("message body is empty")
	}
	var wire messageWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	msg := &Message{
		EvalRunID:              coalesce(wire.EvalRunID, wire.EvalRunIDSnake),
		AgentID:                coalesce(wire.AgentID, wire.AgentIDSnake),
		DatasetID:              coalesce(wire.DatasetID, wire.DatasetIDSnake),
		EnrichedDatasetID:      coalesce(wire.EnrichedDatasetID, wire.EnrichedDatasetIDSnake),
		MetricsConfigurationID: coalesce(wire.ConfigID, wire.ConfigIDSnake),
		RequestedAt:            coalesce(wire.RequestedAt, wire.RequestedAtSnake),
		Priority:               PriorityNormal,
	}
	if msg.EvalRunID == "" {
		return nil, errors.New("message is missing eval run id")
	}
	if msg.AgentID == "" {
		return nil, errors.New("message is missing agent id")
	}
	if msg.MetricsConfigurationID == "" {
		return nil, errors.New("message is missing metrics configuration id")
	}
	switch Priority(wire.Priority) {
	case PriorityLow, PriorityNormal, PriorityHigh:
		msg.Priority = Priority(wire.Priority)
	case "":
	default:
		return nil, fmt.Errorf("message has unknown priority %q", wire.Priority)
	}
	return msg, nil
}

// Delivery is one received message. The message stays owned by the queue
// until it is acked or nacked; a crashed consumer gets it redelivered.
type Delivery struct {
	// Receipt is the queue-specific handle used to ack or nack.
	Receipt string
	// Body is the raw message payload.
	Body []byte
}

// Queue is an at-least-once evaluation request queue.
type Queue interface {
	// Receive waits up to wait for a message. It returns (nil, nil) when no
	// message arrived within the window.
	Receive(ctx context.Context, wait time.Duration) (*Delivery, error)
	// Ack removes a processed message from the queue.
	Ack(ctx context.Context, d *Delivery) error
	// Nack returns a message to the queue for redelivery.
	Nack(ctx context.Context, d *Delivery) error
	// Close releases queue resources.
	Close() error
}
