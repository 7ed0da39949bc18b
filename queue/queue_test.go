//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Message
		wantErr bool
	}{
		{
			name: "snake_case",
			body: `{"eval_run_id": "run-1", "agent_id": "agent-1", "dataset_id": "ds-1",
				"enriched_dataset_id": "eds-1", "metrics_configuration_id": "cfg-1", "priority": "high"}`,
			want: Message{
				EvalRunID:              "run-1",
				AgentID:                "agent-1",
				DatasetID:              "ds-1",
				EnrichedDatasetID:      "eds-1",
				MetricsConfigurationID: "cfg-1",
				Priority:               PriorityHigh,
			},
		},
		{
			name: "camelCase",
			body: `{"evalRunId": "run-2", "agentId": "agent-2", "metricsConfigurationId": "cfg-2", "requestedAt": "2025-06-01T00:00:00Z"}`,
			want: Message{
				EvalRunID:              "run-2",
				AgentID:                "agent-2",
				MetricsConfigurationID: "cfg-2",
				RequestedAt:            "2025-06-01T00:00:00Z",
				Priority:               PriorityNormal,
			},
		},
		{name: "empty body", body: "", wantErr: true},
		{name: "not json", body: "garbage", wantErr: true},
		{
			name:    "missing run id",
			body:    `{"agent_id": "agent-1", "metrics_configuration_id": "cfg-1"}`,
			wantErr: true,
		},
		{
			name:    "missing agent id",
			body:    `{"eval_run_id": "run-1", "metrics_configuration_id": "cfg-1"}`,
			wantErr: true,
		},
		{
			name:    "missing configuration id",
			body:    `{"eval_run_id": "run-1", "agent_id": "agent-1"}`,
			wantErr: true,
		},
		{
			name:    "unknown priority",
			body:    `{"eval_run_id": "run-1", "agent_id": "agent-1", "metrics_configuration_id": "cfg-1", "priority": "urgent"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *msg)
		})
	}
}
