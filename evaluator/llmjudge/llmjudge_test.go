//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package llmjudge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
		wantErr bool
	}{
		{name: "plain json", content: `{"score": 4, "reason": "clear"}`, want: 4},
		{
			name:    "fenced json",
			content: "```json\n{\"score\": 5, \"reason\": \"perfect\"}\n```",
			want:    5,
		},
		{name: "score too low", content: `{"score": 0, "reason": "x"}`, wantErr: true},
		{name: "score too high", content: `{"score": 6, "reason": "x"}`, wantErr: true},
		{name: "not json", content: "looks good to me", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVerdict(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Score)
		})
	}
}

func TestNewJudgeRequiresModel(t *testing.T) {
	_, err := NewJudge("")
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	judge, err := NewJudge("gpt-4o-mini")
	require.NoError(t, err)

	def := &metric.Definition{Name: "coherence", Threshold: 0.5}
	ev, err := NewFactory(judge, "coherence")(def)
	require.NoError(t, err)
	assert.Equal(t, "coherence", ev.Name())

	_, err = NewFactory(judge, "telepathy")(def)
	require.Error(t, err)

	_, err = NewFactory(nil, "coherence")(def)
	require.Error(t, err)
}

func TestFactoryCustomPrompt(t *testing.T) {
	judge, err := NewJudge("gpt-4o-mini")
	require.NoError(t, err)

	def := &metric.Definition{
		Name:       "relevance",
		Parameters: map[string]any{"custom_prompt": "Judge strictly."},
	}
	ev, err := NewFactory(judge, "relevance")(def)
	require.NoError(t, err)
	je, ok := ev.(*judgeEvaluator)
	require.True(t, ok)
	assert.Equal(t, "Judge strictly.", je.prompt)

	def.Parameters["custom_prompt"] = 7
	_, err = NewFactory(judge, "relevance")(def)
	require.Error(t, err)
}

func TestUserPromptIncludesItemFields(t *testing.T) {
	judge, err := NewJudge("gpt-4o-mini")
	require.NoError(t, err)
	ev, err := NewFactory(judge, "groundedness")(&metric.Definition{Name: "groundedness"})
	require.NoError(t, err)
	je := ev.(*judgeEvaluator)

	prompt := je.userPrompt(&dataset.Item{
		Prompt:         "What happened?",
		GroundTruth:    "An outage.",
		ActualResponse: "There was an outage.",
		Context:        "incident report",
	})
	for _, fragment := range []string{"What happened?", "An outage.", "There was an outage.", "incident report"} {
		assert.True(t, strings.Contains(prompt, fragment), "missing %q", fragment)
	}
}

func TestAspects(t *testing.T) {
	aspects := Aspects()
	assert.Contains(t, aspects, "coherence")
	assert.Contains(t, aspects, "relevance")
	assert.Contains(t, aspects, "fluency")
	assert.Contains(t, aspects, "groundedness")
	assert.Contains(t, aspects, "safety")
}
