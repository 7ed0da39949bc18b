//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package evalresult provides per-item results and the run-level evaluation summary.
package evalresult

import (
	"time"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// ItemResult aggregates every metric outcome for a single dataset item.
// It is complete once each configured metric has produced a result.
type ItemResult struct {
	// ItemIndex is the position of the item in the dataset, used to
	// re-associate results deterministically regardless of completion order.
	ItemIndex int `json:"itemIndex"`
	// Item is the evaluated dataset item.
	Item *dataset.Item `json:"item"`
	// Results contains one result per configured metric, in configuration order.
	Results []*metric.Result `json:"metricResults"`
}

// MetricSummary aggregates one metric's outcomes across all items of a run.
type MetricSummary struct {
	// MetricName is the configured metric name.
	MetricName string `json:"metricName"`
	// Threshold is the configured pass threshold.
	Threshold float64 `json:"threshold"`
	// Weight is the configured metric weight.
	Weight float64 `json:"weight"`
	// AverageScore is the mean score across items that produced a score.
	AverageScore float64 `json:"averageScore"`
	// PassedCount counts items where the metric met its threshold.
	PassedCount int `json:"passedCount"`
	// FailedCount counts items where the metric scored below its threshold.
	FailedCount int `json:"failedCount"`
	// ErrorCount counts items where the metric produced no usable score.
	ErrorCount int `json:"errorCount"`
	// TotalCount is the number of items the metric was applied to.
	TotalCount int `json:"totalCount"`
	// PassPercentage is PassedCount over TotalCount, as a percentage.
	PassPercentage float64 `json:"passPercentage"`
}

// ResultCounts is a histogram of per-(item, metric) outcomes.
type ResultCounts struct {
	// Passed counts results that met their threshold.
	Passed int `json:"passed"`
	// Failed counts results that scored below their threshold.
	Failed int `json:"failed"`
	// Errored counts results without a usable score.
	Errored int `json:"errored"`
}

// Summary is the run-level evaluation outcome persisted to the content store.
// It is built exactly once per run and never mutated afterwards.
type Summary struct {
	// EvalRunID identifies the evaluation run.
	EvalRunID string `json:"evalRunId"`
	// AgentID identifies the evaluated agent.
	AgentID string `json:"agentId"`
	// TotalItems is the number of dataset items processed.
	TotalItems int `json:"totalItems"`
	// TotalMetrics is the number of configured metrics applied per item.
	TotalMetrics int `json:"totalMetrics"`
	// ItemResults contains the per-item detail, in dataset order.
	ItemResults []*ItemResult `json:"perItemResults"`
	// MetricSummaries contains per-metric rollups, in configuration order.
	MetricSummaries []*MetricSummary `json:"metricSummaries"`
	// StatusCounts is the outcome histogram across all (item, metric) pairs.
	StatusCounts ResultCounts `json:"statusCounts"`
	// OverallPassRate is the percentage of (item, metric) pairs that passed.
	OverallPassRate float64 `json:"overallPassPercentage"`
	// OverallSuccess reports whether the run produced usable signal.
	OverallSuccess bool `json:"overallSuccess"`
	// ExecutionTime records the wall-clock duration of the evaluation.
	ExecutionTime time.Duration `json:"executionTimeMs"`
	// GeneratedAt is the summary creation timestamp.
	GeneratedAt time.Time `json:"generatedAt"`
}
