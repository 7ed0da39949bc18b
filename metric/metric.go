//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package metric provides metric definitions and per-metric evaluation results.
package metric

import (
	"strings"
)

// Definition describes one configured metric from a metrics configuration.
type Definition struct {
	// Name is the metric type name used to look up an evaluator in the registry.
	Name string `json:"metricName"`
	// Threshold is the pass threshold for this metric, in [0, 1].
	Threshold float64 `json:"threshold"`
	// Weight is the relative weight of this metric in composite scoring.
	Weight float64 `json:"weight"`
	// Enabled marks whether this metric participates in the run.
	Enabled bool `json:"enabled"`
	// Parameters contains metric-specific configuration.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ErrorKind classifies a per-metric evaluation failure.
type ErrorKind int

const (
	// ErrorKindNone marks a metric evaluation that produced a usable score.
	ErrorKindNone ErrorKind = iota
	// ErrorKindTimeout marks a metric evaluation that exceeded its wall-clock ceiling.
	ErrorKindTimeout
	// ErrorKindExecution marks a metric evaluation that failed internally.
	ErrorKindExecution
	// ErrorKindInvalidConfig marks a metric whose definition could not be resolved.
	ErrorKindInvalidConfig
)

// String returns the wire representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "None"
	case ErrorKindTimeout:
		return "Timeout"
	case ErrorKindExecution:
		return "ExecutionError"
	case ErrorKindInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so ErrorKind serializes as a string.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Timeout":
		*k = ErrorKindTimeout
	case "ExecutionError":
		*k = ErrorKindExecution
	case "InvalidConfig":
		*k = ErrorKindInvalidConfig
	default:
		*k = ErrorKindNone
	}
	return nil
}

// Result is the outcome of evaluating one metric against one dataset item.
// A Result is produced exactly once per (item, metric) pair and never mutated.
type Result struct {
	// MetricName is the configured metric name, preserved verbatim.
	MetricName string `json:"metricName"`
	// Score is the metric score, nil when evaluation produced no score.
	Score *float64 `json:"score"`
	// Passed reports whether the score met the threshold, nil when not evaluated.
	Passed *bool `json:"passed"`
	// Reason is a human-readable diagnostic for the outcome.
	Reason string `json:"reason,omitempty"`
	// ErrorKind classifies the failure when evaluation did not succeed.
	ErrorKind ErrorKind `json:"errorKind"`
}

// NewResult builds a successful result for the given score and threshold.
func NewResult(name string, score float64, threshold float64, reason string) *Result {
	passed := score >= threshold
	return &Result{
		MetricName: name,
		Score:      &score,
		Passed:     &passed,
		Reason:     reason,
		ErrorKind:  ErrorKindNone,
	}
}

// NewErrorResult builds a failed result carrying the failure classification.
func NewErrorResult(name string, kind ErrorKind, reason string) *Result {
	return &Result{
		MetricName: name,
		Reason:     reason,
		ErrorKind:  kind,
	}
}

// Usable reports whether the result carries a real score.
func (r *Result) Usable() bool {
	return r != nil && r.ErrorKind == ErrorKindNone && r.Score != nil
}

// Normalize maps a configured metric name to its canonical registry form:
// lowercase with spaces and hyphens collapsed to underscores.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
