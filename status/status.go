//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package status provides the lifecycle status of an evaluation run.
package status

// RunStatus represents the lifecycle status of an evaluation run.
// Transitions are strictly forward-moving; Completed and Failed are terminal.
type RunStatus int

const (
	// RunStatusUnknown represents an unknown run status.
	RunStatusUnknown RunStatus = iota
	// RunStatusRequested represents a run that has been requested but not picked up.
	RunStatusRequested
	// RunStatusStarted represents a run whose processing has started.
	RunStatusStarted
	// RunStatusInProgress represents a run whose evaluation is executing.
	RunStatusInProgress
	// RunStatusCompleted represents a run that finished and persisted its results.
	RunStatusCompleted
	// RunStatusFailed represents a run that terminated without usable results.
	RunStatusFailed
)

// String returns the wire representation used by the Status API.
func (s RunStatus) String() string {
	switch s {
	case RunStatusRequested:
		return "EvalRunRequested"
	case RunStatusStarted:
		return "EvalRunStarted"
	case RunStatusInProgress:
		return "EvalRunInProgress"
	case RunStatusCompleted:
		return "EvalRunCompleted"
	case RunStatusFailed:
		return "EvalRunFailed"
	default:
		return "EvalRunUnknown"
	}
}

// Terminal reports whether no further transition is possible from s.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Parse maps a wire status string back to a RunStatus.
func Parse(s string) RunStatus {
	switch s {
	case "EvalRunRequested":
		return RunStatusRequested
	case "EvalRunStarted":
		return RunStatusStarted
	case "EvalRunInProgress":
		return RunStatusInProgress
	case "EvalRunCompleted":
		return RunStatusCompleted
	case "EvalRunFailed":
		return RunStatusFailed
	default:
		return RunStatusUnknown
	}
}
