//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package evaluator provides the evaluator contract for metric execution.
package evaluator

import (
	"context"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// Evaluator scores one dataset item against one configured metric definition.
//
// Implementations must be safe for concurrent use: the engine invokes the same
// evaluator instance from many tasks at once. The context carries the
// per-metric deadline; evaluators that call out to remote services must honor
// it. Retries are the evaluator's own concern, the engine never retries.
type Evaluator interface {
	// Name returns the canonical metric type name the evaluator serves.
	Name() string
	// Description describes the evaluator purpose.
	Description() string
	// Evaluate scores the item against the definition.
	Evaluate(ctx context.Context, item *dataset.Item, def *metric.Definition) (*metric.Result, error)
}

// Factory constructs an Evaluator from a metric definition.
// Construction validates definition parameters; a returned error marks the
// definition as invalid configuration without failing the run.
type Factory func(def *metric.Definition) (Evaluator, error)
