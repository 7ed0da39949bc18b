//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package textoverlap provides token-overlap (F1) evaluation of agent responses.
package textoverlap

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator"
	"trpc.group/trpc-go/trpc-eval-runner/internal/textsim"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// measure selects which component of the overlap score is reported.
type measure string

const (
	measureF1        measure = "f1"
	measurePrecision measure = "precision"
	measureRecall    measure = "recall"
)

// textOverlapEvaluator scores unigram overlap between response and ground truth.
type textOverlapEvaluator struct {
	measure measure
}

// NewFactory returns the factory registered under "f1_score".
// The "measure" parameter selects "f1" (default), "precision", or "recall".
func NewFactory() evaluator.Factory {
	return func(def *metric.Definition) (evaluator.Evaluator, error) {
		e := &textOverlapEvaluator{measure: measureF1}
		if raw, ok := def.Parameters["measure"]; ok {
			v, ok := raw.(string)
			if !ok {
				return nil, errors.New("measure parameter must be a string")
			}
			switch measure(v) {
			case measureF1, measurePrecision, measureRecall:
				e.measure = measure(v)
			default:
				return nil, fmt.Errorf("unsupported measure %q", v)
			}
		}
		return e, nil
	}
}

// Name returns the evaluator identifier.
func (e *textOverlapEvaluator) Name() string {
	return "f1_score"
}

// Description describes the evaluator purpose.
func (e *textOverlapEvaluator) Description() string {
	return "Scores unigram precision/recall/F1 of the response against the ground truth"
}

// Evaluate computes the configured overlap measure for the item.
func (e *textOverlapEvaluator) Evaluate(_ context.Context, item *dataset.Item,
	def *metric.Definition) (*metric.Result, error) {
	if item == nil {
		return nil, errors.New("dataset item is nil")
	}
	reference := textsim.Tokenize(item.GroundTruth)
	candidate := textsim.Tokenize(item.ActualResponse)
	overlap := textsim.UnigramOverlap(reference, candidate)
	var score float64
	switch e.measure {
	case measurePrecision:
		score = overlap.Precision
	case measureRecall:
		score = overlap.Recall
	default:
		score = overlap.FMeasure
	}
	reason := fmt.Sprintf("unigram overlap: precision=%.4f recall=%.4f f1=%.4f",
		overlap.Precision, overlap.Recall, overlap.FMeasure)
	return metric.NewResult(def.Name, score, def.Threshold, reason), nil
}
