//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package rougel provides ROUGE-L similarity evaluation of agent responses.
package rougel

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator"
	"trpc.group/trpc-go/trpc-eval-runner/internal/textsim"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// rougeLEvaluator scores longest-common-subsequence similarity.
type rougeLEvaluator struct {
	// splitSentences averages per-sentence scores instead of scoring whole texts.
	splitSentences bool
}

// NewFactory returns the factory registered under "rouge_l".
// The "split_sentences" parameter (bool, default false) enables summary-level
// scoring that averages ROUGE-L over Punkt-split sentences.
func NewFactory() evaluator.Factory {
	return func(def *metric.Definition) (evaluator.Evaluator, error) {
		e := &rougeLEvaluator{}
		if raw, ok := def.Parameters["split_sentences"]; ok {
			v, ok := raw.(bool)
			if !ok {
				return nil, errors.New("split_sentences parameter must be a bool")
			}
			e.splitSentences = v
		}
		return e, nil
	}
}

// Name returns the evaluator identifier.
func (e *rougeLEvaluator) Name() string {
	return "rouge_l"
}

// Description describes the evaluator purpose.
func (e *rougeLEvaluator) Description() string {
	return "Scores ROUGE-L F-measure of the response against the ground truth"
}

// Evaluate computes the ROUGE-L F-measure for the item.
func (e *rougeLEvaluator) Evaluate(_ context.Context, item *dataset.Item,
	def *metric.Definition) (*metric.Result, error) {
	if item == nil {
		return nil, errors.New("dataset item is nil")
	}
	var score textsim.Score
	if e.splitSentences {
		s, err := e.summaryLevelScore(item.GroundTruth, item.ActualResponse)
		if err != nil {
			return nil, err
		}
		score = s
	} else {
		reference := textsim.Tokenize(item.GroundTruth)
		candidate := textsim.Tokenize(item.ActualResponse)
		score = textsim.RougeL(reference, candidate)
	}
	reason := fmt.Sprintf("rouge-l: precision=%.4f recall=%.4f f=%.4f",
		score.Precision, score.Recall, score.FMeasure)
	return metric.NewResult(def.Name, score.FMeasure, def.Threshold, reason), nil
}

// summaryLevelScore averages sentence-pair ROUGE-L, pairing each reference
// sentence with its best-matching candidate sentence.
func (e *rougeLEvaluator) summaryLevelScore(reference, candidate string) (textsim.Score, error) {
	refSents, err := textsim.SentTokenize(reference)
	if err != nil {
		return textsim.Score{}, fmt.Errorf("split reference sentences: %w", err)
	}
	candSents, err := textsim.SentTokenize(candidate)
	if err != nil {
		return textsim.Score{}, fmt.Errorf("split candidate sentences: %w", err)
	}
	if len(refSents) == 0 || len(candSents) == 0 {
		return textsim.Score{}, nil
	}
	candTokens := make([][]string, len(candSents))
	for i, s := range candSents {
		candTokens[i] = textsim.Tokenize(s)
	}
	var total textsim.Score
	for _, refSent := range refSents {
		refTokens := textsim.Tokenize(refSent)
		var best textsim.Score
		for _, cand := range candTokens {
			if s := textsim.RougeL(refTokens, cand); s.FMeasure > best.FMeasure {
				best = s
			}
		}
		total.Precision += best.Precision
		total.Recall += best.Recall
		total.FMeasure += best.FMeasure
	}
	n := float64(len(refSents))
	return textsim.Score{
		Precision: total.Precision / n,
		Recall:    total.Recall / n,
		FMeasure:  total.FMeasure / n,
	}, nil
}
