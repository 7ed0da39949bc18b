//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"sort"
	"time"

	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// PassPolicy decides the run-level OverallSuccess from the computed rollups.
// It runs after every other summary field has been populated.
type PassPolicy func(s *Summary) bool

// UsableSignalPolicy succeeds when at least one item was processed and at
// least one metric produced a usable result. This is the default: a run that
// produced only errors carries no signal and must not look like a pass.
func UsableSignalPolicy() PassPolicy {
	return func(s *Summary) bool {
		usable := s.StatusCounts.Passed + s.StatusCounts.Failed
		return s.TotalItems > 0 && usable > 0
	}
}

// WeightedCompositePolicy succeeds when the weight-normalized mean of the
// per-metric average scores reaches passThreshold. Metrics whose weight is
// zero do not contribute.
func WeightedCompositePolicy(passThreshold float64) PassPolicy {
	return func(s *Summary) bool {
		var weighted, totalWeight float64
		for _, ms := range s.MetricSummaries {
			if ms.Weight == 0 || ms.TotalCount == ms.ErrorCount {
				continue
			}
			weighted += ms.AverageScore * ms.Weight
			totalWeight += ms.Weight
		}
		if totalWeight == 0 {
			return false
		}
		return weighted/totalWeight >= passThreshold
	}
}

// Option configures aggregation.
type Option func(*options)

type options struct {
	policy PassPolicy
	now    func() time.Time
}

// WithPassPolicy overrides the policy deciding OverallSuccess.
func WithPassPolicy(policy PassPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Aggregate builds the run summary from the per-item results.
//
// Results are re-associated by item index and configuration order, so the
// summary is identical no matter in which order items finished. Errored
// results count as failures in pass percentages but are excluded from
// average scores.
func Aggregate(evalRunID, agentID string, defs []*metric.Definition,
	items []*ItemResult, execTime time.Duration, opt ...Option) *Summary {
	opts := &options{
		policy: UsableSignalPolicy(),
		now:    time.Now,
	}
	for _, o := range opt {
		o(opts)
	}

	ordered := make([]*ItemResult, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ItemIndex < ordered[j].ItemIndex
	})

	s := &Summary{
		EvalRunID:       evalRunID,
		AgentID:         agentID,
		TotalItems:      len(ordered),
		TotalMetrics:    len(defs),
		ItemResults:     ordered,
		MetricSummaries: make([]*MetricSummary, 0, len(defs)),
		ExecutionTime:   execTime,
		GeneratedAt:     opts.now().UTC(),
	}

	for mi, def := range defs {
		ms := &MetricSummary{
			MetricName: def.Name,
			Threshold:  def.Threshold,
			Weight:     def.Weight,
		}
		var scoreSum float64
		var scored int
		for _, item := range ordered {
			if mi >= len(item.Results) || item.Results[mi] == nil {
				continue
			}
			res := item.Results[mi]
			ms.TotalCount++
			if !res.Usable() {
				ms.ErrorCount++
				s.StatusCounts.Errored++
				continue
			}
			scoreSum += *res.Score
			scored++
			if res.Passed != nil && *res.Passed {
				ms.PassedCount++
				s.StatusCounts.Passed++
			} else {
				ms.FailedCount++
				s.StatusCounts.Failed++
			}
		}
		if scored > 0 {
			ms.AverageScore = scoreSum / float64(scored)
		}
		if ms.TotalCount > 0 {
			ms.PassPercentage = float64(ms.PassedCount) / float64(ms.TotalCount) * 100
		}
		s.MetricSummaries = append(s.MetricSummaries, ms)
	}

	total := s.StatusCounts.Passed + s.StatusCounts.Failed + s.StatusCounts.Errored
	if total > 0 {
		s.OverallPassRate = float64(s.StatusCounts.Passed) / float64(total) * 100
	}
	s.OverallSuccess = opts.policy(s)
	return s
}
