//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package engine orchestrates the concurrent evaluation of a dataset.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/evalresult"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/registry"
	"trpc.group/trpc-go/trpc-eval-runner/log"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

const (
	// defaultDatasetConcurrency caps items evaluated in parallel.
	defaultDatasetConcurrency = 3
	// defaultMetricConcurrency caps metric evaluations in parallel
	// across all in-flight items.
	defaultMetricConcurrency = 8
	// defaultMetricTimeout bounds one metric evaluation on one item.
	defaultMetricTimeout = 30 * time.Second
)

var tracer = otel.Tracer("trpc.group/trpc-go/trpc-eval-runner/engine")

// Engine runs every configured metric against every dataset item under two
// independent concurrency caps. The item pool bounds in-flight items; the
// metric pool bounds in-flight metric evaluations and is shared across items,
// so a slow item cannot monopolize metric slots.
//
// One Engine is created per process and reused across runs. It is safe for
// concurrent use.
type Engine struct {
	itemPool      *ants.PoolWithFunc
	metricPool    *ants.PoolWithFunc
	metricTimeout time.Duration
}

// Option configures the Engine.
type Option func(*options)

type options struct {
	datasetConcurrency int
	metricConcurrency  int
	metricTimeout      time.Duration
}

// WithDatasetConcurrency sets the maximum items evaluated in parallel.
func WithDatasetConcurrency(n int) Option {
	return func(o *options) {
		o.datasetConcurrency = n
	}
}

// WithMetricConcurrency sets the maximum metric evaluations in parallel.
func WithMetricConcurrency(n int) Option {
	return func(o *options) {
		o.metricConcurrency = n
	}
}

// WithMetricTimeout sets the per-metric evaluation timeout.
func WithMetricTimeout(d time.Duration) Option {
	return func(o *options) {
		o.metricTimeout = d
	}
}

// New creates an Engine with its worker pools.
func New(opt ...Option) (*Engine, error) {
	opts := &options{
		datasetConcurrency: defaultDatasetConcurrency,
		metricConcurrency:  defaultMetricConcurrency,
		metricTimeout:      defaultMetricTimeout,
	}
	for _, o := range opt {
		o(opts)
	}
	if opts.metricTimeout <= 0 {
		return nil, errors.New("metric timeout must be greater than 0")
	}
	itemPool, err := createItemPool(opts.datasetConcurrency)
	if err != nil {
		return nil, err
	}
	metricPool, err := createMetricPool(opts.metricConcurrency)
	if err != nil {
		itemPool.Release()
		return nil, err
	}
	return &Engine{
		itemPool:      itemPool,
		metricPool:    metricPool,
		metricTimeout: opts.metricTimeout,
	}, nil
}

// Close releases the worker pools.
func (e *Engine) Close() {
	e.itemPool.Release()
	e.metricPool.Release()
}

// Run evaluates every item against every resolved metric and returns one
// complete ItemResult per item, in dataset order.
//
// Item failures never fail the run: a metric that errors, times out, or was
// misconfigured yields a synthetic error result for that (item, metric) pair
// while every other evaluation proceeds. Run returns only after each item
// holds a result for each metric.
func (e *Engine) Run(ctx context.Context, evalRunID string, items []*dataset.Item,
	resolved []*registry.Resolved) ([]*evalresult.ItemResult, error) {
	if len(items) == 0 {
		return nil, errors.New("dataset has no items")
	}
	if len(resolved) == 0 {
		return nil, errors.New("no metrics to evaluate")
	}
	ctx, span := tracer.Start(ctx, "evaluation.run", trace.WithAttributes(
		attribute.String("eval.run_id", evalRunID),
		attribute.Int("eval.dataset_items", len(items)),
		attribute.Int("eval.metrics", len(resolved)),
	))
	defer span.End()

	results := make([]*evalresult.ItemResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		param := itemTaskParamPool.Get().(*itemTaskParam)
		param.idx = i
		param.ctx = ctx
		param.item = item
		param.eng = e
		param.resolved = resolved
		param.results = results
		param.wg = &wg
		if err := e.itemPool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			itemTaskParamPool.Put(param)
			results[i] = failedItemResult(i, item, resolved,
				fmt.Sprintf("submit item task: %v", err))
		}
	}
	wg.Wait()
	return results, nil
}

// processItem fans the item's metrics out to the shared metric pool and
// blocks until every metric has produced a result.
func (e *Engine) processItem(ctx context.Context, idx int, item *dataset.Item,
	resolved []*registry.Resolved) *evalresult.ItemResult {
	results := make([]*metric.Result, len(resolved))
	var wg sync.WaitGroup
	for i, res := range resolved {
		wg.Add(1)
		param := metricTaskParamPool.Get().(*metricTaskParam)
		param.idx = i
		param.ctx = ctx
		param.item = item
		param.res = res
		param.eng = e
		param.results = results
		param.wg = &wg
		if err := e.metricPool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			metricTaskParamPool.Put(param)
			results[i] = metric.NewErrorResult(res.Definition.Name,
				metric.ErrorKindExecution, fmt.Sprintf("submit metric task: %v", err))
		}
	}
	wg.Wait()
	return &evalresult.ItemResult{ItemIndex: idx, Item: item, Results: results}
}

// evaluateMetric runs one metric on one item under the per-metric timeout.
// A timed-out evaluation is abandoned: its goroutine observes the cancelled
// context and drains into the buffered channel, while siblings keep running.
func (e *Engine) evaluateMetric(ctx context.Context, item *dataset.Item,
	res *registry.Resolved) *metric.Result {
	name := res.Definition.Name
	if res.Err != nil {
		return metric.NewErrorResult(name, metric.ErrorKindInvalidConfig, res.Err.Error())
	}
	mctx, cancel := context.WithTimeout(ctx, e.metricTimeout)
	defer cancel()
	mctx, span := tracer.Start(mctx, "metric.evaluate",
		trace.WithAttributes(attribute.String("eval.metric", name)))
	defer span.End()

	type outcome struct {
		result *metric.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("evaluator panic: %v", r)}
			}
		}()
		result, err := res.Evaluator.Evaluate(mctx, item, res.Definition)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			log.Warnf("metric %s failed: %v", name, out.err)
			span.RecordError(out.err)
			return metric.NewErrorResult(name, metric.ErrorKindExecution, out.err.Error())
		}
		if out.result == nil {
			return metric.NewErrorResult(name, metric.ErrorKindExecution,
				"evaluator returned no result")
		}
		return out.result
	case <-mctx.Done():
		if err := ctx.Err(); err != nil {
			return metric.NewErrorResult(name, metric.ErrorKindExecution,
				"evaluation cancelled")
		}
		log.Warnf("metric %s timed out after %s", name, e.metricTimeout)
		return metric.NewErrorResult(name, metric.ErrorKindTimeout,
			fmt.Sprintf("evaluation timed out after %s", e.metricTimeout))
	}
}

// failedItemResult fills every metric slot of an item with the same
// execution error.
func failedItemResult(idx int, item *dataset.Item, resolved []*registry.Resolved,
	reason string) *evalresult.ItemResult {
	results := make([]*metric.Result, len(resolved))
	for i, res := range resolved {
		results[i] = metric.NewErrorResult(res.Definition.Name,
			metric.ErrorKindExecution, reason)
	}
	return &evalresult.ItemResult{ItemIndex: idx, Item: item, Results: results}
}
