//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/evalresult"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/registry"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

type itemTaskParam struct {
	idx      int
	ctx      context.Context
	item     *dataset.Item
	eng      *Engine
	resolved []*registry.Resolved
	results  []*evalresult.ItemResult
	wg       *sync.WaitGroup
}

func (p *itemTaskParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.item = nil
	p.eng = nil
	p.resolved = nil
	p.results = nil
	p.wg = nil
}

var itemTaskParamPool = &sync.Pool{
	New: func() any { return new(itemTaskParam) },
}

func createItemPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*itemTaskParam)
		if !ok {
			panic("item pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			itemTaskParamPool.Put(param)
		}()
		param.results[param.idx] = param.eng.processItem(param.ctx, param.idx, param.item, param.resolved)
	})
	if err != nil {
		return nil, fmt.Errorf("create item pool: %w", err)
	}
	return pool, nil
}

type metricTaskParam struct {
	idx     int
	ctx     context.Context
	item    *dataset.Item
	res     *registry.Resolved
	eng     *Engine
	results []*metric.Result
	wg      *sync.WaitGroup
}

func (p *metricTaskParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.item = nil
	p.res = nil
	p.eng = nil
	p.results = nil
	p.wg = nil
}

var metricTaskParamPool = &sync.Pool{
	New: func() any { return new(metricTaskParam) },
}

func createMetricPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*metricTaskParam)
		if !ok {
			panic("metric pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			metricTaskParamPool.Put(param)
		}()
		param.results[param.idx] = param.eng.evaluateMetric(param.ctx, param.item, param.res)
	})
	if err != nil {
		return nil, fmt.Errorf("create metric pool: %w", err)
	}
	return pool, nil
}
