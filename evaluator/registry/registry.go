//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package registry manages the registration and resolution of evaluators.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-eval-runner/evaluator"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/exactmatch"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/rougel"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/textoverlap"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
)

// Registry defines the interface for the evaluator factory registry.
// Registration happens once at process start; resolution is read-only.
type Registry interface {
	// Register registers an evaluator factory under the given metric type name.
	Register(name string, factory evaluator.Factory) error
	// Get retrieves the factory registered under name.
	Get(name string) (evaluator.Factory, error)
	// List returns the names of all registered factories.
	List() []string
	// Resolve resolves the given definitions into runnable evaluators.
	Resolve(defs []*metric.Definition) []*Resolved
}

// Resolved pairs a metric definition with its constructed evaluator.
// When resolution failed, Evaluator is nil and Err carries the cause; the
// engine turns such entries into synthetic InvalidConfig results per item
// instead of aborting the run.
type Resolved struct {
	// Definition is the configured metric definition.
	Definition *metric.Definition
	// Evaluator is the constructed evaluator, nil when resolution failed.
	Evaluator evaluator.Evaluator
	// Err is the resolution failure, nil on success.
	Err error
}

// registry is the default implementation of Registry.
type registry struct {
	mu        sync.RWMutex
	factories map[string]evaluator.Factory
}

// New creates an evaluator registry with the deterministic built-in metrics
// registered. Judge-backed metrics are registered by the caller once a judge
// model is configured.
func New() Registry {
	r := &registry{factories: make(map[string]evaluator.Factory)}
	r.Register("exact_match", exactmatch.NewFactory())
	r.Register("f1_score", textoverlap.NewFactory())
	r.Register("rouge_l", rougel.NewFactory())
	return r
}

// Register registers an evaluator factory under the given metric type name.
// Same name factory will be overwritten. Names are normalized on registration.
func (r *registry) Register(name string, factory evaluator.Factory) error {
	if factory == nil {
		return errors.New("evaluator factory is nil")
	}
	name = metric.Normalize(name)
	if name == "" {
		return errors.New("evaluator name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// Get gets a factory by name.
// Returns os.ErrNotExist if no factory is registered under the name.
func (r *registry) Get(name string) (evaluator.Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.factories[metric.Normalize(name)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("get evaluator %s: %w", name, os.ErrNotExist)
}

// List returns the names of all registered factories sorted lexicographically.
func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve resolves each definition into a runnable evaluator.
// A definition whose type name is unregistered or whose parameters fail
// validation yields a Resolved entry with Err set; the run is never aborted
// by a single bad definition.
func (r *registry) Resolve(defs []*metric.Definition) []*Resolved {
	resolved := make([]*Resolved, 0, len(defs))
	for _, def := range defs {
		factory, err := r.Get(def.Name)
		if err != nil {
			resolved = append(resolved, &Resolved{Definition: def, Err: err})
			continue
		}
		ev, err := factory(def)
		if err != nil {
			resolved = append(resolved, &Resolved{
				Definition: def,
				Err:        fmt.Errorf("construct evaluator %s: %w", def.Name, err),
			})
			continue
		}
		resolved = append(resolved, &Resolved{Definition: def, Evaluator: ev})
	}
	return resolved
}
