//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package worker drives the evaluation run loop: it consumes requests from
// the queue, executes them one at a time and reports their lifecycle to the
// platform.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"trpc.group/trpc-go/trpc-eval-runner/dataset"
	"trpc.group/trpc-go/trpc-eval-runner/engine"
	"trpc.group/trpc-go/trpc-eval-runner/evalapi"
	"trpc.group/trpc-go/trpc-eval-runner/evalresult"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/registry"
	"trpc.group/trpc-go/trpc-eval-runner/log"
	"trpc.group/trpc-go/trpc-eval-runner/metric"
	"trpc.group/trpc-go/trpc-eval-runner/queue"
	"trpc.group/trpc-go/trpc-eval-runner/sink"
	"trpc.group/trpc-go/trpc-eval-runner/status"
	"trpc.group/trpc-go/trpc-eval-runner/store"
)

const (
	defaultPollWait        = 5 * time.Second
	defaultIdleBackoffMin  = 1 * time.Second
	defaultIdleBackoffMax  = 30 * time.Second
	defaultFetchMaxElapsed = 2 * time.Minute
	defaultShutdownGrace   = 60 * time.Second
	// settleTimeout bounds the ack or nack that settles a message after its
	// run finished, independently of the run's own context.
	settleTimeout = 10 * time.Second
)

// StatusAPI reports run lifecycle transitions.
type StatusAPI interface {
	UpdateStatus(ctx context.Context, evalRunID string, st status.RunStatus, message string) error
}

// ConfigAPI fetches the run inputs.
type ConfigAPI interface {
	FetchDataset(ctx context.Context, evalRunID string) (*dataset.Dataset, error)
	FetchMetricsConfiguration(ctx context.Context, configurationID string) (*metric.Configuration, error)
}

// Worker consumes evaluation requests and executes them sequentially.
// One message is in flight at a time; concurrency lives inside the engine.
type Worker struct {
	queue     queue.Queue
	statusAPI StatusAPI
	configAPI ConfigAPI
	registry  registry.Registry
	engine    *engine.Engine
	sink      *sink.Sink
	poison    store.ContentStore

	pollWait        time.Duration
	idleBackoffMin  time.Duration
	idleBackoffMax  time.Duration
	fetchMaxElapsed time.Duration
	shutdownGrace   time.Duration

	health *Health
}

// Option configures the Worker.
type Option func(*Worker)

// WithPollWait sets the per-receive blocking window.
func WithPollWait(d time.Duration) Option {
	return func(w *Worker) { w.pollWait = d }
}

// WithIdleBackoff sets the empty-poll backoff bounds.
func WithIdleBackoff(min, max time.Duration) Option {
	return func(w *Worker) {
		w.idleBackoffMin = min
		w.idleBackoffMax = max
	}
}

// WithFetchMaxElapsed caps total retry time for configuration fetches.
func WithFetchMaxElapsed(d time.Duration) Option {
	return func(w *Worker) { w.fetchMaxElapsed = d }
}

// WithShutdownGrace sets how long an in-flight run may finish after the
// worker context is cancelled.
func WithShutdownGrace(d time.Duration) Option {
	return func(w *Worker) { w.shutdownGrace = d }
}

// New creates a Worker from its collaborators.
func New(q queue.Queue, statusAPI StatusAPI, configAPI ConfigAPI, reg registry.Registry,
	eng *engine.Engine, snk *sink.Sink, poison store.ContentStore, opt ...Option) (*Worker, error) {
	if q == nil {
		return nil, errors.New("queue is nil")
	}
	if statusAPI == nil || configAPI == nil {
		return nil, errors.New("platform api is nil")
	}
	if reg == nil {
		return nil, errors.New("registry is nil")
	}
	if eng == nil {
		return nil, errors.New("engine is nil")
	}
	if snk == nil {
		return nil, errors.New("sink is nil")
	}
	if poison == nil {
		return nil, errors.New("poison store is nil")
	}
	w := &Worker{
		queue:           q,
		statusAPI:       statusAPI,
		configAPI:       configAPI,
		registry:        reg,
		engine:          eng,
		sink:            snk,
		poison:          poison,
		pollWait:        defaultPollWait,
		idleBackoffMin:  defaultIdleBackoffMin,
		idleBackoffMax:  defaultIdleBackoffMax,
		fetchMaxElapsed: defaultFetchMaxElapsed,
		shutdownGrace:   defaultShutdownGrace,
		health:          newHealth(),
	}
	for _, o := range opt {
		o(w)
	}
	return w, nil
}

// Health exposes the worker's health state for the health endpoints.
func (w *Worker) Health() *Health {
	return w.health
}

// Run consumes the queue until ctx is cancelled. Empty polls back off
// exponentially between idleBackoffMin and idleBackoffMax; any received
// message resets the backoff.
func (w *Worker) Run(ctx context.Context) error {
	w.health.setReady(true)
	defer w.health.setReady(false)

	idle := backoff.NewExponentialBackOff()
	idle.InitialInterval = w.idleBackoffMin
	idle.MaxInterval = w.idleBackoffMax
	idle.MaxElapsedTime = 0
	idle.Reset()

	for {
		if ctx.Err() != nil {
			return nil
		}
		d, err := w.queue.Receive(ctx, w.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Errorf("receive message: %v", err)
			if !w.sleep(ctx, idle.NextBackOff()) {
				return nil
			}
			continue
		}
		if d == nil {
			if !w.sleep(ctx, idle.NextBackOff()) {
				return nil
			}
			continue
		}
		idle.Reset()
		w.handleDelivery(ctx, d)
	}
}

// sleep waits for d unless ctx is cancelled first.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// handleDelivery parses one message and executes it. Malformed messages go
// to the poison store and are deleted; they are never retried.
func (w *Worker) handleDelivery(ctx context.Context, d *queue.Delivery) {
	msg, err := queue.ParseMessage(d.Body)
	if err != nil {
		w.quarantine(ctx, d, err)
		return
	}
	w.health.setProcessing(msg.EvalRunID)
	defer w.health.setProcessing("")

	// The run owns a context that survives worker cancellation for the
	// shutdown grace window, so an in-flight run can finish cleanly.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		timer := time.NewTimer(w.shutdownGrace)
		defer timer.Stop()
		select {
		case <-timer.C:
			cancel()
		case <-runCtx.Done():
		}
	})
	defer stop()

	runErr := w.executeRun(runCtx, msg)

	// Settling the message must still reach the queue after shutdown-grace
	// expiry cancelled runCtx, so it runs on its own short-lived context.
	settleCtx, settleCancel := context.WithTimeout(context.Background(), settleTimeout)
	defer settleCancel()
	if runErr != nil {
		// No terminal state was reported; leave the message for redelivery
		// so the run is retried with at-least-once semantics.
		log.Errorf("run %s: not finalized, requeueing: %v", msg.EvalRunID, runErr)
		if nerr := w.queue.Nack(settleCtx, d); nerr != nil {
			log.Errorf("nack message for run %s: %v", msg.EvalRunID, nerr)
		}
		return
	}
	if err := w.queue.Ack(settleCtx, d); err != nil {
		// The terminal state is already reported; redelivery re-reports it
		// idempotently.
		log.Errorf("ack message for run %s: %v", msg.EvalRunID, err)
	}
}

// quarantine stores an undecodable message under poison/ and deletes it.
func (w *Worker) quarantine(ctx context.Context, d *queue.Delivery, cause error) {
	key := fmt.Sprintf("poison/%s.json", uuid.NewString())
	log.Errorf("malformed message routed to %s: %v", key, cause)
	if err := w.poison.Put(ctx, key, d.Body, "application/json"); err != nil {
		log.Errorf("store poison message %s: %v", key, err)
	}
	if err := w.queue.Ack(ctx, d); err != nil {
		log.Errorf("ack poison message: %v", err)
	}
}

// executeRun runs the full pipeline for one evaluation request. It returns
// nil only after a terminal status was successfully reported; any other
// outcome leaves the message eligible for redelivery.
func (w *Worker) executeRun(ctx context.Context, msg *queue.Message) error {
	log.Infof("run %s: started for agent %s", msg.EvalRunID, msg.AgentID)
	w.reportStatus(ctx, msg.EvalRunID, status.RunStatusStarted, "")

	ds, cfg, err := w.fetchInputs(ctx, msg)
	if err != nil {
		return w.failRun(ctx, msg.EvalRunID, fmt.Sprintf("fetch run inputs: %v", err))
	}
	if cfg.AgentID != "" && cfg.AgentID != msg.AgentID {
		return w.failRun(ctx, msg.EvalRunID, fmt.Sprintf(
			"metrics configuration belongs to agent %s, message targets %s",
			cfg.AgentID, msg.AgentID))
	}
	enabled := cfg.Enabled()
	if len(enabled) == 0 {
		return w.failRun(ctx, msg.EvalRunID, "metrics configuration has no enabled metrics")
	}

	w.reportStatus(ctx, msg.EvalRunID, status.RunStatusInProgress,
		fmt.Sprintf("evaluating %d items against %d metrics", len(ds.Items), len(enabled)))

	resolved := w.registry.Resolve(enabled)
	start := time.Now()
	results, err := w.engine.Run(ctx, msg.EvalRunID, ds.Items, resolved)
	if err != nil {
		return w.failRun(ctx, msg.EvalRunID, fmt.Sprintf("evaluation: %v", err))
	}
	summary := evalresult.Aggregate(msg.EvalRunID, msg.AgentID, enabled, results, time.Since(start))

	key, err := w.sink.Publish(ctx, summary)
	if err != nil {
		// The run may still complete on redelivery; keep whatever was
		// computed readable for operators and retry instead of failing.
		w.sink.PublishPartial(ctx, summary)
		return fmt.Errorf("publish summary: %w", err)
	}
	if err := w.statusAPI.UpdateStatus(ctx, msg.EvalRunID, status.RunStatusCompleted,
		fmt.Sprintf("summary stored at %s", key)); err != nil {
		return fmt.Errorf("report completed status: %w", err)
	}
	log.Infof("run %s: completed, %d/%d pairs passed",
		msg.EvalRunID, summary.StatusCounts.Passed,
		summary.StatusCounts.Passed+summary.StatusCounts.Failed+summary.StatusCounts.Errored)
	return nil
}

// fetchInputs retrieves the enriched dataset and metrics configuration,
// retrying transient failures with exponential backoff. Permanent failures
// such as a missing configuration abort immediately.
func (w *Worker) fetchInputs(ctx context.Context, msg *queue.Message) (*dataset.Dataset, *metric.Configuration, error) {
	var ds *dataset.Dataset
	var cfg *metric.Configuration
	operation := func() error {
		var err error
		if ds == nil {
			if ds, err = w.configAPI.FetchDataset(ctx, msg.EvalRunID); err != nil {
				return retryable(err)
			}
		}
		if cfg == nil {
			if cfg, err = w.configAPI.FetchMetricsConfiguration(ctx, msg.MetricsConfigurationID); err != nil {
				return retryable(err)
			}
		}
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = w.fetchMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, nil, err
	}
	return ds, cfg, nil
}

// retryable marks non-transient API failures permanent so backoff stops.
func retryable(err error) error {
	if evalapi.IsTransient(err) {
		return err
	}
	return backoff.Permanent(err)
}

// failRun reports the terminal failure state with its cause. The returned
// error is non-nil when the report itself failed and the message must stay
// queued.
func (w *Worker) failRun(ctx context.Context, evalRunID, message string) error {
	log.Errorf("run %s: failed: %s", evalRunID, message)
	if err := w.statusAPI.UpdateStatus(ctx, evalRunID, status.RunStatusFailed, message); err != nil {
		return fmt.Errorf("report failed status: %w", err)
	}
	return nil
}

// reportStatus posts a lifecycle transition, logging on failure. A lost
// status update never aborts the run itself.
func (w *Worker) reportStatus(ctx context.Context, evalRunID string, st status.RunStatus, message string) {
	if err := w.statusAPI.UpdateStatus(ctx, evalRunID, st, message); err != nil {
		log.Errorf("run %s: report status %s: %v", evalRunID, st, err)
	}
}

// Close releases the worker's resources.
func (w *Worker) Close() error {
	var errs *multierror.Error
	if err := w.queue.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close queue: %w", err))
	}
	w.engine.Close()
	return errs.ErrorOrNil()
}
