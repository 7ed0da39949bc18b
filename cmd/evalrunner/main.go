//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Command evalrunner consumes evaluation requests from the queue and runs
// them against the configured metrics.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-eval-runner/config"
	"trpc.group/trpc-go/trpc-eval-runner/engine"
	"trpc.group/trpc-go/trpc-eval-runner/evalapi"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/llmjudge"
	"trpc.group/trpc-go/trpc-eval-runner/evaluator/registry"
	"trpc.group/trpc-go/trpc-eval-runner/log"
	"trpc.group/trpc-go/trpc-eval-runner/queue"
	queueinmemory "trpc.group/trpc-go/trpc-eval-runner/queue/inmemory"
	queueredis "trpc.group/trpc-go/trpc-eval-runner/queue/redis"
	"trpc.group/trpc-go/trpc-eval-runner/sink"
	"trpc.group/trpc-go/trpc-eval-runner/store"
	storecos "trpc.group/trpc-go/trpc-eval-runner/store/cos"
	storeinmemory "trpc.group/trpc-go/trpc-eval-runner/store/inmemory"
	"trpc.group/trpc-go/trpc-eval-runner/worker"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	w, healthSrv, err := build(cfg)
	if err != nil {
		log.Fatalf("build runner: %v", err)
	}

	go func() {
		if err := healthSrv.Start(); err != nil {
			log.Errorf("health server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("evaluation runner started, health endpoints on %s", cfg.HealthAddr)
	if err := w.Run(ctx); err != nil {
		log.Errorf("run loop: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown health server: %v", err)
	}
	if err := w.Close(); err != nil {
		log.Errorf("close runner: %v", err)
	}
	log.Info("evaluation runner stopped")
}

// build wires the runner from its configuration.
func build(cfg *config.Config) (*worker.Worker, *worker.HealthServer, error) {
	apiOpts := []evalapi.Option{}
	if cfg.API.ConnectTimeout > 0 {
		apiOpts = append(apiOpts, evalapi.WithConnectTimeout(cfg.API.ConnectTimeout))
	}
	if cfg.API.ReadTimeout > 0 {
		apiOpts = append(apiOpts, evalapi.WithReadTimeout(cfg.API.ReadTimeout))
	}
	apiClient, err := evalapi.NewClient(cfg.API.BaseURL, apiOpts...)
	if err != nil {
		return nil, nil, err
	}

	var q queue.Queue
	if cfg.Queue.RedisURL != "" {
		q, err = queueredis.New(
			queueredis.WithURL(cfg.Queue.RedisURL),
			queueredis.WithKey(cfg.Queue.Key),
		)
		if err != nil {
			return nil, nil, err
		}
	} else {
		log.Warn("no redis url configured, using the in-memory queue")
		q = queueinmemory.New(0)
	}

	var contentStore store.ContentStore
	switch cfg.Store.Backend {
	case config.StoreCOS:
		contentStore = storecos.New(cfg.Store.BucketURL)
	default:
		log.Warn("using the in-memory content store, summaries will not survive restarts")
		contentStore = storeinmemory.New()
	}

	reg := registry.New()
	if cfg.Judge.Model != "" {
		judgeOpts := []openaiopt.RequestOption{}
		if cfg.Judge.BaseURL != "" {
			judgeOpts = append(judgeOpts, openaiopt.WithBaseURL(cfg.Judge.BaseURL))
		}
		judge, err := llmjudge.NewJudge(cfg.Judge.Model, judgeOpts...)
		if err != nil {
			return nil, nil, err
		}
		for _, aspect := range llmjudge.Aspects() {
			if err := reg.Register(aspect, llmjudge.NewFactory(judge, aspect)); err != nil {
				return nil, nil, err
			}
		}
		log.Infof("llm judge enabled with model %s", cfg.Judge.Model)
	}

	eng, err := engine.New(
		engine.WithDatasetConcurrency(cfg.Engine.DatasetConcurrency),
		engine.WithMetricConcurrency(cfg.Engine.MetricConcurrency),
		engine.WithMetricTimeout(cfg.Engine.MetricTimeout),
	)
	if err != nil {
		return nil, nil, err
	}

	sinkOpts := []sink.Option{}
	if cfg.API.PostResults {
		sinkOpts = append(sinkOpts, sink.WithResultsAPI(apiClient))
	}
	snk, err := sink.New(contentStore, sinkOpts...)
	if err != nil {
		return nil, nil, err
	}

	w, err := worker.New(q, apiClient, apiClient, reg, eng, snk, contentStore,
		worker.WithPollWait(cfg.Queue.PollWait),
		worker.WithIdleBackoff(cfg.Worker.IdleBackoffMin, cfg.Worker.IdleBackoffMax),
		worker.WithFetchMaxElapsed(cfg.Worker.FetchMaxElapsed),
		worker.WithShutdownGrace(cfg.Worker.ShutdownGrace),
	)
	if err != nil {
		return nil, nil, err
	}
	return w, worker.NewHealthServer(cfg.HealthAddr, w.Health()), nil
}
