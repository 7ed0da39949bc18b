//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package config loads and validates the runner configuration.
//
// Configuration is read from a YAML file, then overridden by environment
// variables for the values that differ per deployment. Validation is strict:
// a misconfigured runner refuses to start instead of failing mid-run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tunables.
const (
	defaultQueueKey           = "evalruns:pending"
	defaultQueuePollWait      = 5 * time.Second
	defaultDatasetConcurrency = 3
	defaultMetricConcurrency  = 8
	defaultMetricTimeout      = 30 * time.Second
	defaultIdleBackoffMin     = 1 * time.Second
	defaultIdleBackoffMax     = 30 * time.Second
	defaultFetchMaxElapsed    = 2 * time.Minute
	defaultShutdownGrace      = 60 * time.Second
	defaultHealthAddr         = ":8081"
	defaultLogLevel           = "info"
)

// Store backend names.
const (
	StoreInMemory = "inmemory"
	StoreCOS      = "cos"
)

// Config is the complete runner configuration.
type Config struct {
	// API configures the Evaluation Platform API client.
	API APIConfig `yaml:"api"`
	// Queue configures the evaluation request queue.
	Queue QueueConfig `yaml:"queue"`
	// Store configures the content store for summaries.
	Store StoreConfig `yaml:"store"`
	// Engine configures evaluation concurrency and timeouts.
	Engine EngineConfig `yaml:"engine"`
	// Judge configures the optional LLM judge.
	Judge JudgeConfig `yaml:"judge"`
	// Worker configures the run loop.
	Worker WorkerConfig `yaml:"worker"`
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level"`
	// HealthAddr is the listen address of the health endpoints.
	HealthAddr string `yaml:"health_addr"`
}

// APIConfig configures the platform API client.
type APIConfig struct {
	// BaseURL is the Evaluation Platform API base URL.
	BaseURL string `yaml:"base_url"`
	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// ReadTimeout bounds a full request round trip.
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// PostResults enables posting summaries back to the API.
	PostResults bool `yaml:"post_results"`
}

// QueueConfig configures the request queue.
type QueueConfig struct {
	// RedisURL is the Redis connection URL; empty selects the in-memory queue.
	RedisURL string `yaml:"redis_url"`
	// Key is the pending list key.
	Key string `yaml:"key"`
	// PollWait is the per-receive blocking window.
	PollWait time.Duration `yaml:"poll_wait"`
}

// StoreConfig configures the content store.
type StoreConfig struct {
	// Backend selects the store implementation: inmemory or cos.
	Backend string `yaml:"backend"`
	// BucketURL is the COS bucket URL, required for the cos backend.
	BucketURL string `yaml:"bucket_url"`
}

// EngineConfig configures evaluation concurrency.
type EngineConfig struct {
	// DatasetConcurrency caps items evaluated in parallel.
	DatasetConcurrency int `yaml:"dataset_concurrency"`
	// MetricConcurrency caps metric evaluations in parallel across items.
	MetricConcurrency int `yaml:"metric_concurrency"`
	// MetricTimeout bounds one metric evaluation on one item.
	MetricTimeout time.Duration `yaml:"metric_timeout"`
}

// JudgeConfig configures the LLM judge. The judge is optional: when Model is
// empty, judge-backed metrics resolve as invalid configuration.
type JudgeConfig struct {
	// Model is the judge chat model name.
	Model string `yaml:"model"`
	// BaseURL overrides the model API endpoint.
	BaseURL string `yaml:"base_url"`
}

// WorkerConfig configures the run loop.
type WorkerConfig struct {
	// IdleBackoffMin is the initial wait after an empty poll.
	IdleBackoffMin time.Duration `yaml:"idle_backoff_min"`
	// IdleBackoffMax caps the empty-poll wait.
	IdleBackoffMax time.Duration `yaml:"idle_backoff_max"`
	// FetchMaxElapsed caps the total time spent retrying configuration fetches.
	FetchMaxElapsed time.Duration `yaml:"fetch_max_elapsed"`
	// ShutdownGrace is how long an in-flight run may finish after a
	// shutdown signal.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// Default returns a configuration with every tunable at its default.
func Default() *Config {
	return &Config{
		API: APIConfig{
			PostResults: true,
		},
		Queue: QueueConfig{
			Key:      defaultQueueKey,
			PollWait: defaultQueuePollWait,
		},
		Store: StoreConfig{
			Backend: StoreInMemory,
		},
		Engine: EngineConfig{
			DatasetConcurrency: defaultDatasetConcurrency,
			MetricConcurrency:  defaultMetricConcurrency,
			MetricTimeout:      defaultMetricTimeout,
		},
		Worker: WorkerConfig{
			IdleBackoffMin:  defaultIdleBackoffMin,
			IdleBackoffMax:  defaultIdleBackoffMax,
			FetchMaxElapsed: defaultFetchMaxElapsed,
			ShutdownGrace:   defaultShutdownGrace,
		},
		LogLevel:   defaultLogLevel,
		HealthAddr: defaultHealthAddr,
	}
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides per-deployment values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("EVAL_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("EVAL_QUEUE_REDIS_URL"); v != "" {
		c.Queue.RedisURL = v
	}
	if v := os.Getenv("EVAL_STORE_BUCKET_URL"); v != "" {
		c.Store.BucketURL = v
		c.Store.Backend = StoreCOS
	}
	if v := os.Getenv("EVAL_JUDGE_MODEL"); v != "" {
		c.Judge.Model = v
	}
	if v := os.Getenv("EVAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for values that would fail mid-run.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Queue.Key == "" {
		return errors.New("queue.key is required")
	}
	if c.Queue.PollWait <= 0 {
		return errors.New("queue.poll_wait must be greater than 0")
	}
	if c.Engine.DatasetConcurrency <= 0 {
		return errors.New("engine.dataset_concurrency must be greater than 0")
	}
	if c.Engine.MetricConcurrency <= 0 {
		return errors.New("engine.metric_concurrency must be greater than 0")
	}
	if c.Engine.MetricTimeout <= 0 {
		return errors.New("engine.metric_timeout must be greater than 0")
	}
	switch c.Store.Backend {
	case StoreInMemory:
	case StoreCOS:
		if c.Store.BucketURL == "" {
			return errors.New("store.bucket_url is required for the cos backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Worker.IdleBackoffMin <= 0 || c.Worker.IdleBackoffMax < c.Worker.IdleBackoffMin {
		return errors.New("worker idle backoff bounds are invalid")
	}
	if c.Worker.ShutdownGrace <= 0 {
		return errors.New("worker.shutdown_grace must be greater than 0")
	}
	return nil
}
