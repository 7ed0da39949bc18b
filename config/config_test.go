//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://platform.example.com
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://platform.example.com", cfg.API.BaseURL)
	assert.Equal(t, defaultQueueKey, cfg.Queue.Key)
	assert.Equal(t, 3, cfg.Engine.DatasetConcurrency)
	assert.Equal(t, 8, cfg.Engine.MetricConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Engine.MetricTimeout)
	assert.Equal(t, StoreInMemory, cfg.Store.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://platform.example.com
  post_results: false
queue:
  redis_url: redis://127.0.0.1:6379
  key: custom:queue
  poll_wait: 2s
store:
  backend: cos
  bucket_url: https://bucket.cos.ap-guangzhou.myqcloud.com
engine:
  dataset_concurrency: 5
  metric_concurrency: 12
  metric_timeout: 45s
judge:
  model: gpt-4o-mini
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom:queue", cfg.Queue.Key)
	assert.Equal(t, 2*time.Second, cfg.Queue.PollWait)
	assert.Equal(t, StoreCOS, cfg.Store.Backend)
	assert.Equal(t, 5, cfg.Engine.DatasetConcurrency)
	assert.Equal(t, 12, cfg.Engine.MetricConcurrency)
	assert.Equal(t, 45*time.Second, cfg.Engine.MetricTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Judge.Model)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.API.PostResults)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("EVAL_API_BASE_URL", "https://env.example.com")
	t.Setenv("EVAL_JUDGE_MODEL", "env-model")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, "env-model", cfg.Judge.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }},
		{name: "missing queue key", mutate: func(c *Config) { c.Queue.Key = "" }},
		{name: "zero poll wait", mutate: func(c *Config) { c.Queue.PollWait = 0 }},
		{name: "zero dataset concurrency", mutate: func(c *Config) { c.Engine.DatasetConcurrency = 0 }},
		{name: "negative metric concurrency", mutate: func(c *Config) { c.Engine.MetricConcurrency = -1 }},
		{name: "zero metric timeout", mutate: func(c *Config) { c.Engine.MetricTimeout = 0 }},
		{name: "unknown store backend", mutate: func(c *Config) { c.Store.Backend = "s3" }},
		{name: "cos without bucket", mutate: func(c *Config) { c.Store.Backend = StoreCOS }},
		{name: "inverted idle backoff", mutate: func(c *Config) {
			c.Worker.IdleBackoffMin = time.Minute
			c.Worker.IdleBackoffMax = time.Second
		}},
		{name: "zero shutdown grace", mutate: func(c *Config) { c.Worker.ShutdownGrace = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.API.BaseURL = "https://platform.example.com"
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
