//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package store defines the content store used to persist evaluation output.
package store

import "context"

// ContentStore is a flat keyed blob store for evaluation summaries and
// poison-message payloads. Keys are slash-separated paths.
type ContentStore interface {
	// Put writes data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get reads the object stored under key.
	// Returns an error wrapping os.ErrNotExist when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys stored under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
