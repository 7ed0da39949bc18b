//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "agent-1/evaluations/run-1.json", []byte(`{"a":1}`), "application/json"))
	data, err := s.Get(ctx, "agent-1/evaluations/run-1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// Overwrite replaces the object.
	require.NoError(t, s.Put(ctx, "agent-1/evaluations/run-1.json", []byte(`{"a":2}`), "application/json"))
	data, err = s.Get(ctx, "agent-1/evaluations/run-1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPutEmptyKey(t *testing.T) {
	s := New()
	require.Error(t, s.Put(context.Background(), "", []byte("x"), ""))
}

func TestList(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "poison/b.json", []byte("b"), ""))
	require.NoError(t, s.Put(ctx, "poison/a.json", []byte("a"), ""))
	require.NoError(t, s.Put(ctx, "agent-1/evaluations/run-1.json", []byte("s"), ""))

	keys, err := s.List(ctx, "poison/")
	require.NoError(t, err)
	assert.Equal(t, []string{"poison/a.json", "poison/b.json"}, keys)

	keys, err = s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", []byte("abc"), ""))
	data, err := s.Get(ctx, "k")
	require.NoError(t, err)
	data[0] = 'z'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
