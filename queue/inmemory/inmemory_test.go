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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-runner/queue"
)

func TestReceiveAck(t *testing.T) {
	q := New(4)
	defer q.Close()

	require.NoError(t, q.Enqueue([]byte("msg-1")))
	d, err := q.Receive(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, []byte("msg-1"), d.Body)

	require.NoError(t, q.Ack(context.Background(), d))
	// Acked messages are gone.
	d, err = q.Receive(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestNackRedelivers(t *testing.T) {
	q := New(4)
	defer q.Close()

	require.NoError(t, q.Enqueue([]byte("msg-1")))
	d, err := q.Receive(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NoError(t, q.Nack(context.Background(), d))

	redelivered, err := q.Receive(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, redelivered)
	assert.Equal(t, d.Body, redelivered.Body)
}

func TestReceiveTimesOutEmpty(t *testing.T) {
	q := New(4)
	defer q.Close()

	start := time.Now()
	d, err := q.Receive(context.Background(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestReceiveHonorsContext(t *testing.T) {
	q := New(4)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Receive(ctx, time.Second)
	require.Error(t, err)
}

func TestAckUnknownReceipt(t *testing.T) {
	q := New(4)
	defer q.Close()
	require.Error(t, q.Ack(context.Background(), &queue.Delivery{Receipt: "bogus"}))
}

func TestEnqueueAfterClose(t *testing.T) {
	q := New(4)
	require.NoError(t, q.Close())
	require.Error(t, q.Enqueue([]byte("late")))
	require.NoError(t, q.Close())
}
