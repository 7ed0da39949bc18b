//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides a channel backed request queue for tests and
// local development.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-eval-runner/queue"
)

// Queue is an in-memory request queue. It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	pending  chan []byte
	inFlight map[string][]byte
	closed   bool
}

// New creates an in-memory queue buffering up to capacity messages.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{
		pending:  make(chan []byte, capacity),
		inFlight: make(map[string][]byte),
	}
}

// Enqueue adds a message to the queue.
func (q *Queue) Enqueue(body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("queue is closed")
	}
	select {
	case q.pending <- body:
		return nil
	default:
		return errors.New("queue is full")
	}
}

// Receive waits up to wait for a message.
func (q *Queue) Receive(ctx context.Context, wait time.Duration) (*queue.Delivery, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case body, ok := <-q.pending:
		if !ok {
			return nil, errors.New("queue is closed")
		}
		receipt := uuid.NewString()
		q.mu.Lock()
		q.inFlight[receipt] = body
		q.mu.Unlock()
		return &queue.Delivery{Receipt: receipt, Body: body}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack removes a processed message.
func (q *Queue) Ack(ctx context.Context, d *queue.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inFlight[d.Receipt]; !ok {
		return errors.New("unknown receipt")
	}
	delete(q.inFlight, d.Receipt)
	return nil
}

// Nack returns a message to the queue for redelivery.
func (q *Queue) Nack(ctx context.Context, d *queue.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	body, ok := q.inFlight[d.Receipt]
	if !ok {
		return errors.New("unknown receipt")
	}
	if q.closed {
		return errors.New("queue is closed")
	}
	delete(q.inFlight, d.Receipt)
	select {
	case q.pending <- body:
		return nil
	default:
		return errors.New("queue is full")
	}
}

// Close marks the queue closed. In-flight messages are dropped.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.pending)
	return nil
}

var _ queue.Queue = (*Queue)(nil)
