//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package redis provides a Redis list backed evaluation request queue.
//
// It implements the reliable queue pattern: Receive atomically moves a
// message from the pending list onto this consumer's processing list, so a
// consumer crash leaves the message recoverable instead of lost. Ack removes
// it from the processing list; Nack pushes it back onto the pending list.
//
// Each consumer owns a processing list keyed by a unique consumer ID and
// maintains a heartbeat key with a TTL. Receive periodically scans for
// processing lists whose heartbeat has expired and requeues their entries, so
// messages held by a dead consumer are redelivered once its heartbeat lapses.
// Close requeues this consumer's own in-flight entries for a clean handoff.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trpc.group/trpc-go/trpc-eval-runner/log"
	"trpc.group/trpc-go/trpc-eval-runner/queue"
)

const (
	// defaultKey is the pending list holding evaluation requests.
	defaultKey = "evalruns:pending"
	// processingInfix separates the pending key from a consumer's in-flight list.
	processingInfix = ":processing:"
	// consumerInfix separates the pending key from a consumer's heartbeat key.
	consumerInfix = ":consumers:"
	// defaultHeartbeatTTL bounds how long a dead consumer can hold a message.
	defaultHeartbeatTTL = 90 * time.Second
)

// Queue is a Redis backed request queue.
type Queue struct {
	client        redis.UniversalClient
	ownsClient    bool
	key           string
	consumerID    string
	processingKey string
	heartbeatTTL  time.Duration

	mu       sync.Mutex
	lastReap time.Time
}

// Option configures the Queue.
type Option func(*options)

type options struct {
	url          string
	key          string
	client       redis.UniversalClient
	heartbeatTTL time.Duration
}

// WithURL sets the Redis connection URL, e.g. redis://127.0.0.1:6379.
func WithURL(url string) Option {
	return func(o *options) {
		o.url = url
	}
}

// WithKey overrides the pending list key.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithClient provides a pre-configured Redis client directly.
func WithClient(client redis.UniversalClient) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithHeartbeatTTL overrides how long a silent consumer keeps its in-flight
// messages before another consumer requeues them. It must comfortably exceed
// the receive poll interval.
func WithHeartbeatTTL(d time.Duration) Option {
	return func(o *options) {
		o.heartbeatTTL = d
	}
}

// New creates a Redis queue with its own consumer identity.
func New(opt ...Option) (*Queue, error) {
	opts := &options{key: defaultKey, heartbeatTTL: defaultHeartbeatTTL}
	for _, o := range opt {
		o(opts)
	}
	if opts.heartbeatTTL <= 0 {
		return nil, errors.New("heartbeat ttl must be greater than 0")
	}
	client := opts.client
	ownsClient := false
	if client == nil {
		if opts.url == "" {
			return nil, errors.New("redis url is empty")
		}
		redisOpts, err := redis.ParseURL(opts.url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(redisOpts)
		ownsClient = true
	}
	consumerID := uuid.NewString()
	return &Queue{
		client:        client,
		ownsClient:    ownsClient,
		key:           opts.key,
		consumerID:    consumerID,
		processingKey: opts.key + processingInfix + consumerID,
		heartbeatTTL:  opts.heartbeatTTL,
	}, nil
}

func (q *Queue) aliveKey(consumerID string) string {
	return q.key + consumerInfix + consumerID
}

// Receive waits up to wait for a message, moving it onto this consumer's
// processing list. It refreshes the consumer heartbeat and requeues messages
// stranded by consumers whose heartbeat expired.
func (q *Queue) Receive(ctx context.Context, wait time.Duration) (*queue.Delivery, error) {
	if err := q.client.Set(ctx, q.aliveKey(q.consumerID), "1", q.heartbeatTTL).Err(); err != nil {
		return nil, fmt.Errorf("refresh consumer heartbeat: %w", err)
	}
	q.reapStale(ctx)
	body, err := q.client.BLMove(ctx, q.key, q.processingKey, "RIGHT", "LEFT", wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("receive message: %w", err)
	}
	// The element value doubles as the receipt; Ack removes one occurrence.
	return &queue.Delivery{Receipt: body, Body: []byte(body)}, nil
}

// reapStale requeues in-flight messages of consumers whose heartbeat expired.
// At most one scan runs per half heartbeat interval per consumer.
func (q *Queue) reapStale(ctx context.Context) {
	q.mu.Lock()
	if !q.lastReap.IsZero() && time.Since(q.lastReap) < q.heartbeatTTL/2 {
		q.mu.Unlock()
		return
	}
	q.lastReap = time.Now()
	q.mu.Unlock()

	prefix := q.key + processingInfix
	iter := q.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		processingKey := iter.Val()
		consumerID := strings.TrimPrefix(processingKey, prefix)
		if consumerID == q.consumerID {
			continue
		}
		alive, err := q.client.Exists(ctx, q.aliveKey(consumerID)).Result()
		if err != nil || alive > 0 {
			continue
		}
		moved := q.requeueAll(ctx, processingKey)
		if moved > 0 {
			log.Warnf("requeued %d in-flight message(s) from dead consumer %s", moved, consumerID)
		}
	}
	if err := iter.Err(); err != nil {
		log.Errorf("scan processing lists: %v", err)
	}
}

// requeueAll drains a processing list back onto the pending list and returns
// the number of messages moved.
func (q *Queue) requeueAll(ctx context.Context, processingKey string) int {
	moved := 0
	for {
		if err := q.client.LMove(ctx, processingKey, q.key, "RIGHT", "RIGHT").Err(); err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("requeue message from %s: %v", processingKey, err)
			}
			return moved
		}
		moved++
	}
}

// Ack removes a processed message from the processing list.
func (q *Queue) Ack(ctx context.Context, d *queue.Delivery) error {
	if err := q.client.LRem(ctx, q.processingKey, 1, d.Receipt).Err(); err != nil {
		return fmt.Errorf("ack message: %w", err)
	}
	return nil
}

// Nack moves a message from the processing list back onto the pending list.
func (q *Queue) Nack(ctx context.Context, d *queue.Delivery) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey, 1, d.Receipt)
	pipe.RPush(ctx, q.key, d.Receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("nack message: %w", err)
	}
	return nil
}

// Close hands this consumer's in-flight messages back to the pending list,
// retires its heartbeat and, when the client was created here, closes it.
func (q *Queue) Close() error {
	ctx := context.Background()
	q.requeueAll(ctx, q.processingKey)
	if err := q.client.Del(ctx, q.aliveKey(q.consumerID)).Err(); err != nil {
		log.Errorf("delete consumer heartbeat: %v", err)
	}
	if q.ownsClient {
		return q.client.Close()
	}
	return nil
}

var _ queue.Queue = (*Queue)(nil)
