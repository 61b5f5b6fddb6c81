package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/gomodule/redigo/redis"
)

// brpopTimeoutSeconds bounds how long a consumer blocks on Redis before
// rechecking its context, so shutdown stays responsive.
const brpopTimeoutSeconds = 1

// Client produces to and consumes from Redis-list queues.
type Client struct {
	pool        *redis.Pool
	logger      logging.Logger
	maxAttempts int
	retryDelay  time.Duration
}

func NewClient(pool *redis.Pool, logger logging.Logger, maxAttempts int, retryDelay time.Duration) *Client {
	return &Client{
		pool:        pool,
		logger:      logger.With("component", "queue"),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Enqueue pushes one job. Callers on the request path treat failures as
// best-effort: log and move on, never fail the originating request.
func (c *Client) Enqueue(ctx context.Context, queueName string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue marshal error: %w", err)
	}
	body, err := json.Marshal(message{Attempts: 0, Payload: raw})
	if err != nil {
		return fmt.Errorf("queue marshal error: %w", err)
	}

	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("queue connection error: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("LPUSH", queueName, body); err != nil {
		return fmt.Errorf("queue push error: %w", err)
	}
	return nil
}

// Consume runs a bounded pool of consumers on one queue and blocks until ctx
// is cancelled. There must be exactly one Consume call per queue name and
// process; jobs are kept in a processing list between pickup and completion,
// so a delivery survives handler failure. Deliveries stranded in the
// processing list by a crashed worker are moved back onto the queue before
// the pool starts, which keeps redelivery alive across restarts at the cost
// of possibly re-running a job the crash had almost finished.
func (c *Client) Consume(ctx context.Context, queueName string, concurrency int, h Handler) {
	if concurrency < 1 {
		concurrency = 1
	}

	if err := c.reclaim(ctx, queueName); err != nil {
		c.logger.Error(ctx, "processing list reclaim failed", "queue", queueName, "error", err.Error())
	}

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.consumeLoop(ctx, queueName, h)
		}()
	}
	wg.Wait()
}

// reclaim requeues deliveries a previous run left in the processing list.
func (c *Client) reclaim(ctx context.Context, queueName string) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	processing := queueName + ":processing"
	requeued := 0
	for {
		_, err := redis.Bytes(conn.Do("RPOPLPUSH", processing, queueName))
		if err == redis.ErrNil {
			break
		}
		if err != nil {
			return err
		}
		requeued++
	}
	if requeued > 0 {
		c.logger.Info(ctx, "requeued stranded deliveries", "queue", queueName, "count", requeued)
	}
	return nil
}

func (c *Client) consumeLoop(ctx context.Context, queueName string, h Handler) {
	processing := queueName + ":processing"

	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.consumeOne(ctx, queueName, processing, h); err != nil {
			c.logger.Error(ctx, "queue receive failed", "queue", queueName, "error", err.Error())
			// do not spin on a dead connection
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func (c *Client) consumeOne(ctx context.Context, queueName, processing string, h Handler) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("BRPOPLPUSH", queueName, processing, brpopTimeoutSeconds))
	if err != nil {
		if err == redis.ErrNil {
			return nil // timeout, loop around
		}
		return err
	}

	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Error(ctx, "dropping malformed queue message", "queue", queueName, "error", err.Error())
		_, _ = conn.Do("LREM", processing, 1, raw)
		return nil
	}

	handlerErr := h(ctx, msg.Payload)

	// delivery is settled either way; redelivery happens via an explicit
	// requeue below
	if _, err := conn.Do("LREM", processing, 1, raw); err != nil {
		return err
	}

	if handlerErr == nil {
		return nil
	}

	if IsNoRetry(handlerErr) {
		c.logger.Warn(ctx, "dropping job after terminal failure", "queue", queueName, "error", handlerErr.Error())
		return nil
	}

	msg.Attempts++
	if msg.Attempts >= c.maxAttempts {
		c.logger.Error(ctx, "dropping job after max attempts", "queue", queueName, "attempts", msg.Attempts, "error", handlerErr.Error())
		return nil
	}

	c.logger.Warn(ctx, "requeueing failed job", "queue", queueName, "attempt", msg.Attempts, "error", handlerErr.Error())

	select {
	case <-ctx.Done():
	case <-time.After(c.retryDelay):
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := conn.Do("LPUSH", queueName, body); err != nil {
		return err
	}
	return nil
}
