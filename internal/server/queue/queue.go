// Package queue is a small at-least-once job queue on Redis lists, shared by
// the API process (producer) and the worker process (consumer).
package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// Queue names, one Redis list per job type.
const (
	Thumbnails = "queue:thumbnails"
	Welcome    = "queue:welcome"
)

// Handler processes one delivered payload. Returning an error asks the queue
// to redeliver the whole job, unless the error is marked with NoRetry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// message is the wire envelope. Attempts counts deliveries already consumed.
type message struct {
	Attempts int             `json:"attempts"`
	Payload  json.RawMessage `json:"payload"`
}

type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// NoRetry marks err as terminal: the job is dropped instead of redelivered.
// Used for outcomes retrying cannot change, such as a file deleted before
// the worker got to it.
func NoRetry(err error) error {
	return &terminalError{err: err}
}

// IsNoRetry reports whether err carries the NoRetry mark.
func IsNoRetry(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}
