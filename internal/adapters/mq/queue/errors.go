package queue

import "errors"

// ErrQueueFull is returned by callers that could not enqueue a job.
var ErrQueueFull = errors.New("rematch queue full")
