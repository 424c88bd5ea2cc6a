package idempotency

import (
	"context"
	"time"
)

// Record is a cached outcome of a previously executed request. Status holds
// the HTTP status of the original response so a replay answers in the same
// class the first attempt did.
type Record struct {
	Key        string    `json:"key"`
	Status     int       `json:"status"`
	Payload    []byte    `json:"payload"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store persists request outcomes keyed by the client-chosen idempotency
// key. Implementations live in infra (Redis, memory).
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
}
