package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
}

// Message represents a message in the queue
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode unmarshals a job payload into T.
func Decode[T any](payload json.RawMessage) (*T, error) {
	var result T
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &result, nil
}
