package queue

import (
	"encoding/json"
	"testing"
)

type scanPayload struct {
	Symbols []string `json:"symbols"`
}

func TestNewMessageRoundTrip(t *testing.T) {
	data, id, err := newMessage("scan.symbols", scanPayload{Symbols: []string{"AAPL", "MSFT"}})
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.ID != id || msg.Type != "scan.symbols" || msg.Attempts != 0 {
		t.Fatalf("unexpected message %+v", msg)
	}
	p, err := Decode[scanPayload](msg.Payload)
	if err != nil || len(p.Symbols) != 2 || p.Symbols[1] != "MSFT" {
		t.Fatalf("decode = %+v, %v", p, err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode[scanPayload](json.RawMessage(`{"symbols":1}`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestQueueKeys(t *testing.T) {
	q := NewRedisQueue(nil, nil, nil, WithKeyPrefix("x"))
	if q.queueKey() != "x:messages" || q.retryKey() != "x:retry" || q.deadLetterKey() != "x:dlq" {
		t.Fatalf("unexpected keys")
	}
	if q.config.Workers != 1 {
		t.Fatalf("workers default = %d", q.config.Workers)
	}
}
