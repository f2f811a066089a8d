// Package adapter publishes dialog outcomes to downstream systems.
//
// The CLI builds one SelectionEvent per completed dialog and hands it to
// the configured adapter; users provide configuration only.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// EventType is the event_type of every SelectionEvent.
const EventType = "dialog_completed"

// Outcomes reported in SelectionEvent.Outcome.
const (
	OutcomeSelected = "selected"
	OutcomeCanceled = "canceled"
	OutcomeFailed   = "failed"
)

// SelectionEvent is the payload published when a dialog completes.
type SelectionEvent struct {
	ContractVersion string   `json:"contract_version"`
	EventType       string   `json:"event_type"`
	SessionID       string   `json:"session_id,omitempty"`
	AppName         string   `json:"app_name,omitempty"`
	Mode            string   `json:"mode"`
	Outcome         string   `json:"outcome"`
	Paths           []string `json:"paths"`
	Fallback        bool     `json:"fallback"`
	Error           string   `json:"error,omitempty"`
	Timestamp       string   `json:"timestamp"` // RFC 3339
	DurationMs      int64    `json:"duration_ms"`
}

// Adapter publishes selection events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and
	// deadlines.
	Publish(ctx context.Context, event *SelectionEvent) error

	// Close releases adapter resources.
	Close() error
}

// Encoding selects the wire form of a published event.
type Encoding string

// Supported encodings.
const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding parses an encoding name. Empty selects JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return EncodingJSON, nil
	case "msgpack":
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("invalid encoding %q (must be json or msgpack)", s)
	}
}

// ContentType returns the MIME type of the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// Encode serializes event. Msgpack keys follow the JSON field names.
func (e Encoding) Encode(event *SelectionEvent) ([]byte, error) {
	if e != EncodingMsgpack {
		return json.Marshal(event)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(event); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses data produced by Encode.
func (e Encoding) Decode(data []byte) (*SelectionEvent, error) {
	var event SelectionEvent
	if e != EncodingMsgpack {
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, err
		}
		return &event, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// BaseBackoff is the delay before the first retry; it doubles per retry.
var BaseBackoff = 500 * time.Millisecond

// Retry calls fn up to 1+retries times with exponential backoff between
// attempts. It stops early when fn succeeds, when permanent reports the
// error as non-retriable, or when ctx ends. name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, permanent func(error) bool, fn func(context.Context) error) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		// Backoff before retries, not before the first attempt
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * BaseBackoff
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
