package lode

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/justapithecus/peerdialog/adapter"
)

// RecordKindSelection marks a completed dialog record.
const RecordKindSelection = "selection"

// DefaultApp is the app partition value for events without an app name.
const DefaultApp = "default"

// DeriveDay computes the day partition from a timestamp.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SelectionRecord is the storage format of one completed dialog.
type SelectionRecord struct {
	RecordKind      string   `json:"record_kind"`
	ContractVersion string   `json:"contract_version"`
	EventType       string   `json:"event_type"`
	SessionID       string   `json:"session_id,omitempty"`
	AppName         string   `json:"app_name,omitempty"`
	Mode            string   `json:"mode"`
	Paths           []string `json:"paths"`
	Fallback        bool     `json:"fallback"`
	Error           string   `json:"error,omitempty"`
	Ts              string   `json:"ts"`
	DurationMs      int64    `json:"duration_ms"`

	// Partition keys (used by Lode HiveLayout)
	App     string `json:"app"`
	Day     string `json:"day"`
	Outcome string `json:"outcome"`
}

var partitionReplacer = strings.NewReplacer("/", "_", "=", "_", "\\", "_")

// partitionApp returns the app partition value for name. Path separators
// and '=' would break the Hive layout and are replaced.
func partitionApp(name string) string {
	if name == "" {
		return DefaultApp
	}
	return partitionReplacer.Replace(name)
}

// toRecordMap converts an event to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toRecordMap(e *adapter.SelectionEvent) map[string]any {
	day := DeriveDay(time.Now())
	if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		day = DeriveDay(ts)
	}
	paths := e.Paths
	if paths == nil {
		paths = []string{}
	}
	m := map[string]any{
		"record_kind":      RecordKindSelection,
		"contract_version": e.ContractVersion,
		"event_type":       e.EventType,
		"mode":             e.Mode,
		"paths":            paths,
		"fallback":         e.Fallback,
		"ts":               e.Timestamp,
		"duration_ms":      e.DurationMs,
		"app":              partitionApp(e.AppName),
		"day":              day,
		"outcome":          e.Outcome,
	}
	if e.SessionID != "" {
		m["session_id"] = e.SessionID
	}
	if e.AppName != "" {
		m["app_name"] = e.AppName
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}

// fromRecordMap rebuilds an event from a stored record. Decoded records
// carry JSON-typed values, so numbers and lists are converted back.
func fromRecordMap(m map[string]any) *adapter.SelectionEvent {
	return &adapter.SelectionEvent{
		ContractVersion: toString(m["contract_version"]),
		EventType:       toString(m["event_type"]),
		SessionID:       toString(m["session_id"]),
		AppName:         toString(m["app_name"]),
		Mode:            toString(m["mode"]),
		Outcome:         toString(m["outcome"]),
		Paths:           toStrings(m["paths"]),
		Fallback:        m["fallback"] == true,
		Error:           toString(m["error"]),
		Timestamp:       toString(m["ts"]),
		DurationMs:      toInt64(m["duration_ms"]),
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
