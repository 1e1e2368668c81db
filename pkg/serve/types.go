package serve

import "encoding/json"

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "check" | "check_log" | "stats" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ReportItem is one report as sent by a client
type ReportItem struct {
	Hash    string   `json:"hash"`
	Text    string   `json:"text"`
	Origins []string `json:"origins"`
}

// CheckPayload is the payload for "check" requests. Reports with identical
// text are merged before matching.
type CheckPayload struct {
	Reports []ReportItem `json:"reports"`
}

// CheckLogPayload is the payload for "check_log" requests: a raw tool log
type CheckLogPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// VerdictData describes the outcome for one distinct report
type VerdictData struct {
	Hash          string   `json:"hash"`
	Text          string   `json:"text"`
	Origins       []string `json:"origins"`
	Route         string   `json:"route"`
	Suppressed    bool     `json:"suppressed"`
	Suppression   string   `json:"suppression,omitempty"`
	SuppressionID string   `json:"suppression_id,omitempty"`
}

// CheckData is the data field for "check" and "check_log" responses
type CheckData struct {
	Verdicts  []VerdictData `json:"verdicts"`
	Unmatched int           `json:"unmatched"`
}

// HitData is the cumulative hit count of one suppression
type HitData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsData is the data field for "stats" responses
type StatsData struct {
	Hits []HitData `json:"hits"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "check" | "check_log" | "stats" | "decode" | error type
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version      string `json:"version"`
	Suppressions int    `json:"suppressions"`
}
