package types

import (
	"encoding/json"
	"time"
)

// CodexEvent is one protocol notification or server request as delivered by
// the transport. ID is set for server requests that expect a response.
type CodexEvent struct {
	ID     *json.RawMessage `json:"id,omitempty"`
	Method string           `json:"method"`
	Params json.RawMessage  `json:"params,omitempty"`
	TS     string           `json:"ts,omitempty"`
}

// RequestID renders the request id as a string; numeric and string ids are
// both accepted by the protocol.
func (e CodexEvent) RequestID() string {
	if e.ID == nil || len(*e.ID) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(*e.ID, &asString); err == nil {
		return asString
	}
	var asNumber json.Number
	if err := json.Unmarshal(*e.ID, &asNumber); err == nil {
		return asNumber.String()
	}
	return ""
}

// Time parses TS. The zero time is returned when TS is absent or malformed.
func (e CodexEvent) Time() time.Time {
	if e.TS == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, e.TS)
	if err != nil {
		return time.Time{}
	}
	return ts
}
