package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the envelope schema version stamped on every event
const SchemaVersion = "1.0"

// DefaultMaxRetries bounds redelivery attempts on the durable queue path
const DefaultMaxRetries = 3

// Event types shipped between services
const (
	TypeMatchCompleted          = "match.completed"
	TypeStandingsUpdated        = "standings.updated"
	TypeTournamentStatusChanged = "tournament.status.changed"
	TypeTournamentCreated       = "tournament.created"
	TypeTournamentUpdated       = "tournament.updated"
	TypeTeamCreated             = "team.created"
	TypeTeamUpdated             = "team.updated"
)

// Envelope is the wire format for every fact shipped between services.
// Field names are fixed; every producer and consumer must agree on them.
// EventID is assigned once at creation and never changes across retries
// or redeliveries.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Service    string          `json:"service"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
	Version    string          `json:"version"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
}

// New builds an envelope with a fresh event ID, the producing service's
// name, the current UTC timestamp and the fixed schema version
func New(service, eventType string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Envelope{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		Service:    service,
		Payload:    data,
		Timestamp:  time.Now().UTC(),
		Version:    SchemaVersion,
		MaxRetries: DefaultMaxRetries,
	}, nil
}

// Validate checks the envelope's structural shape. An envelope missing any
// required field is malformed and must be dropped, never retried.
func (e *Envelope) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("missing event_id")
	case e.EventType == "":
		return fmt.Errorf("missing event_type")
	case e.Service == "":
		return fmt.Errorf("missing service")
	case len(e.Payload) == 0 || string(e.Payload) == "null":
		return fmt.Errorf("missing payload")
	case e.Timestamp.IsZero():
		return fmt.Errorf("missing timestamp")
	case e.Version == "":
		return fmt.Errorf("missing version")
	}
	return nil
}

// Encode serializes the envelope to its JSON wire form
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses an envelope from its JSON wire form. Unknown fields are
// ignored for forward compatibility.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return &e, nil
}

// DecodePayload parses the payload into a typed per-event-type structure
func (e *Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// PayloadKeys returns the sorted top-level key names of the payload.
// Used for logging context without leaking payload values.
func (e *Envelope) PayloadKeys() []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(e.Payload, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
