package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEnvelope(t *testing.T) {
	evt, err := New("match-service", TypeMatchCompleted, map[string]any{
		"match_id": 42,
	})
	assert.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, TypeMatchCompleted, evt.EventType)
	assert.Equal(t, "match-service", evt.Service)
	assert.Equal(t, SchemaVersion, evt.Version)
	assert.Equal(t, DefaultMaxRetries, evt.MaxRetries)
	assert.Equal(t, 0, evt.RetryCount)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, time.UTC, evt.Timestamp.Location())
	assert.NoError(t, evt.Validate())
}

func TestEnvelopeIDsAreUnique(t *testing.T) {
	a, err := New("svc", TypeTeamCreated, map[string]any{"team_id": 1})
	assert.NoError(t, err)
	b, err := New("svc", TypeTeamCreated, map[string]any{"team_id": 1})
	assert.NoError(t, err)

	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	evt, err := New("tournament-service", TypeTournamentCreated, map[string]any{
		"tournament_id": 7,
		"name":          "Spring Cup",
	})
	assert.NoError(t, err)

	data, err := evt.Encode()
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)

	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, evt.EventType, decoded.EventType)
	assert.Equal(t, evt.Service, decoded.Service)
	assert.Equal(t, evt.Version, decoded.Version)
	assert.NoError(t, decoded.Validate())
}

func TestWireFieldNames(t *testing.T) {
	evt, err := New("svc", TypeMatchCompleted, map[string]any{"match_id": 1})
	assert.NoError(t, err)

	data, err := evt.Encode()
	assert.NoError(t, err)

	var wire map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(data, &wire))

	for _, field := range []string{
		"event_id", "event_type", "service", "payload",
		"timestamp", "version", "retry_count", "max_retries",
	} {
		assert.Contains(t, wire, field)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	data := []byte(`{
		"event_id": "abc",
		"event_type": "match.completed",
		"service": "match-service",
		"payload": {"match_id": 1},
		"timestamp": "2025-05-01T10:00:00Z",
		"version": "1.0",
		"retry_count": 0,
		"max_retries": 3,
		"trace_id": "future-field",
		"region": "eu-west"
	}`)

	evt, err := Decode(data)
	assert.NoError(t, err)
	assert.NoError(t, evt.Validate())
	assert.Equal(t, "abc", evt.EventID)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte("this is not json"))
	assert.Error(t, err)
}

func TestValidateMissingFields(t *testing.T) {
	base := func() *Envelope {
		return &Envelope{
			EventID:   "abc",
			EventType: TypeMatchCompleted,
			Service:   "match-service",
			Payload:   json.RawMessage(`{"match_id":1}`),
			Timestamp: time.Now().UTC(),
			Version:   SchemaVersion,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Envelope)
	}{
		{"missing event_id", func(e *Envelope) { e.EventID = "" }},
		{"missing event_type", func(e *Envelope) { e.EventType = "" }},
		{"missing service", func(e *Envelope) { e.Service = "" }},
		{"missing payload", func(e *Envelope) { e.Payload = nil }},
		{"null payload", func(e *Envelope) { e.Payload = json.RawMessage("null") }},
		{"missing timestamp", func(e *Envelope) { e.Timestamp = time.Time{} }},
		{"missing version", func(e *Envelope) { e.Version = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := base()
			assert.NoError(t, evt.Validate())
			tt.mutate(evt)
			assert.Error(t, evt.Validate())
		})
	}
}

func TestDecodePayload(t *testing.T) {
	evt, err := New("svc", TypeMatchCompleted, map[string]any{
		"match_id":      42,
		"tournament_id": 7,
	})
	assert.NoError(t, err)

	var p struct {
		MatchID      int64 `json:"match_id"`
		TournamentID int64 `json:"tournament_id"`
	}
	assert.NoError(t, evt.DecodePayload(&p))
	assert.Equal(t, int64(42), p.MatchID)
	assert.Equal(t, int64(7), p.TournamentID)
}

func TestPayloadKeys(t *testing.T) {
	evt, err := New("svc", TypeMatchCompleted, map[string]any{
		"match_id":   42,
		"home_score": 3,
		"away_score": 1,
	})
	assert.NoError(t, err)

	assert.Equal(t, []string{"away_score", "home_score", "match_id"}, evt.PayloadKeys())
}
