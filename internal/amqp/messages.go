package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage announces that a new transaction collection settled.
// It carries only the generation and record count; consumers fetch the
// collection from their own source.
type RefreshMessage struct {
	Generation uint64    `json:"generation"`
	Count      int       `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRefreshMessage creates a refresh message for a settled generation.
func NewRefreshMessage(generation uint64, count int) *RefreshMessage {
	return &RefreshMessage{
		Generation: generation,
		Count:      count,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON creates a message from JSON bytes
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
