package amqp

import (
	"encoding/json"
	"time"
)

// DatasetRefreshedMessage announces that a new spend snapshot was stored.
// Receivers reload their dataset; the message carries no records.
type DatasetRefreshedMessage struct {
	ImportID  int64     `json:"importId"`
	Records   int       `json:"records"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetRefreshedMessage(importID int64, records int, source string) *DatasetRefreshedMessage {
	return &DatasetRefreshedMessage{
		ImportID:  importID,
		Records:   records,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetRefreshedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetRefreshedMessageFromJSON creates a message from JSON bytes
func DatasetRefreshedMessageFromJSON(data []byte) (*DatasetRefreshedMessage, error) {
	var msg DatasetRefreshedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
