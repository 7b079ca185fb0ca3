package queue

import (
	"encoding/json"
	"time"
)

// IngestMessage asks a worker to process an uploaded bank statement.
// It carries only the upload ID; the worker fetches the raw text from
// the database so statement content never transits the broker.
type IngestMessage struct {
	UploadID  string    `json:"upload_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewIngestMessage creates an ingest message for the given upload.
func NewIngestMessage(uploadID string) *IngestMessage {
	return &IngestMessage{
		UploadID:  uploadID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *IngestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// IngestMessageFromJSON creates a message from JSON bytes
func IngestMessageFromJSON(data []byte) (*IngestMessage, error) {
	var msg IngestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
