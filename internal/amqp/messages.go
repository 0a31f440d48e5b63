package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// RecordSyncMessage is a lightweight queue message for mirroring a record to
// the remote sheet. It carries only the record id and the action; the worker
// fetches the full record from the database.
type RecordSyncMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordSyncMessage(id string) *RecordSyncMessage {
	return &RecordSyncMessage{ID: id, Action: ActionUpsert, Timestamp: time.Now()}
}

func NewRecordDeleteMessage(id string) *RecordSyncMessage {
	return &RecordSyncMessage{ID: id, Action: ActionDelete, Timestamp: time.Now()}
}

func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
