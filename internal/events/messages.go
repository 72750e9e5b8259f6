package events

import (
	"encoding/json"
	"time"
)

// Entities that emit change events.
const (
	EntityTransaction = "transaction"
	EntityGoal        = "goal"
	EntityAsset       = "asset"
)

// Actions carried by change events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionDeposit = "deposit"
)

// ChangeMessage is a lightweight notification that a ledger record
// changed. It carries only the entity and id; consumers fetch the
// current state themselves.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change message stamped with the current time.
func NewChangeMessage(entity, action string, id int64) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
