// Package queue defines message payloads exchanged over the message broker.
package queue

// Kinds of inventory change.
const (
    KindDisplayCreated = "display.created"
    KindDisplayUpdated = "display.updated"
    KindDisplayDeleted = "display.deleted"
    KindModelCreated   = "model.created"
    KindModelDeleted   = "model.deleted"
)

// InventoryEvent is published after each committed change to the
// inventory so downstream consumers can keep an audit trail without
// querying the primary database.
type InventoryEvent struct {
    Kind            string `json:"kind"`
    SerialNo        string `json:"serial_no,omitempty"`
    SchedulerSystem string `json:"scheduler_system,omitempty"`
    ModelNo         string `json:"model_no,omitempty"`
    OccurredAt      string `json:"occurred_at"`
}
