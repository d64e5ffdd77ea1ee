// Package queue defines laptop lifecycle events and moves them over the
// message broker.
package queue

import "time"

// EventType names a lifecycle transition.
type EventType string

const (
	EventBorrowed             EventType = "laptop.borrowed"
	EventReturned             EventType = "laptop.returned"
	EventAssigned             EventType = "laptop.assigned"
	EventMaintenanceRequested EventType = "laptop.maintenance_requested"
	EventMaintenanceCompleted EventType = "laptop.maintenance_completed"
)

// LaptopEvent is published after a lifecycle transition is persisted. It
// carries enough for a consumer to notify people without querying the
// primary store.
type LaptopEvent struct {
	Type         EventType `json:"type"`
	LaptopID     string    `json:"laptopId"`
	SerialNumber string    `json:"serialNumber"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	HolderID     string    `json:"holderId,omitempty"`
	ActorID      string    `json:"actorId"`
	OccurredAt   time.Time `json:"occurredAt"`
}
