package models

import (
	"time"

	id "equilibrium/pkg/domain"
)

// EventType names an outbox event.
type EventType string

const (
	EventPlacementCompleted EventType = "placement.completed"
	EventBonusCredited      EventType = "bonus.credited"
)

// OutboxEvent is written in the placement transaction and relayed to the
// broker afterwards.
type OutboxEvent struct {
	ID          id.EventID  `json:"id"`
	AggregateID id.MemberID `json:"aggregate_id"`
	Type        EventType   `json:"type"`
	Payload     []byte      `json:"payload"`
	CreatedAt   time.Time   `json:"created_at"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
}
