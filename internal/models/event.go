package models

import "time"

// Event types recorded in the audit trail.
const (
	EventUserRegistered     = "user.registered"
	EventUserRoleUpdated    = "user.role_updated"
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// Event represents an auditable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g., "transaction.created", "user.role_updated"
	ActorID   string    `json:"actorId"`
	OwnerID   *string   `json:"ownerId,omitempty"` // User whose data was touched, if any
	SubjectID string    `json:"subjectId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
