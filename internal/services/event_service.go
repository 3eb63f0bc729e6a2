package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Publisher forwards a recorded event to an outside consumer.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// EventRecorder is the slice of the event service the other services depend on.
type EventRecorder interface {
	Record(ctx context.Context, event models.Event) error
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	EventRecorder
	Recent(ctx context.Context, limit int) ([]models.Event, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService persists the audit trail and fans events out to publishers.
type EventService struct {
	db         *sql.DB
	publishers []Publisher
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, publishers ...Publisher) *EventService {
	return &EventService{db: db, publishers: publishers}
}

// Record stores a new event and hands it to every publisher.
// Publisher failures are logged; the event is already persisted at that point.
func (s *EventService) Record(ctx context.Context, event models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, actor_id, owner_id, subject_id, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.ActorID, event.OwnerID, event.SubjectID, event.Message, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("Failed to publish event")
		}
	}
	return nil
}

// Recent retrieves the most recent events, newest first.
func (s *EventService) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, actor_id, owner_id, subject_id, message, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.ActorID, &event.OwnerID, &event.SubjectID, &event.Message, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PurgeOlderThan deletes events created before cutoff and returns how many were removed.
func (s *EventService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// recordEvent records an audit event after a successful mutation. The mutation has
// already committed, so a failure here is logged and not returned to the caller.
func recordEvent(ctx context.Context, rec EventRecorder, event models.Event) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, event); err != nil {
		log.Error().Err(err).Str("type", event.Type).Str("subject_id", event.SubjectID).Msg("Failed to record event")
	}
}
