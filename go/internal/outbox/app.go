// Package outbox records session domain events in the database and relays
// them to NATS JetStream.
package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/questline/go/internal/events"
	"github.com/rs/zerolog/log"
)

// OutboxRepository defines what the app layer needs from the repository
type OutboxRepository interface {
	InsertEvent(ctx context.Context, sessionID uuid.UUID, eventType string, payload []byte) error
	FetchUnsent(ctx context.Context, limit int32) ([]Event, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*Event, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Publisher delivers an event to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// App handles outbox business logic
type App struct {
	repo OutboxRepository
}

// NewApp creates a new outbox App
func NewApp(repo OutboxRepository) *App {
	return &App{
		repo: repo,
	}
}

// InsertSessionStartedEvent records a SessionStarted event
func (a *App) InsertSessionStartedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return a.insert(ctx, sessionID, events.TypeSessionStarted, payload)
}

// InsertSessionCompletedEvent records a SessionCompleted event
func (a *App) InsertSessionCompletedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return a.insert(ctx, sessionID, events.TypeSessionCompleted, payload)
}

// InsertRewardClaimedEvent records a RewardClaimed event
func (a *App) InsertRewardClaimedEvent(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return a.insert(ctx, sessionID, events.TypeRewardClaimed, payload)
}

func (a *App) insert(ctx context.Context, sessionID uuid.UUID, eventType string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("invalid %s payload: event payload cannot be empty", eventType)
	}

	if err := a.repo.InsertEvent(ctx, sessionID, eventType, payload); err != nil {
		return fmt.Errorf("failed to insert %s event: %w", eventType, err)
	}

	log.Debug().
		Str("session_id", sessionID.String()).
		Str("event_type", eventType).
		Msg("outbox event inserted")
	return nil
}

// FetchUnsentEvents fetches unsent outbox events
func (a *App) FetchUnsentEvents(ctx context.Context, limit int32) ([]Event, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	unsent, err := a.repo.FetchUnsent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent events: %w", err)
	}
	return unsent, nil
}

// GetEventByID fetches an unsent event by ID
func (a *App) GetEventByID(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	event, err := a.repo.FetchByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event by ID: %w", err)
	}
	return event, nil
}

// MarkEventSent marks an outbox event as sent
func (a *App) MarkEventSent(ctx context.Context, eventID uuid.UUID) error {
	if err := a.repo.MarkSent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}
	return nil
}

// PublishByID publishes one unsent event and marks it sent. An event that is
// already sent is not an error.
func (a *App) PublishByID(ctx context.Context, eventID uuid.UUID, publisher Publisher) error {
	event, err := a.repo.FetchByID(ctx, eventID)
	if errors.Is(err, ErrEventNotFound) {
		log.Debug().Str("event_id", eventID.String()).Msg("event already relayed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch event by ID: %w", err)
	}
	return a.publish(ctx, *event, publisher)
}

// ProcessUnsentEvents publishes a batch of unsent events. Events that fail
// stay unsent for the next pass. It returns the number of events relayed.
func (a *App) ProcessUnsentEvents(ctx context.Context, batchSize int32, publisher Publisher) (int, error) {
	unsent, err := a.FetchUnsentEvents(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	processed, failed := 0, 0
	for _, event := range unsent {
		if err := a.publish(ctx, event, publisher); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to relay event")
			failed++
			continue
		}
		processed++
	}

	if processed > 0 || failed > 0 {
		log.Info().
			Int("processed", processed).
			Int("errors", failed).
			Int("total", len(unsent)).
			Msg("processed unsent events batch")
	}
	return processed, nil
}

func (a *App) publish(ctx context.Context, event Event, publisher Publisher) error {
	if err := publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return a.MarkEventSent(ctx, event.ID)
}
