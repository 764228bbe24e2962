package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string
	NotifyChannel    string        `env:"OUTBOX_NOTIFY_CHANNEL" envDefault:"session_outbox_events"`
	FallbackInterval time.Duration `env:"OUTBOX_FALLBACK_INTERVAL" envDefault:"30s"`
	MaxRetries       int           `env:"OUTBOX_MAX_RETRIES" envDefault:"5"`
	RetryDelay       time.Duration `env:"OUTBOX_RETRY_DELAY" envDefault:"200ms"`
	PingInterval     time.Duration `env:"OUTBOX_PING_INTERVAL" envDefault:"90s"`
	BatchSize        int32         `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    "session_outbox_events",
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Relay publishes outbox events with linear backoff retries.
type Relay struct {
	app       *App
	publisher Publisher
	cfg       ListenerConfig
	clock     clockwork.Clock
}

func NewRelay(app *App, publisher Publisher, cfg ListenerConfig, clock clockwork.Clock) *Relay {
	return &Relay{
		app:       app,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
	}
}

// Publish implements Publisher by retrying the underlying publisher.
func (r *Relay) Publish(ctx context.Context, event Event) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(r.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}
	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

// HandleNotification relays the event whose id is the NOTIFY payload.
func (r *Relay) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}
	return r.app.PublishByID(ctx, id, r)
}

// Drain relays every unsent event in batches.
func (r *Relay) Drain(ctx context.Context) error {
	for {
		n, err := r.app.ProcessUnsentEvents(ctx, r.cfg.BatchSize, r)
		if err != nil {
			return err
		}
		if n < int(r.cfg.BatchSize) {
			return nil
		}
	}
}

// Listener wakes the relay on Postgres NOTIFY and polls as a fallback for
// notifications missed while disconnected.
type Listener struct {
	listener *pq.Listener
	relay    *Relay
	cfg      ListenerConfig
}

func NewListener(relay *Relay, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		listener: l,
		relay:    relay,
		cfg:      cfg,
	}, nil
}

// Start blocks until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	if err := l.relay.Drain(ctx); err != nil {
		log.Error().Err(err).Msg("failed to drain backlog")
	}

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; anything sent meanwhile is only reachable by polling
				if err := l.relay.Drain(ctx); err != nil {
					log.Error().Err(err).Msg("failed to drain after reconnect")
				}
				continue
			}
			if err := l.relay.HandleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.C:
			if err := l.relay.Drain(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}
