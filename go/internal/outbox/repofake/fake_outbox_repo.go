package fakeoutboxrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/questline/go/internal/outbox"
)

var _ outbox.OutboxRepository = (*FakeOutboxRepo)(nil)

type FakeOutboxRepo struct {
	events map[uuid.UUID]*outbox.Event
	seq    time.Time
	lock   sync.Mutex
}

func NewFakeOutboxRepo() *FakeOutboxRepo {
	return &FakeOutboxRepo{
		events: make(map[uuid.UUID]*outbox.Event),
		seq:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *FakeOutboxRepo) InsertEvent(ctx context.Context, sessionID uuid.UUID, eventType string, payload []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	// strictly increasing timestamps keep FetchUnsent ordering stable
	r.seq = r.seq.Add(time.Millisecond)
	e := &outbox.Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		EventType: eventType,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: r.seq,
	}
	r.events[e.ID] = e
	return nil
}

func (r *FakeOutboxRepo) FetchUnsent(ctx context.Context, limit int32) ([]outbox.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []outbox.Event
	for _, e := range r.events {
		if e.SentAt == nil {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (r *FakeOutboxRepo) FetchByID(ctx context.Context, id uuid.UUID) (*outbox.Event, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	e, ok := r.events[id]
	if !ok || e.SentAt != nil {
		return nil, outbox.ErrEventNotFound
	}
	c := *e
	return &c, nil
}

func (r *FakeOutboxRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if e, ok := r.events[id]; ok {
		now := time.Now().UTC()
		e.SentAt = &now
	}
	return nil
}

// All returns every recorded event in insertion order.
func (r *FakeOutboxRepo) All() []outbox.Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	out := make([]outbox.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
