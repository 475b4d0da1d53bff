package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/stepform/pkg/api"
)

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.WizardEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, wizardID string) ([]api.WizardEvent, error) {
	return nil, nil
}

// InMemoryEventStore keeps wizard history in memory, in append order.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]api.WizardEvent
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]api.WizardEvent),
	}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.WizardEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.WizardID] = append(s.events[ev.WizardID], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, wizardID string) ([]api.WizardEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.events[wizardID]
	out := make([]api.WizardEvent, len(src))
	copy(out, src)
	return out, nil
}
