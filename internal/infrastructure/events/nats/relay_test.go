package nats_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	natsrelay "github.com/harpoonmedia/harpoon/internal/infrastructure/events/nats"
	"github.com/harpoonmedia/harpoon/internal/request/domain"
	"github.com/harpoonmedia/harpoon/pkg/events"
	"github.com/harpoonmedia/harpoon/pkg/logger"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

type capturedPublish struct {
	Subject string
	Payload any
}

type fakePublisher struct {
	mu        sync.Mutex
	published []capturedPublish
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, capturedPublish{Subject: subject, Payload: payload})
	return nil
}

func (f *fakePublisher) all() []capturedPublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedPublish(nil), f.published...)
}

func TestRelay_MirrorsLifecycleEvents(t *testing.T) {
	bus := events.NewInMemoryEventBus(logger.NewNoop())
	publisher := &fakePublisher{}
	require.NoError(t, natsrelay.NewRelay(publisher, logger.NewNoop()).Attach(bus))

	request := &models.Request{ID: uuid.New(), Status: models.RequestStatusFound}
	require.NoError(t, bus.Publish(context.Background(),
		domain.NewRequestTransitionedEvent(request, models.RequestStatusSearching, models.RequestStatusFound, "")))
	require.NoError(t, bus.Publish(context.Background(),
		domain.NewEpisodeCompletedEvent(request.ID, 1, 3)))

	published := publisher.all()
	require.Len(t, published, 2)
	assert.Equal(t, domain.EventRequestFound, published[0].Subject)
	assert.Equal(t, domain.EventEpisodeCompleted, published[1].Subject)
}

func TestRelay_PublishFailureDoesNotBreakBus(t *testing.T) {
	bus := events.NewInMemoryEventBus(logger.NewNoop())
	publisher := &fakePublisher{err: errors.New("jetstream down")}
	require.NoError(t, natsrelay.NewRelay(publisher, logger.NewNoop()).Attach(bus))

	request := &models.Request{ID: uuid.New(), Status: models.RequestStatusCompleted}
	err := bus.Publish(context.Background(),
		domain.NewRequestTransitionedEvent(request, models.RequestStatusDownloading, models.RequestStatusCompleted, ""))

	// The bus swallows handler errors; lifecycle progress never depends on
	// the relay.
	require.NoError(t, err)
	assert.Empty(t, publisher.all())
}
