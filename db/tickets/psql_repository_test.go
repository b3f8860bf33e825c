package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbutils "valet/db"
	"valet/entity"
)

func newRepository(t *testing.T) *PostgresRepository {
	return NewPostgresRepository(dbutils.GetDb(t), watermill.NopLogger{})
}

func newParkedTicket(code string) entity.Ticket {
	return entity.Ticket{
		ID:            uuid.NewString(),
		TicketCode:    &code,
		LicensePlate:  "ABC123",
		Status:        entity.StatusParked,
		WasRegistered: true,
		CheckinTime:   time.Now().UTC(),
	}
}

func TestPostgresRepository_active_code_is_unique(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	code := uuid.NewString()[:8]

	require.NoError(t, repo.Create(ctx, newParkedTicket(code), nil))

	err := repo.Create(ctx, newParkedTicket(code), nil)
	require.ErrorIs(t, err, ErrActiveCodeExists)

	duplicate, err := repo.FindActiveDuplicate(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, duplicate)
	assert.Equal(t, code, duplicate.Code())
}

func TestPostgresRepository_code_reusable_after_delivery(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	code := uuid.NewString()[:8]
	first := newParkedTicket(code)
	require.NoError(t, repo.Create(ctx, first, nil))

	require.NoError(t, repo.UpdateToRequested(ctx, first.ID, time.Now().UTC()))
	require.NoError(t, repo.UpdateToDelivered(ctx, first.ID, time.Now().UTC(), nil))

	duplicate, err := repo.FindActiveDuplicate(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, duplicate)

	second := newParkedTicket(code)
	require.NoError(t, repo.Create(ctx, second, nil))

	found, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusParked, found.Status)
}

func TestPostgresRepository_empty_code_never_matches(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	ticket := newParkedTicket("ignored")
	ticket.TicketCode = nil
	require.NoError(t, repo.Create(ctx, ticket, nil))

	duplicate, err := repo.FindActiveDuplicate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, duplicate)
}

func TestPostgresRepository_media_eagerly_loaded(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	ticket := newParkedTicket(uuid.NewString()[:8])
	now := time.Now().UTC()
	media := []entity.MediaItem{
		{ID: uuid.NewString(), TicketID: ticket.ID, Type: entity.MediaTypePhoto, URL: "file://1.jpg", CreatedAt: now},
		{ID: uuid.NewString(), TicketID: ticket.ID, Type: entity.MediaTypeVideo, URL: "file://2.mp4", CreatedAt: now.Add(time.Second)},
	}
	require.NoError(t, repo.Create(ctx, ticket, media))

	found, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, found.MediaItems, 2)
	assert.Equal(t, entity.MediaTypePhoto, found.MediaItems[0].Type)

	active, err := repo.FindManyActive(ctx, ticket.Code())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Len(t, active[0].MediaItems, 2)
}

func TestPostgresRepository_transition_guard(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	ticket := newParkedTicket(uuid.NewString()[:8])
	require.NoError(t, repo.Create(ctx, ticket, nil))

	// delivered straight from parked is rejected
	err := repo.UpdateToDelivered(ctx, ticket.ID, time.Now().UTC(), nil)
	require.ErrorIs(t, err, entity.ErrConflict)

	require.NoError(t, repo.UpdateToRequested(ctx, ticket.ID, time.Now().UTC()))

	// a second checkout request must not be applied twice
	err = repo.UpdateToRequested(ctx, ticket.ID, time.Now().UTC())
	require.ErrorIs(t, err, entity.ErrConflict)

	require.NoError(t, repo.UpdateToDelivered(ctx, ticket.ID, time.Now().UTC(), nil))

	err = repo.UpdateToReady(ctx, ticket.ID, time.Now().UTC(), nil)
	require.ErrorIs(t, err, entity.ErrConflict)
}

func TestPostgresRepository_not_found(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	_, err := repo.FindByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, entity.ErrNotFound)

	err = repo.UpdateToRequested(ctx, uuid.NewString(), time.Now().UTC())
	require.ErrorIs(t, err, entity.ErrNotFound)

	err = repo.UpdateToReady(ctx, uuid.NewString(), time.Now().UTC(), nil)
	require.ErrorIs(t, err, entity.ErrNotFound)

	err = repo.UpdateToDelivered(ctx, uuid.NewString(), time.Now().UTC(), nil)
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestPostgresRepository_requested_and_ready_partition(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	requestedTicket := newParkedTicket(uuid.NewString()[:8])
	require.NoError(t, repo.Create(ctx, requestedTicket, nil))
	require.NoError(t, repo.UpdateToRequested(ctx, requestedTicket.ID, time.Now().UTC()))

	readyTicket := newParkedTicket(uuid.NewString()[:8])
	require.NoError(t, repo.Create(ctx, readyTicket, nil))
	require.NoError(t, repo.UpdateToReady(ctx, readyTicket.ID, time.Now().UTC(), nil))

	requested, ready, err := repo.FindRequestedAndReady(ctx)
	require.NoError(t, err)

	assert.True(t, containsTicket(requested, requestedTicket.ID))
	assert.False(t, containsTicket(ready, requestedTicket.ID))
	assert.True(t, containsTicket(ready, readyTicket.ID))
	assert.False(t, containsTicket(requested, readyTicket.ID))
}

func containsTicket(tickets []entity.Ticket, id string) bool {
	for _, t := range tickets {
		if t.ID == id {
			return true
		}
	}
	return false
}
