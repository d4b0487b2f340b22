package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/ecosort/ecosort-backend/pkg/outbox/payloads"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:outbox_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}))
	t.Cleanup(func() {
		conn.Exec("DELETE FROM outbox_events")
	})
	return conn
}

func TestEmitStoresEnvelope(t *testing.T) {
	conn := newOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	redemptionID := uuid.New()
	userID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventRedemptionCreated,
			AggregateType: enums.AggregateRedemption,
			AggregateID:   redemptionID,
			Actor:         &ActorRef{UserID: userID, Role: "resident"},
			Version:       1,
			Data: payloads.RedemptionCreatedEvent{
				RedemptionID:   redemptionID,
				UserID:         userID,
				RewardID:       uuid.New(),
				RedemptionCode: "B3TRQ8ZL",
				PointCost:      200,
			},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	assert.Equal(t, enums.EventRedemptionCreated, row.EventType)
	assert.Equal(t, redemptionID, row.AggregateID)
	assert.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, userID, envelope.Actor.UserID)

	var payload payloads.RedemptionCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "B3TRQ8ZL", payload.RedemptionCode)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	conn := newOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	redemptionID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventRedemptionClaimed,
		AggregateType: enums.AggregateRedemption,
		AggregateID:   redemptionID,
		Version:       1,
		Data:          payloads.RedemptionClaimedEvent{RedemptionID: redemptionID},
	}

	for i := 0; i < 2; i++ {
		err := conn.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := newOutboxTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	userID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPointsGranted,
			AggregateType: enums.AggregateUser,
			AggregateID:   userID,
			Version:       1,
			Data:          payloads.PointsGrantedEvent{UserID: userID, Points: 50},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkFailed(rows[0].ID, assert.AnError))
	rows, err = repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)

	require.NoError(t, repo.MarkPublished(rows[0].ID))
	rows, err = repo.FetchUnpublished(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
