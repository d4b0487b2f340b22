package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
)

func newNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:notif_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Notification{}))
	return conn
}

func seedNotification(t *testing.T, conn *gorm.DB, userID uuid.UUID, message string, createdAt time.Time, read bool) *models.Notification {
	t.Helper()
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		CreatedAt: createdAt,
	}
	if read {
		at := createdAt.Add(time.Minute)
		n.ReadAt = &at
	}
	require.NoError(t, conn.Create(n).Error)
	return n
}

func TestNotifyWritesInsideTransaction(t *testing.T) {
	conn := newNotificationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	userID := uuid.New()
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Notify(context.Background(), tx, userID, "submission confirmed: +30 points"); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Notify(context.Background(), tx, userID, "submission confirmed: +30 points")
	}))
	require.NoError(t, conn.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListUnreadOnlyAndPagination(t *testing.T) {
	conn := newNotificationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	seedNotification(t, conn, userID, "old read", base, true)
	seedNotification(t, conn, userID, "unread one", base.Add(time.Minute), false)
	seedNotification(t, conn, userID, "unread two", base.Add(2*time.Minute), false)
	seedNotification(t, conn, uuid.New(), "other user", base.Add(3*time.Minute), false)

	result, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "unread two", result.Items[0].Message)

	page, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)
	assert.Equal(t, "old read", rest.Items[0].Message)
}

func TestMarkReadOwnerOnly(t *testing.T) {
	conn := newNotificationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	userID := uuid.New()
	n := seedNotification(t, conn, userID, "hello", time.Now().UTC(), false)

	err = svc.MarkRead(context.Background(), uuid.New(), n.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.MarkRead(context.Background(), userID, n.ID))

	// marking an already-read row is a no-op, not an error
	require.NoError(t, svc.MarkRead(context.Background(), userID, n.ID))

	var reloaded models.Notification
	require.NoError(t, conn.First(&reloaded, "id = ?", n.ID).Error)
	require.NotNil(t, reloaded.ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	conn := newNotificationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	userID := uuid.New()
	seedNotification(t, conn, userID, "one", time.Now().UTC(), false)
	seedNotification(t, conn, userID, "two", time.Now().UTC(), false)
	seedNotification(t, conn, userID, "already", time.Now().UTC(), true)

	count, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDeleteReadOlderThan(t *testing.T) {
	conn := newNotificationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	userID := uuid.New()
	old := time.Now().UTC().Add(-91 * 24 * time.Hour)
	seedNotification(t, conn, userID, "stale read", old, true)
	seedNotification(t, conn, userID, "stale unread", old, false)
	seedNotification(t, conn, userID, "fresh read", time.Now().UTC(), true)

	deleted, err := svc.DeleteReadOlderThan(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}
