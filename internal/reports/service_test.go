package reports

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newReportsFixture(t *testing.T) (*gorm.DB, Service) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:reports_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.ViolationReport{},
		&models.ReportLike{},
		&models.ReportComment{},
		&models.OutboxEvent{},
	))

	svc, err := NewService(NewRepository(conn), testTxRunner{db: conn}, outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return conn, svc
}

func mustCreateReport(t *testing.T, svc Service, reporterID uuid.UUID) *models.ViolationReport {
	t.Helper()
	location := "Riverside Park, north entrance"
	report, err := svc.Create(context.Background(), CreateReportInput{
		ReporterID:  reporterID,
		Description: "overflowing bins mixed with organic waste",
		Location:    &location,
		Severity:    "medium",
	})
	require.NoError(t, err)
	return report
}

func TestCreateReportDefaults(t *testing.T) {
	_, svc := newReportsFixture(t)
	reporterID := uuid.New()

	report, err := svc.Create(context.Background(), CreateReportInput{
		ReporterID:  reporterID,
		Description: "illegal dumping behind the school",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportSeverityLow, report.Severity)
	assert.Equal(t, enums.ReportStatusPending, report.Status)
	assert.Zero(t, report.LikeCount)

	_, err = svc.Create(context.Background(), CreateReportInput{
		ReporterID:  reporterID,
		Description: "   ",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(context.Background(), CreateReportInput{
		ReporterID:  reporterID,
		Description: "bad severity",
		Severity:    "critical",
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLikeIsIdempotent(t *testing.T) {
	conn, svc := newReportsFixture(t)
	report := mustCreateReport(t, svc, uuid.New())
	userID := uuid.New()

	require.NoError(t, svc.Like(context.Background(), report.ID, userID))
	require.NoError(t, svc.Like(context.Background(), report.ID, userID))

	var reloaded models.ViolationReport
	require.NoError(t, conn.First(&reloaded, "id = ?", report.ID).Error)
	assert.Equal(t, int64(1), reloaded.LikeCount)

	var likes int64
	require.NoError(t, conn.Model(&models.ReportLike{}).Where("report_id = ?", report.ID).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)
}

func TestUnlikeRemovesOnce(t *testing.T) {
	conn, svc := newReportsFixture(t)
	report := mustCreateReport(t, svc, uuid.New())
	userID := uuid.New()

	require.NoError(t, svc.Like(context.Background(), report.ID, userID))
	require.NoError(t, svc.Unlike(context.Background(), report.ID, userID))
	require.NoError(t, svc.Unlike(context.Background(), report.ID, userID))

	var reloaded models.ViolationReport
	require.NoError(t, conn.First(&reloaded, "id = ?", report.ID).Error)
	assert.Zero(t, reloaded.LikeCount)

	err := svc.Like(context.Background(), uuid.New(), userID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCommentsAreOrdered(t *testing.T) {
	_, svc := newReportsFixture(t)
	report := mustCreateReport(t, svc, uuid.New())
	userID := uuid.New()

	for _, body := range []string{"first", "second"} {
		_, err := svc.Comment(context.Background(), CommentInput{
			ReportID: report.ID,
			UserID:   userID,
			Body:     body,
		})
		require.NoError(t, err)
	}

	_, err := svc.Comment(context.Background(), CommentInput{
		ReportID: report.ID,
		UserID:   userID,
		Body:     "  ",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	loaded, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 2)
	assert.Equal(t, "first", loaded.Comments[0].Body)
	assert.Equal(t, "second", loaded.Comments[1].Body)
}

func TestSetStatusEmitsEvent(t *testing.T) {
	conn, svc := newReportsFixture(t)
	report := mustCreateReport(t, svc, uuid.New())
	adminID := uuid.New()

	updated, err := svc.SetStatus(context.Background(), SetStatusInput{
		ReportID:    report.ID,
		Status:      "in_review",
		ActorUserID: adminID,
		ActorRole:   string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusInReview, updated.Status)

	// setting the same status again is a no-op and emits nothing
	_, err = svc.SetStatus(context.Background(), SetStatusInput{
		ReportID:    report.ID,
		Status:      "in_review",
		ActorUserID: adminID,
		ActorRole:   string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)

	// admins may also move backwards
	_, err = svc.SetStatus(context.Background(), SetStatusInput{
		ReportID:    report.ID,
		Status:      "pending",
		ActorUserID: adminID,
		ActorRole:   string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventReportStatusChanged, report.ID).
		Count(&events).Error)
	assert.Equal(t, int64(2), events)

	_, err = svc.SetStatus(context.Background(), SetStatusInput{
		ReportID:    report.ID,
		Status:      "closed",
		ActorUserID: adminID,
		ActorRole:   string(enums.UserRoleAdmin),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestListFiltersByStatus(t *testing.T) {
	_, svc := newReportsFixture(t)
	adminID := uuid.New()

	first := mustCreateReport(t, svc, uuid.New())
	mustCreateReport(t, svc, uuid.New())
	mustCreateReport(t, svc, uuid.New())

	_, err := svc.SetStatus(context.Background(), SetStatusInput{
		ReportID:    first.ID,
		Status:      "resolved",
		ActorUserID: adminID,
		ActorRole:   string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)

	all, _, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	resolved, _, err := svc.List(context.Background(), ListParams{Status: "resolved"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, first.ID, resolved[0].ID)

	page, cursor, err := svc.List(context.Background(), ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, cursor)

	rest, last, err := svc.List(context.Background(), ListParams{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Empty(t, last)
}
