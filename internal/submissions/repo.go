package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
)

// Repository manages persistence for waste submissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, submission *models.WasteSubmission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WasteSubmission, error)
	List(ctx context.Context, params listSubmissionsParams) ([]models.WasteSubmission, *pagination.Cursor, error)
	ConfirmPending(ctx context.Context, id uuid.UUID, points int, now time.Time) (int64, error)
	RejectPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a submissions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listSubmissionsParams struct {
	UserID uuid.UUID
	Status enums.SubmissionStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, submission *models.WasteSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.WasteSubmission, error) {
	var submission models.WasteSubmission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listSubmissionsParams) ([]models.WasteSubmission, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.WasteSubmission{})
	if params.UserID != uuid.Nil {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(submitted_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var submissions []models.WasteSubmission
	if err := query.Order("submitted_at DESC, id DESC").Limit(limit).Find(&submissions).Error; err != nil {
		return nil, nil, err
	}

	if len(submissions) > normalized {
		next := submissions[normalized-1]
		submissions = submissions[:normalized]
		return submissions, &pagination.Cursor{CreatedAt: next.SubmittedAt, ID: next.ID}, nil
	}
	return submissions, nil, nil
}

// ConfirmPending flips a pending submission to confirmed and stamps the
// award. The status guard in the WHERE clause makes a second review a no-op
// at the database level.
func (r *repositoryImpl) ConfirmPending(ctx context.Context, id uuid.UUID, points int, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WasteSubmission{}).
		Where("id = ? AND status = ?", id, enums.SubmissionStatusPending).
		Updates(map[string]any{
			"status":       enums.SubmissionStatusConfirmed,
			"points":       points,
			"confirmed_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) RejectPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WasteSubmission{}).
		Where("id = ? AND status = ?", id, enums.SubmissionStatusPending).
		Updates(map[string]any{
			"status":      enums.SubmissionStatusRejected,
			"rejected_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
