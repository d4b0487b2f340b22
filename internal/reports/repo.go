package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
)

// Repository manages persistence for violation reports, likes and comments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, report *models.ViolationReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ViolationReport, error)
	List(ctx context.Context, params listReportsParams) ([]models.ViolationReport, *pagination.Cursor, error)
	InsertLike(ctx context.Context, reportID, userID uuid.UUID) (bool, error)
	DeleteLike(ctx context.Context, reportID, userID uuid.UUID) (bool, error)
	AdjustLikeCount(ctx context.Context, reportID uuid.UUID, delta int) error
	AddComment(ctx context.Context, comment *models.ReportComment) error
	ListComments(ctx context.Context, reportID uuid.UUID) ([]models.ReportComment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listReportsParams struct {
	Status enums.ReportStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, report *models.ViolationReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.ViolationReport, error) {
	var report models.ViolationReport
	if err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listReportsParams) ([]models.ViolationReport, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ViolationReport{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var reports []models.ViolationReport
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&reports).Error; err != nil {
		return nil, nil, err
	}

	if len(reports) > normalized {
		next := reports[normalized-1]
		reports = reports[:normalized]
		return reports, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return reports, nil, nil
}

// InsertLike records a like and reports whether a row was actually inserted.
// A repeat like conflicts on the composite key and is silently absorbed.
func (r *repositoryImpl) InsertLike(ctx context.Context, reportID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ReportLike{ReportID: reportID, UserID: userID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) DeleteLike(ctx context.Context, reportID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("report_id = ? AND user_id = ?", reportID, userID).
		Delete(&models.ReportLike{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) AdjustLikeCount(ctx context.Context, reportID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE violation_reports
		SET like_count = like_count + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND like_count + ? >= 0
	`, delta, reportID, delta).Error
}

func (r *repositoryImpl) AddComment(ctx context.Context, comment *models.ReportComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *repositoryImpl) ListComments(ctx context.Context, reportID uuid.UUID) ([]models.ReportComment, error) {
	var comments []models.ReportComment
	if err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ViolationReport{}).
		Where("id = ?", id).
		UpdateColumn("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
