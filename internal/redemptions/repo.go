package redemptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
)

// Repository manages persistence for redemptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, redemption *models.Redemption) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Redemption, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, params listRedemptionsParams) ([]models.Redemption, *pagination.Cursor, error)
	ClaimPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	CancelPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a redemptions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listRedemptionsParams struct {
	UserID uuid.UUID
	Status enums.RedemptionStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.WithContext(ctx).First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *repositoryImpl) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("redemption_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listRedemptionsParams) ([]models.Redemption, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Redemption{})
	if params.UserID != uuid.Nil {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(redeemed_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var redemptions []models.Redemption
	if err := query.Order("redeemed_at DESC, id DESC").Limit(limit).Find(&redemptions).Error; err != nil {
		return nil, nil, err
	}

	if len(redemptions) > normalized {
		next := redemptions[normalized-1]
		redemptions = redemptions[:normalized]
		return redemptions, &pagination.Cursor{CreatedAt: next.RedeemedAt, ID: next.ID}, nil
	}
	return redemptions, nil, nil
}

func (r *repositoryImpl) ClaimPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, enums.RedemptionStatusPending).
		Updates(map[string]any{
			"status":     enums.RedemptionStatusClaimed,
			"claimed_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) CancelPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, enums.RedemptionStatusPending).
		Updates(map[string]any{
			"status":       enums.RedemptionStatusCancelled,
			"cancelled_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
