package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
)

// Repository manages persistence for the reward catalog. Deleted rewards are
// retained as rows so historical redemptions keep their foreign key.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reward *models.Reward) error
	Update(ctx context.Context, reward *models.Reward) error
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reward, error)
	List(ctx context.Context, category string) ([]models.Reward, error)
	DecrementStock(ctx context.Context, id uuid.UUID) (int64, error)
	IncrementStock(ctx context.Context, id uuid.UUID) error
	BumpPopularity(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a rewards repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *repositoryImpl) Update(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Save(reward).Error
}

func (r *repositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).
		First(&reward, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *repositoryImpl) List(ctx context.Context, category string) ([]models.Reward, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var rewards []models.Reward
	if err := query.Order("popularity DESC, name ASC").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

// DecrementStock reserves one unit. The stock > 0 guard makes the last-unit
// race safe: exactly one of two concurrent redemptions sees an affected row.
func (r *repositoryImpl) DecrementStock(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE rewards
		SET stock = stock - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock > 0 AND deleted_at IS NULL
	`, id)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) IncrementStock(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE rewards
		SET stock = stock + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id).Error
}

func (r *repositoryImpl) BumpPopularity(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE rewards
		SET popularity = popularity + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id).Error
}
