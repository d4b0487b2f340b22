package wastetypes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
)

// Repository manages persistence for the waste type catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wasteType *models.WasteType) error
	Update(ctx context.Context, wasteType *models.WasteType) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.WasteType, error)
	FindByName(ctx context.Context, name string) (*models.WasteType, error)
	List(ctx context.Context) ([]models.WasteType, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a waste type repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, wasteType *models.WasteType) error {
	return r.db.WithContext(ctx).Create(wasteType).Error
}

func (r *repositoryImpl) Update(ctx context.Context, wasteType *models.WasteType) error {
	return r.db.WithContext(ctx).Save(wasteType).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.WasteType{}, "id = ?", id)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.WasteType, error) {
	var wasteType models.WasteType
	if err := r.db.WithContext(ctx).First(&wasteType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wasteType, nil
}

func (r *repositoryImpl) FindByName(ctx context.Context, name string) (*models.WasteType, error) {
	var wasteType models.WasteType
	if err := r.db.WithContext(ctx).First(&wasteType, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &wasteType, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.WasteType, error) {
	var wasteTypes []models.WasteType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&wasteTypes).Error; err != nil {
		return nil, err
	}
	return wasteTypes, nil
}
