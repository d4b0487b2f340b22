package wastetypes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db"
	"github.com/ecosort/ecosort-backend/pkg/db/models"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
)

// Service manages the admin-owned waste type catalog. RateFor is the lookup
// the submission review flow uses to price a confirmation.
type Service interface {
	Create(ctx context.Context, input CreateWasteTypeInput) (*models.WasteType, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateWasteTypeInput) (*models.WasteType, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.WasteType, error)
	List(ctx context.Context) ([]models.WasteType, error)
	RateFor(ctx context.Context, tx *gorm.DB, name string) (decimal.Decimal, bool, error)
}

type service struct {
	repo Repository
}

// CreateWasteTypeInput carries the fields a new waste type requires.
type CreateWasteTypeInput struct {
	Name          string
	PointsPerKilo decimal.Decimal
}

// UpdateWasteTypeInput carries optional edits; nil fields stay unchanged.
type UpdateWasteTypeInput struct {
	Name          *string
	PointsPerKilo *decimal.Decimal
}

// NewService wires a waste type service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "waste type repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateWasteTypeInput) (*models.WasteType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.PointsPerKilo.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points per kilo cannot be negative")
	}

	wasteType := &models.WasteType{
		Name:          name,
		PointsPerKilo: input.PointsPerKilo,
	}
	if err := s.repo.Create(ctx, wasteType); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "waste type name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create waste type")
	}
	return wasteType, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateWasteTypeInput) (*models.WasteType, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waste type id required")
	}

	wasteType, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "waste type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load waste type")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
		}
		wasteType.Name = name
	}
	if input.PointsPerKilo != nil {
		if input.PointsPerKilo.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "points per kilo cannot be negative")
		}
		wasteType.PointsPerKilo = *input.PointsPerKilo
	}

	if err := s.repo.Update(ctx, wasteType); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "waste type name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update waste type")
	}
	return wasteType, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "waste type id required")
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete waste type")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "waste type not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WasteType, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waste type id required")
	}

	wasteType, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "waste type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load waste type")
	}
	return wasteType, nil
}

func (s *service) List(ctx context.Context) ([]models.WasteType, error) {
	wasteTypes, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list waste types")
	}
	return wasteTypes, nil
}

// RateFor resolves the award rate for a material name. A missing type is not
// an error; the caller awards zero points and the review proceeds.
func (s *service) RateFor(ctx context.Context, tx *gorm.DB, name string) (decimal.Decimal, bool, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}

	wasteType, err := repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve waste type rate")
	}
	return wasteType.PointsPerKilo, true, nil
}
