package rewards

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
)

// Service manages the reward catalog. Stock and popularity only move through
// admin edits or the redemption lifecycle's guarded helpers.
type Service interface {
	Create(ctx context.Context, input CreateRewardInput) (*models.Reward, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateRewardInput) (*models.Reward, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Reward, error)
	List(ctx context.Context, category string) ([]models.Reward, error)

	ReserveStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) (*models.Reward, error)
	ReleaseStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error
	BumpPopularity(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error
}

type service struct {
	repo Repository
}

// CreateRewardInput carries the fields a new reward requires.
type CreateRewardInput struct {
	Name        string
	Description string
	Cost        int
	Stock       int
	Category    string
	ImageURL    *string
}

// UpdateRewardInput carries optional edits; nil fields stay unchanged.
type UpdateRewardInput struct {
	Name        *string
	Description *string
	Cost        *int
	Stock       *int
	Category    *string
	ImageURL    *string
}

// NewService wires a rewards service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rewards repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateRewardInput) (*models.Reward, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.Cost <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}

	reward := &models.Reward{
		Name:        name,
		Description: input.Description,
		Cost:        input.Cost,
		Stock:       input.Stock,
		Category:    category,
		ImageURL:    input.ImageURL,
	}
	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reward")
	}
	return reward, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateRewardInput) (*models.Reward, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}

	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
		}
		reward.Name = name
	}
	if input.Description != nil {
		reward.Description = *input.Description
	}
	if input.Cost != nil {
		if *input.Cost <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost must be positive")
		}
		reward.Cost = *input.Cost
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		reward.Stock = *input.Stock
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
		}
		reward.Category = category
	}
	if input.ImageURL != nil {
		reward.ImageURL = input.ImageURL
	}

	if err := s.repo.Update(ctx, reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reward")
	}
	return reward, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}

	affected, err := s.repo.SoftDelete(ctx, id, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reward")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}

	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
	}
	return reward, nil
}

func (s *service) List(ctx context.Context, category string) ([]models.Reward, error) {
	rewards, err := s.repo.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rewards")
	}
	return rewards, nil
}

// ReserveStock decrements stock inside the caller's transaction and returns
// the reward so the caller can snapshot its cost. Zero affected rows means
// the reward is out of stock (or was deleted under the caller).
func (s *service) ReserveStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) (*models.Reward, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock reservation requires a transaction")
	}
	if rewardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}

	repo := s.repo.WithTx(tx)

	reward, err := repo.FindByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward")
	}

	affected, err := repo.DecrementStock(ctx, rewardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reward out of stock")
	}

	reward.Stock--
	return reward, nil
}

func (s *service) ReleaseStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock release requires a transaction")
	}
	if err := s.repo.WithTx(tx).IncrementStock(ctx, rewardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
	}
	return nil
}

func (s *service) BumpPopularity(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "popularity bump requires a transaction")
	}
	if err := s.repo.WithTx(tx).BumpPopularity(ctx, rewardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump popularity")
	}
	return nil
}
