package redemptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/internal/ledger"
	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/outbox"
	"github.com/ecosort/ecosort-backend/pkg/outbox/payloads"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
	"github.com/ecosort/ecosort-backend/pkg/security"
)

const codeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerAppender interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendInput) (*models.PointTransaction, error)
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, message string) error
}

// StockManager is the slice of the rewards service the redemption lifecycle
// needs: guarded stock moves and the popularity counter.
type StockManager interface {
	ReserveStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) (*models.Reward, error)
	ReleaseStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error
	BumpPopularity(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error
}

// Service drives the redemption lifecycle. Points are spent at creation:
// Create debits the ledger and decrements stock in one transaction, Claim is
// a pure status flip, and Cancel refunds both sides exactly.
type Service interface {
	Create(ctx context.Context, input CreateRedemptionInput) (*models.Redemption, error)
	Claim(ctx context.Context, input LifecycleInput) (*models.Redemption, error)
	Cancel(ctx context.Context, input LifecycleInput) (*models.Redemption, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Redemption, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Redemption, string, error)
	List(ctx context.Context, params ListParams) ([]models.Redemption, string, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	stock      StockManager
	ledger     ledgerAppender
	notifier   notifier
	outbox     outboxPublisher
	codeLength int
}

// CreateRedemptionInput identifies the resident and the reward being redeemed.
type CreateRedemptionInput struct {
	UserID   uuid.UUID
	RewardID uuid.UUID
}

// LifecycleInput identifies the redemption and the acting user for claim and
// cancel transitions.
type LifecycleInput struct {
	RedemptionID uuid.UUID
	ActorUserID  uuid.UUID
	ActorRole    string
}

// ListParams configures redemption listings.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// NewService wires a redemptions service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock StockManager, ledgerSvc ledgerAppender, notifier notifier, outbox outboxPublisher, codeLength int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("redemptions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock manager required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if codeLength <= 0 {
		return nil, fmt.Errorf("code length must be positive")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		stock:      stock,
		ledger:     ledgerSvc,
		notifier:   notifier,
		outbox:     outbox,
		codeLength: codeLength,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateRedemptionInput) (*models.Redemption, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RewardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}

	var created *models.Redemption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reward, err := s.stock.ReserveStock(ctx, tx, input.RewardID)
		if err != nil {
			return err
		}

		redemption := &models.Redemption{
			UserID:    input.UserID,
			RewardID:  reward.ID,
			PointCost: reward.Cost,
			Status:    enums.RedemptionStatusPending,
		}

		if _, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
			UserID:      input.UserID,
			Points:      -reward.Cost,
			Description: fmt.Sprintf("redeemed %s", reward.Name),
			Type:        enums.TransactionTypePointsRedeemed,
			ReferenceID: &redemption.RewardID,
		}); err != nil {
			return err
		}

		code, err := s.uniqueCode(ctx, repo)
		if err != nil {
			return err
		}
		redemption.RedemptionCode = code

		if err := repo.Create(ctx, redemption); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create redemption")
		}

		if err := s.stock.BumpPopularity(ctx, tx, reward.ID); err != nil {
			return err
		}

		message := fmt.Sprintf("You redeemed %s for %d points. Pickup code: %s", reward.Name, reward.Cost, code)
		if err := s.notifier.Notify(ctx, tx, input.UserID, message); err != nil {
			return err
		}

		created = redemption
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRedemptionCreated,
			AggregateType: enums.AggregateRedemption,
			AggregateID:   redemption.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(enums.UserRoleResident)},
			Data: payloads.RedemptionCreatedEvent{
				RedemptionID:   redemption.ID,
				UserID:         input.UserID,
				RewardID:       reward.ID,
				RedemptionCode: code,
				PointCost:      reward.Cost,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Claim marks a pending redemption as picked up. No points move; the spend
// already happened at creation.
func (s *service) Claim(ctx context.Context, input LifecycleInput) (*models.Redemption, error) {
	if input.RedemptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var claimed *models.Redemption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		redemption, err := s.loadPending(ctx, repo, input.RedemptionID)
		if err != nil {
			return err
		}
		if redemption.PointCost <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "redemption has no recorded cost")
		}

		now := time.Now().UTC()
		affected, err := repo.ClaimPending(ctx, redemption.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim redemption")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "redemption is not pending")
		}

		if err := s.notifier.Notify(ctx, tx, redemption.UserID, "Your reward was picked up. Enjoy!"); err != nil {
			return err
		}

		redemption.Status = enums.RedemptionStatusClaimed
		redemption.ClaimedAt = &now
		claimed = redemption

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRedemptionClaimed,
			AggregateType: enums.AggregateRedemption,
			AggregateID:   redemption.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.RedemptionClaimedEvent{
				RedemptionID: redemption.ID,
				UserID:       redemption.UserID,
				RewardID:     redemption.RewardID,
				ClaimedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Cancel refunds a pending redemption: the stored point_cost comes back as a
// ledger credit and the reserved unit returns to stock.
func (s *service) Cancel(ctx context.Context, input LifecycleInput) (*models.Redemption, error) {
	if input.RedemptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.Redemption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		redemption, err := s.loadPending(ctx, repo, input.RedemptionID)
		if err != nil {
			return err
		}
		if redemption.UserID != input.ActorUserID && input.ActorRole != string(enums.UserRoleAdmin) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "redemption does not belong to user")
		}

		now := time.Now().UTC()
		affected, err := repo.CancelPending(ctx, redemption.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel redemption")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "redemption is not pending")
		}

		if _, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
			UserID:      redemption.UserID,
			Points:      redemption.PointCost,
			Description: "redemption cancelled",
			Type:        enums.TransactionTypePointsRefunded,
			ReferenceID: &redemption.RewardID,
		}); err != nil {
			return err
		}

		if err := s.stock.ReleaseStock(ctx, tx, redemption.RewardID); err != nil {
			return err
		}

		message := fmt.Sprintf("Your redemption was cancelled and %d points were refunded", redemption.PointCost)
		if err := s.notifier.Notify(ctx, tx, redemption.UserID, message); err != nil {
			return err
		}

		redemption.Status = enums.RedemptionStatusCancelled
		redemption.CancelledAt = &now
		cancelled = redemption

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRedemptionCancelled,
			AggregateType: enums.AggregateRedemption,
			AggregateID:   redemption.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.RedemptionCancelledEvent{
				RedemptionID:   redemption.ID,
				UserID:         redemption.UserID,
				RewardID:       redemption.RewardID,
				RefundedPoints: redemption.PointCost,
				CancelledAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption id required")
	}

	redemption, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "redemption not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load redemption")
	}
	return redemption, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Redemption, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.list(ctx, userID, params)
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Redemption, string, error) {
	return s.list(ctx, uuid.Nil, params)
}

func (s *service) list(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Redemption, string, error) {
	query := listRedemptionsParams{
		UserID: userID,
		Limit:  params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParseRedemptionStatus(params.Status)
		if err != nil {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		query.Status = status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		query.Cursor = cursor
	}

	redemptions, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redemptions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return redemptions, cursor, nil
}

// uniqueCode draws random codes until one is unused. The unique index on
// redemption_code remains the backstop for the race two concurrent creates
// cannot see.
func (s *service) uniqueCode(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := security.GenerateCode(s.codeLength)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate redemption code")
		}
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check redemption code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique redemption code")
}

func (s *service) loadPending(ctx context.Context, repo Repository, id uuid.UUID) (*models.Redemption, error) {
	redemption, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "redemption not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load redemption")
	}
	if redemption.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "redemption is not pending")
	}
	return redemption, nil
}
