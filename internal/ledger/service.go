package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/outbox"
	"github.com/ecosort/ecosort-backend/pkg/outbox/payloads"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the only path that mutates point balances. Every balance change
// writes one immutable point_transactions row and moves users.total_points in
// the same transaction, so the two can never drift.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.PointTransaction, error)
	Grant(ctx context.Context, input GrantInput) (*models.PointTransaction, error)
	Sum(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointTransaction, string, error)
	List(ctx context.Context, params pagination.Params) ([]models.PointTransaction, string, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// AppendInput captures the immutable data a ledger entry requires.
type AppendInput struct {
	UserID      uuid.UUID
	Points      int
	Description string
	Type        enums.TransactionType
	ReferenceID *uuid.UUID
}

// GrantInput carries a manual admin balance adjustment.
type GrantInput struct {
	UserID      uuid.UUID
	Points      int
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// NewService wires a ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Append records one signed delta inside the caller's transaction. The
// guarded balance update runs first so an overdraft aborts before the ledger
// row exists. Credit types accept a zero delta: every confirmed submission
// gets an audit row even when the award works out to nothing.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.PointTransaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger append requires a transaction")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.Type.IsSpend() && input.Points >= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spend transactions must carry a negative delta")
	}
	if !input.Type.IsSpend() && input.Points < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit transactions must carry a positive delta")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyBalanceDelta(ctx, input.UserID, input.Points)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply balance delta")
	}
	if affected == 0 {
		exists, err := repo.UserExists(ctx, input.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient points")
	}

	txn := &models.PointTransaction{
		UserID:      input.UserID,
		Points:      input.Points,
		Description: input.Description,
		Type:        input.Type,
		ReferenceID: input.ReferenceID,
	}
	if err := repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create point transaction")
	}
	return txn, nil
}

// Grant applies a manual admin adjustment. Positive amounts record a
// manual_grant, negative a manual_deduction; a deduction past zero fails the
// same way any spend does.
func (s *service) Grant(ctx context.Context, input GrantInput) (*models.PointTransaction, error) {
	if input.Points == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points delta must be non-zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	txnType := enums.TransactionTypeManualGrant
	if input.Points < 0 {
		txnType = enums.TransactionTypeManualDeduction
	}

	var txn *models.PointTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.Append(ctx, tx, AppendInput{
			UserID:      input.UserID,
			Points:      input.Points,
			Description: input.Reason,
			Type:        txnType,
		})
		if err != nil {
			return err
		}
		txn = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPointsGranted,
			AggregateType: enums.AggregateUser,
			AggregateID:   input.UserID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.PointsGrantedEvent{
				UserID:      input.UserID,
				Points:      input.Points,
				Type:        txnType,
				Description: input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Sum(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.SumByUser(ctx, userID)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointTransaction, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	transactions, next, err := s.repo.ListByUser(ctx, userID, listTransactionsParams{Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return transactions, encodeNext(next), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.PointTransaction, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	transactions, next, err := s.repo.List(ctx, listTransactionsParams{Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return transactions, encodeNext(next), nil
}

func encodeNext(cursor *pagination.Cursor) string {
	if cursor == nil {
		return ""
	}
	return pagination.EncodeCursor(*cursor)
}
