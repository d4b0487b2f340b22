package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/internal/ledger"
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

type ledgerAppender interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendInput) (*models.PointTransaction, error)
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, message string) error
}

// RateResolver prices a material at review time. A material with no catalog
// entry resolves to a zero rate, not an error.
type RateResolver interface {
	RateFor(ctx context.Context, tx *gorm.DB, name string) (decimal.Decimal, bool, error)
}

// Service drives the submission lifecycle from resident weigh-in to admin
// review. Points are computed and credited once, at confirmation.
type Service interface {
	Create(ctx context.Context, input CreateSubmissionInput) (*models.WasteSubmission, error)
	Confirm(ctx context.Context, input ReviewInput) (*models.WasteSubmission, error)
	Reject(ctx context.Context, input ReviewInput) (*models.WasteSubmission, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WasteSubmission, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.WasteSubmission, string, error)
	List(ctx context.Context, params ListParams) ([]models.WasteSubmission, string, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	ledger   ledgerAppender
	rates    RateResolver
	notifier notifier
	outbox   outboxPublisher
}

// CreateSubmissionInput captures a resident's weigh-in.
type CreateSubmissionInput struct {
	UserID    uuid.UUID
	WasteType string
	WeightKg  decimal.Decimal
	PhotoURL  *string
}

// ReviewInput identifies the submission under review and the acting admin.
type ReviewInput struct {
	SubmissionID uuid.UUID
	ActorUserID  uuid.UUID
	ActorRole    string
	Reason       string
}

// ListParams configures submission listings.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// NewService wires a submissions service with the required dependencies.
func NewService(repo Repository, tx txRunner, ledgerSvc ledgerAppender, rates RateResolver, notifier notifier, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("submissions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		ledger:   ledgerSvc,
		rates:    rates,
		notifier: notifier,
		outbox:   outbox,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateSubmissionInput) (*models.WasteSubmission, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	wasteType := strings.TrimSpace(input.WasteType)
	if wasteType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waste type required")
	}
	if !input.WeightKg.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}

	submission := &models.WasteSubmission{
		UserID:    input.UserID,
		WasteType: wasteType,
		WeightKg:  input.WeightKg,
		PhotoURL:  input.PhotoURL,
		Status:    enums.SubmissionStatusPending,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create submission")
	}
	return submission, nil
}

// Confirm prices the submission against the current catalog and settles it
// in one transaction: status flip, ledger credit, notification, outbox event.
// A waste type that no longer exists awards zero points rather than failing
// the review.
func (s *service) Confirm(ctx context.Context, input ReviewInput) (*models.WasteSubmission, error) {
	if input.SubmissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var confirmed *models.WasteSubmission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		submission, err := s.loadPending(ctx, repo, input.SubmissionID)
		if err != nil {
			return err
		}

		rate, _, err := s.rates.RateFor(ctx, tx, submission.WasteType)
		if err != nil {
			return err
		}
		award := int(submission.WeightKg.Mul(rate).Round(0).IntPart())

		now := time.Now().UTC()
		affected, err := repo.ConfirmPending(ctx, submission.ID, award, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm submission")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "submission already reviewed")
		}

		// Even a zero award leaves a ledger row so the audit trail shows
		// the confirm happened.
		if _, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
			UserID:      submission.UserID,
			Points:      award,
			Description: fmt.Sprintf("%s submission confirmed", submission.WasteType),
			Type:        enums.TransactionTypePointsAwarded,
			ReferenceID: &submission.ID,
		}); err != nil {
			return err
		}

		message := fmt.Sprintf("Your %s submission was confirmed: +%d points", submission.WasteType, award)
		if err := s.notifier.Notify(ctx, tx, submission.UserID, message); err != nil {
			return err
		}

		submission.Status = enums.SubmissionStatusConfirmed
		submission.Points = award
		submission.ConfirmedAt = &now
		confirmed = submission

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubmissionConfirmed,
			AggregateType: enums.AggregateSubmission,
			AggregateID:   submission.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.SubmissionConfirmedEvent{
				SubmissionID: submission.ID,
				UserID:       submission.UserID,
				WasteType:    submission.WasteType,
				WeightKg:     submission.WeightKg,
				Points:       award,
				ConfirmedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (s *service) Reject(ctx context.Context, input ReviewInput) (*models.WasteSubmission, error) {
	if input.SubmissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var rejected *models.WasteSubmission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		submission, err := s.loadPending(ctx, repo, input.SubmissionID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		affected, err := repo.RejectPending(ctx, submission.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject submission")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "submission already reviewed")
		}

		message := fmt.Sprintf("Your %s submission was rejected", submission.WasteType)
		if input.Reason != "" {
			message = fmt.Sprintf("%s: %s", message, input.Reason)
		}
		if err := s.notifier.Notify(ctx, tx, submission.UserID, message); err != nil {
			return err
		}

		submission.Status = enums.SubmissionStatusRejected
		submission.RejectedAt = &now
		rejected = submission

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubmissionRejected,
			AggregateType: enums.AggregateSubmission,
			AggregateID:   submission.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.SubmissionRejectedEvent{
				SubmissionID: submission.ID,
				UserID:       submission.UserID,
				Reason:       input.Reason,
				RejectedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WasteSubmission, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id required")
	}

	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	return submission, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.WasteSubmission, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.list(ctx, userID, params)
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.WasteSubmission, string, error) {
	return s.list(ctx, uuid.Nil, params)
}

func (s *service) list(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.WasteSubmission, string, error) {
	query := listSubmissionsParams{
		UserID: userID,
		Limit:  params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParseSubmissionStatus(params.Status)
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

	submissions, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return submissions, cursor, nil
}

func (s *service) loadPending(ctx context.Context, repo Repository, id uuid.UUID) (*models.WasteSubmission, error) {
	submission, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	if submission.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "submission already reviewed")
	}
	return submission, nil
}
