package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// Service covers the community side of violation reports plus the admin
// review transition. Reports never touch the point economy.
type Service interface {
	Create(ctx context.Context, input CreateReportInput) (*models.ViolationReport, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ViolationReport, error)
	List(ctx context.Context, params ListParams) ([]models.ViolationReport, string, error)
	Like(ctx context.Context, reportID, userID uuid.UUID) error
	Unlike(ctx context.Context, reportID, userID uuid.UUID) error
	Comment(ctx context.Context, input CommentInput) (*models.ReportComment, error)
	SetStatus(ctx context.Context, input SetStatusInput) (*models.ViolationReport, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateReportInput captures a new violation report.
type CreateReportInput struct {
	ReporterID  uuid.UUID
	Description string
	Location    *string
	PhotoURL    *string
	Severity    string
}

// CommentInput carries a new comment on a report.
type CommentInput struct {
	ReportID uuid.UUID
	UserID   uuid.UUID
	Body     string
}

// SetStatusInput carries an admin review transition.
type SetStatusInput struct {
	ReportID    uuid.UUID
	Status      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// ListParams configures report listings.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// NewService wires a reports service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Create(ctx context.Context, input CreateReportInput) (*models.ViolationReport, error) {
	if input.ReporterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	severity := enums.ReportSeverityLow
	if input.Severity != "" {
		parsed, err := enums.ParseReportSeverity(input.Severity)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		severity = parsed
	}

	report := &models.ViolationReport{
		ReporterID:  input.ReporterID,
		Description: description,
		Location:    input.Location,
		PhotoURL:    input.PhotoURL,
		Severity:    severity,
		Status:      enums.ReportStatusPending,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return report, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ViolationReport, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}

	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
	}
	return report, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.ViolationReport, string, error) {
	query := listReportsParams{Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseReportStatus(params.Status)
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

	reports, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return reports, cursor, nil
}

// Like is idempotent: liking twice leaves one like row and a count of one.
func (s *service) Like(ctx context.Context, reportID, userID uuid.UUID) error {
	if reportID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.mustFind(ctx, repo, reportID); err != nil {
			return err
		}

		inserted, err := repo.InsertLike(ctx, reportID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert like")
		}
		if !inserted {
			return nil
		}
		if err := repo.AdjustLikeCount(ctx, reportID, 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust like count")
		}
		return nil
	})
}

// Unlike removes the caller's like if present; removing an absent like is a
// no-op.
func (s *service) Unlike(ctx context.Context, reportID, userID uuid.UUID) error {
	if reportID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.mustFind(ctx, repo, reportID); err != nil {
			return err
		}

		deleted, err := repo.DeleteLike(ctx, reportID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
		}
		if !deleted {
			return nil
		}
		if err := repo.AdjustLikeCount(ctx, reportID, -1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust like count")
		}
		return nil
	})
}

func (s *service) Comment(ctx context.Context, input CommentInput) (*models.ReportComment, error) {
	if input.ReportID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body required")
	}

	if _, err := s.mustFind(ctx, s.repo, input.ReportID); err != nil {
		return nil, err
	}

	comment := &models.ReportComment{
		ReportID: input.ReportID,
		UserID:   input.UserID,
		Body:     body,
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add comment")
	}
	return comment, nil
}

// SetStatus moves a report between review states. Admins may set any of the
// three states; setting the current state again is a no-op.
func (s *service) SetStatus(ctx context.Context, input SetStatusInput) (*models.ViolationReport, error) {
	if input.ReportID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	status, err := enums.ParseReportStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	var updated *models.ViolationReport
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		report, err := s.mustFind(ctx, repo, input.ReportID)
		if err != nil {
			return err
		}
		if report.Status == status {
			updated = report
			return nil
		}

		oldStatus := report.Status
		if _, err := repo.UpdateStatus(ctx, report.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update report status")
		}
		report.Status = status
		updated = report

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReportStatusChanged,
			AggregateType: enums.AggregateReport,
			AggregateID:   report.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: payloads.ReportStatusChangedEvent{
				ReportID:   report.ID,
				ReporterID: report.ReporterID,
				OldStatus:  oldStatus,
				NewStatus:  status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) mustFind(ctx context.Context, repo Repository, id uuid.UUID) (*models.ViolationReport, error) {
	report, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
	}
	return report, nil
}
