package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecosort/ecosort-backend/api/middleware"
	"github.com/ecosort/ecosort-backend/api/responses"
	"github.com/ecosort/ecosort-backend/api/validators"
	"github.com/ecosort/ecosort-backend/internal/submissions"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/logger"
)

type submissionCreateBody struct {
	WasteType string          `json:"waste_type" validate:"required"`
	WeightKg  decimal.Decimal `json:"weight_kg" validate:"required"`
	PhotoURL  *string         `json:"photo_url,omitempty"`
}

type submissionRejectBody struct {
	Reason string `json:"reason,omitempty"`
}

// SubmissionCreate records a pending waste drop-off for the caller.
func SubmissionCreate(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submissionCreateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), submissions.CreateSubmissionInput{
			UserID:    userID,
			WasteType: body.WasteType,
			WeightKg:  body.WeightKg,
			PhotoURL:  body.PhotoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// SubmissionListOwn returns the caller's submission history.
func SubmissionListOwn(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := submissionListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListByUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope[any]{Items: toAnySlice(items), Cursor: cursor})
	}
}

// SubmissionList is the admin review queue, filterable by status.
func SubmissionList(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		params, err := submissionListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope[any]{Items: toAnySlice(items), Cursor: cursor})
	}
}

// SubmissionConfirm awards points for a pending submission.
func SubmissionConfirm(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return submissionReview(svc, logg, func(r *http.Request, input submissions.ReviewInput) (any, error) {
		return svc.Confirm(r.Context(), input)
	})
}

// SubmissionReject declines a pending submission without awarding points.
func SubmissionReject(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return submissionReview(svc, logg, func(r *http.Request, input submissions.ReviewInput) (any, error) {
		return svc.Reject(r.Context(), input)
	})
}

func submissionReview(svc submissions.Service, logg *logger.Logger, run func(*http.Request, submissions.ReviewInput) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submissionID, err := pathUUID(r, "submissionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := submissions.ReviewInput{
			SubmissionID: submissionID,
			ActorUserID:  adminID,
			ActorRole:    middleware.RoleFromContext(r.Context()),
		}
		if r.ContentLength > 0 {
			var body submissionRejectBody
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Reason = strings.TrimSpace(body.Reason)
		}

		result, err := run(r, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func submissionListParams(r *http.Request) (submissions.ListParams, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return submissions.ListParams{}, err
	}
	return submissions.ListParams{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  limit,
		Cursor: queryCursor(r),
	}, nil
}

func toAnySlice[T any](items []T) []any {
	result := make([]any, len(items))
	for i := range items {
		result[i] = items[i]
	}
	return result
}
