package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ecosort/ecosort-backend/api/middleware"
	"github.com/ecosort/ecosort-backend/api/responses"
	"github.com/ecosort/ecosort-backend/api/validators"
	"github.com/ecosort/ecosort-backend/internal/redemptions"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/logger"
)

type redemptionCreateBody struct {
	RewardID uuid.UUID `json:"reward_id" validate:"required"`
}

// RedemptionCreate spends points against a reward. The debit, the stock
// decrement, and the pending redemption commit in a single transaction.
func RedemptionCreate(svc redemptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redemptions service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body redemptionCreateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), redemptions.CreateRedemptionInput{
			UserID:   userID,
			RewardID: body.RewardID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// RedemptionListOwn lists the caller's redemptions, newest first.
func RedemptionListOwn(svc redemptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redemptions service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := redemptionListParams(r)
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

// RedemptionList is the admin view across all users.
func RedemptionList(svc redemptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redemptions service unavailable"))
			return
		}

		params, err := redemptionListParams(r)
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

// RedemptionClaim marks a pending redemption as handed over.
func RedemptionClaim(svc redemptions.Service, logg *logger.Logger) http.HandlerFunc {
	return redemptionLifecycle(svc, logg, svcClaim)
}

// RedemptionCancel voids a pending redemption and refunds the points.
func RedemptionCancel(svc redemptions.Service, logg *logger.Logger) http.HandlerFunc {
	return redemptionLifecycle(svc, logg, svcCancel)
}

type redemptionTransition int

const (
	svcClaim redemptionTransition = iota
	svcCancel
)

func redemptionLifecycle(svc redemptions.Service, logg *logger.Logger, transition redemptionTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "redemptions service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "redemptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := redemptions.LifecycleInput{
			RedemptionID: id,
			ActorUserID:  actor,
			ActorRole:    middleware.RoleFromContext(r.Context()),
		}

		var updated any
		switch transition {
		case svcClaim:
			updated, err = svc.Claim(r.Context(), input)
		default:
			updated, err = svc.Cancel(r.Context(), input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func redemptionListParams(r *http.Request) (redemptions.ListParams, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return redemptions.ListParams{}, err
	}
	return redemptions.ListParams{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  limit,
		Cursor: queryCursor(r),
	}, nil
}
