package controllers

import (
	"net/http"

	"github.com/ecosort/ecosort-backend/api/responses"
	"github.com/ecosort/ecosort-backend/api/validators"
	"github.com/ecosort/ecosort-backend/internal/media"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/logger"
)

type mediaPresignBody struct {
	Kind      string `json:"kind" validate:"required"`
	MimeType  string `json:"mime_type" validate:"required"`
	FileName  string `json:"file_name" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,min=1"`
}

// MediaPresign hands the client a short-lived signed PUT URL. The upload
// itself goes straight to the bucket; the API never proxies bytes.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body mediaPresignBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseMediaKind(body.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown media kind"))
			return
		}

		out, err := svc.PresignUpload(r.Context(), userID, media.PresignInput{
			Kind:      kind,
			MimeType:  body.MimeType,
			FileName:  body.FileName,
			SizeBytes: body.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}
