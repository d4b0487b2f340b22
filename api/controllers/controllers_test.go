package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/api/middleware"
	"github.com/ecosort/ecosort-backend/internal/submissions"
	"github.com/ecosort/ecosort-backend/internal/wastetypes"
	"github.com/ecosort/ecosort-backend/pkg/db/models"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
)

type fakeWasteTypes struct {
	created *wastetypes.CreateWasteTypeInput
	deleted []uuid.UUID
	listErr error
}

func (f *fakeWasteTypes) Create(ctx context.Context, input wastetypes.CreateWasteTypeInput) (*models.WasteType, error) {
	f.created = &input
	return &models.WasteType{Name: input.Name, PointsPerKilo: input.PointsPerKilo}, nil
}

func (f *fakeWasteTypes) Update(ctx context.Context, id uuid.UUID, input wastetypes.UpdateWasteTypeInput) (*models.WasteType, error) {
	return &models.WasteType{}, nil
}

func (f *fakeWasteTypes) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWasteTypes) Get(ctx context.Context, id uuid.UUID) (*models.WasteType, error) {
	return &models.WasteType{}, nil
}

func (f *fakeWasteTypes) List(ctx context.Context) ([]models.WasteType, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []models.WasteType{{Name: "plastic"}}, nil
}

func (f *fakeWasteTypes) RateFor(ctx context.Context, tx *gorm.DB, name string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

type fakeSubmissions struct {
	created  *submissions.CreateSubmissionInput
	reviewed *submissions.ReviewInput
}

func (f *fakeSubmissions) Create(ctx context.Context, input submissions.CreateSubmissionInput) (*models.WasteSubmission, error) {
	f.created = &input
	return &models.WasteSubmission{UserID: input.UserID}, nil
}

func (f *fakeSubmissions) Confirm(ctx context.Context, input submissions.ReviewInput) (*models.WasteSubmission, error) {
	f.reviewed = &input
	return &models.WasteSubmission{}, nil
}

func (f *fakeSubmissions) Reject(ctx context.Context, input submissions.ReviewInput) (*models.WasteSubmission, error) {
	f.reviewed = &input
	return &models.WasteSubmission{}, nil
}

func (f *fakeSubmissions) Get(ctx context.Context, id uuid.UUID) (*models.WasteSubmission, error) {
	return &models.WasteSubmission{}, nil
}

func (f *fakeSubmissions) ListByUser(ctx context.Context, userID uuid.UUID, params submissions.ListParams) ([]models.WasteSubmission, string, error) {
	return []models.WasteSubmission{{UserID: userID}}, "next-cursor", nil
}

func (f *fakeSubmissions) List(ctx context.Context, params submissions.ListParams) ([]models.WasteSubmission, string, error) {
	return nil, "", nil
}

func authedRequest(method, target, body string, userID uuid.UUID, role string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestSubmissionCreateUsesCallerIdentity(t *testing.T) {
	svc := &fakeSubmissions{}
	handler := SubmissionCreate(svc, nil)

	userID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/submissions", `{"waste_type":"plastic","weight_kg":"2.5"}`, userID, "resident")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected service create call")
	}
	if svc.created.UserID != userID {
		t.Fatalf("expected caller id %s got %s", userID, svc.created.UserID)
	}
	if !svc.created.WeightKg.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected weight %s", svc.created.WeightKg)
	}
}

func TestSubmissionCreateRejectsUnknownFields(t *testing.T) {
	svc := &fakeSubmissions{}
	handler := SubmissionCreate(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/submissions", `{"waste_type":"plastic","weight_kg":"2.5","points":9999}`, uuid.New(), "resident")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", resp.Code)
	}
	if svc.created != nil {
		t.Fatal("service should not be called on invalid input")
	}
}

func TestSubmissionCreateRequiresIdentity(t *testing.T) {
	handler := SubmissionCreate(&fakeSubmissions{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(`{"waste_type":"plastic","weight_kg":"1"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without context identity got %d", resp.Code)
	}
}

func TestSubmissionConfirmCarriesActor(t *testing.T) {
	svc := &fakeSubmissions{}
	handler := SubmissionConfirm(svc, nil)

	actor := uuid.New()
	submissionID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/submissions/"+submissionID.String()+"/confirm", "", actor, "admin")
	req = withURLParam(req, "submissionId", submissionID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if svc.reviewed == nil {
		t.Fatal("expected review call")
	}
	if svc.reviewed.SubmissionID != submissionID || svc.reviewed.ActorUserID != actor || svc.reviewed.ActorRole != "admin" {
		t.Fatalf("unexpected review input %+v", svc.reviewed)
	}
}

func TestSubmissionRejectReadsOptionalReason(t *testing.T) {
	svc := &fakeSubmissions{}
	handler := SubmissionReject(svc, nil)

	submissionID := uuid.New()
	req := authedRequest(http.MethodPost, "/x", `{"reason":"photo does not match"}`, uuid.New(), "admin")
	req = withURLParam(req, "submissionId", submissionID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if svc.reviewed == nil || svc.reviewed.Reason != "photo does not match" {
		t.Fatalf("expected reason to flow through got %+v", svc.reviewed)
	}
}

func TestSubmissionListOwnReturnsCursor(t *testing.T) {
	handler := SubmissionListOwn(&fakeSubmissions{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/submissions?limit=10", "", uuid.New(), "resident")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	payload := decodeEnvelope(t, resp)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope got %v", payload)
	}
	if data["cursor"] != "next-cursor" {
		t.Fatalf("expected cursor in response got %v", data["cursor"])
	}
}

func TestSubmissionListRejectsBadLimit(t *testing.T) {
	handler := SubmissionListOwn(&fakeSubmissions{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/submissions?limit=abc", "", uuid.New(), "resident")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit got %d", resp.Code)
	}
}

func TestWasteTypeCreateValidatesBody(t *testing.T) {
	svc := &fakeWasteTypes{}
	handler := WasteTypeCreate(svc, nil)

	req := authedRequest(http.MethodPost, "/api/admin/v1/waste-types", `{"name":""}`, uuid.New(), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty payload got %d", resp.Code)
	}
	if svc.created != nil {
		t.Fatal("service should not be called on invalid input")
	}
}

func TestWasteTypeDeleteParsesPathID(t *testing.T) {
	svc := &fakeWasteTypes{}
	handler := WasteTypeDelete(svc, nil)

	id := uuid.New()
	req := authedRequest(http.MethodDelete, "/x", "", uuid.New(), "admin")
	req = withURLParam(req, "wasteTypeId", id.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != id {
		t.Fatalf("expected delete for %s got %v", id, svc.deleted)
	}

	bad := authedRequest(http.MethodDelete, "/x", "", uuid.New(), "admin")
	bad = withURLParam(bad, "wasteTypeId", "not-a-uuid")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id got %d", resp.Code)
	}
}

func TestWasteTypeListSurfacesServiceErrors(t *testing.T) {
	svc := &fakeWasteTypes{listErr: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	handler := WasteTypeList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/waste-types", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for dependency failure got %d", resp.Code)
	}
}

func TestNilServiceGuard(t *testing.T) {
	handler := WasteTypeList(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/waste-types", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for nil service got %d", resp.Code)
	}
}
