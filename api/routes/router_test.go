package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/internal/auth"
	"github.com/ecosort/ecosort-backend/internal/ledger"
	"github.com/ecosort/ecosort-backend/internal/media"
	"github.com/ecosort/ecosort-backend/internal/notifications"
	"github.com/ecosort/ecosort-backend/internal/redemptions"
	"github.com/ecosort/ecosort-backend/internal/reports"
	"github.com/ecosort/ecosort-backend/internal/rewards"
	"github.com/ecosort/ecosort-backend/internal/submissions"
	"github.com/ecosort/ecosort-backend/internal/users"
	"github.com/ecosort/ecosort-backend/internal/wastetypes"
	pkgauth "github.com/ecosort/ecosort-backend/pkg/auth"
	"github.com/ecosort/ecosort-backend/pkg/config"
	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/ecosort/ecosort-backend/pkg/logger"
	"github.com/ecosort/ecosort-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return &auth.TokenPair{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: id}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, id uuid.UUID, input users.UpdateProfileInput) (*users.UserDTO, error) {
	return &users.UserDTO{ID: id}, nil
}

func (stubUsersService) Leaderboard(ctx context.Context) ([]users.LeaderboardEntry, error) {
	return nil, nil
}

func (stubUsersService) List(ctx context.Context, params pagination.Params) ([]users.UserDTO, string, error) {
	return nil, "", nil
}

type stubWasteTypesService struct{}

func (stubWasteTypesService) Create(ctx context.Context, input wastetypes.CreateWasteTypeInput) (*models.WasteType, error) {
	return &models.WasteType{}, nil
}

func (stubWasteTypesService) Update(ctx context.Context, id uuid.UUID, input wastetypes.UpdateWasteTypeInput) (*models.WasteType, error) {
	return &models.WasteType{}, nil
}

func (stubWasteTypesService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubWasteTypesService) Get(ctx context.Context, id uuid.UUID) (*models.WasteType, error) {
	return &models.WasteType{}, nil
}

func (stubWasteTypesService) List(ctx context.Context) ([]models.WasteType, error) {
	return nil, nil
}

func (stubWasteTypesService) RateFor(ctx context.Context, tx *gorm.DB, name string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

type stubSubmissionsService struct{}

func (stubSubmissionsService) Create(ctx context.Context, input submissions.CreateSubmissionInput) (*models.WasteSubmission, error) {
	return &models.WasteSubmission{}, nil
}

func (stubSubmissionsService) Confirm(ctx context.Context, input submissions.ReviewInput) (*models.WasteSubmission, error) {
	return &models.WasteSubmission{}, nil
}

func (stubSubmissionsService) Reject(ctx context.Context, input submissions.ReviewInput) (*models.WasteSubmission, error) {
	return &models.WasteSubmission{}, nil
}

func (stubSubmissionsService) Get(ctx context.Context, id uuid.UUID) (*models.WasteSubmission, error) {
	return &models.WasteSubmission{}, nil
}

func (stubSubmissionsService) ListByUser(ctx context.Context, userID uuid.UUID, params submissions.ListParams) ([]models.WasteSubmission, string, error) {
	return nil, "", nil
}

func (stubSubmissionsService) List(ctx context.Context, params submissions.ListParams) ([]models.WasteSubmission, string, error) {
	return nil, "", nil
}

type stubRewardsService struct{}

func (stubRewardsService) Create(ctx context.Context, input rewards.CreateRewardInput) (*models.Reward, error) {
	return &models.Reward{}, nil
}

func (stubRewardsService) Update(ctx context.Context, id uuid.UUID, input rewards.UpdateRewardInput) (*models.Reward, error) {
	return &models.Reward{}, nil
}

func (stubRewardsService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubRewardsService) Get(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	return &models.Reward{}, nil
}

func (stubRewardsService) List(ctx context.Context, category string) ([]models.Reward, error) {
	return nil, nil
}

func (stubRewardsService) ReserveStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) (*models.Reward, error) {
	return &models.Reward{}, nil
}

func (stubRewardsService) ReleaseStock(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error {
	return nil
}

func (stubRewardsService) BumpPopularity(ctx context.Context, tx *gorm.DB, rewardID uuid.UUID) error {
	return nil
}

type stubRedemptionsService struct{}

func (stubRedemptionsService) Create(ctx context.Context, input redemptions.CreateRedemptionInput) (*models.Redemption, error) {
	return &models.Redemption{}, nil
}

func (stubRedemptionsService) Claim(ctx context.Context, input redemptions.LifecycleInput) (*models.Redemption, error) {
	return &models.Redemption{}, nil
}

func (stubRedemptionsService) Cancel(ctx context.Context, input redemptions.LifecycleInput) (*models.Redemption, error) {
	return &models.Redemption{}, nil
}

func (stubRedemptionsService) Get(ctx context.Context, id uuid.UUID) (*models.Redemption, error) {
	return &models.Redemption{}, nil
}

func (stubRedemptionsService) ListByUser(ctx context.Context, userID uuid.UUID, params redemptions.ListParams) ([]models.Redemption, string, error) {
	return nil, "", nil
}

func (stubRedemptionsService) List(ctx context.Context, params redemptions.ListParams) ([]models.Redemption, string, error) {
	return nil, "", nil
}

type stubLedgerService struct{}

func (stubLedgerService) Append(ctx context.Context, tx *gorm.DB, input ledger.AppendInput) (*models.PointTransaction, error) {
	return &models.PointTransaction{}, nil
}

func (stubLedgerService) Grant(ctx context.Context, input ledger.GrantInput) (*models.PointTransaction, error) {
	return &models.PointTransaction{}, nil
}

func (stubLedgerService) Sum(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}

func (stubLedgerService) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointTransaction, string, error) {
	return nil, "", nil
}

func (stubLedgerService) List(ctx context.Context, params pagination.Params) ([]models.PointTransaction, string, error) {
	return nil, "", nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, message string) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) DeleteReadOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return 0, nil
}

type stubReportsService struct{}

func (stubReportsService) Create(ctx context.Context, input reports.CreateReportInput) (*models.ViolationReport, error) {
	return &models.ViolationReport{}, nil
}

func (stubReportsService) Get(ctx context.Context, id uuid.UUID) (*models.ViolationReport, error) {
	return &models.ViolationReport{}, nil
}

func (stubReportsService) List(ctx context.Context, params reports.ListParams) ([]models.ViolationReport, string, error) {
	return nil, "", nil
}

func (stubReportsService) Like(ctx context.Context, reportID, userID uuid.UUID) error {
	return nil
}

func (stubReportsService) Unlike(ctx context.Context, reportID, userID uuid.UUID) error {
	return nil
}

func (stubReportsService) Comment(ctx context.Context, input reports.CommentInput) (*models.ReportComment, error) {
	return &models.ReportComment{}, nil
}

func (stubReportsService) SetStatus(ctx context.Context, input reports.SetStatusInput) (*models.ViolationReport, error) {
	return &models.ViolationReport{}, nil
}

type stubMediaService struct{}

func (stubMediaService) PresignUpload(ctx context.Context, userID uuid.UUID, input media.PresignInput) (*media.PresignOutput, error) {
	return &media.PresignOutput{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "ecosort-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		Sessions:      stubSessions{},
		DBPinger:      stubPinger{},
		RedisPinger:   stubPinger{},
		Auth:          stubAuthService{},
		Users:         stubUsersService{},
		WasteTypes:    stubWasteTypesService{},
		Submissions:   stubSubmissionsService{},
		Rewards:       stubRewardsService{},
		Redemptions:   stubRedemptionsService{},
		Ledger:        stubLedgerService{},
		Notifications: stubNotificationsService{},
		Reports:       stubReportsService{},
		Media:         stubMediaService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	return buildTokenWithUserID(t, cfg, role, uuid.New())
}

func buildTokenWithUserID(t *testing.T, cfg *config.Config, role enums.UserRole, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestCatalogReadsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/api/v1/waste-types", "/api/v1/rewards"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s without token got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleResident))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	resident := httptest.NewRequest(http.MethodGet, "/api/admin/v1/transactions", nil)
	resident.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleResident))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, resident)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for resident got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/transactions", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminSubmissionReviewRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	target := "/api/admin/v1/submissions/" + uuid.NewString() + "/confirm"
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for confirm got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleResident))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for resident confirm got %d", resp.Code)
	}
}

func TestReadinessReportsSkippedDependencies(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"gcs":"skipped"`) || !strings.Contains(body, `"database":"ok"`) {
		t.Fatalf("unexpected readiness body %s", body)
	}
}
