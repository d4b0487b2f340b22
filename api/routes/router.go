package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecosort/ecosort-backend/api/controllers"
	"github.com/ecosort/ecosort-backend/api/middleware"
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
	"github.com/ecosort/ecosort-backend/pkg/auth/session"
	"github.com/ecosort/ecosort-backend/pkg/config"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/ecosort/ecosort-backend/pkg/logger"
	"github.com/ecosort/ecosort-backend/pkg/metrics"
	"github.com/ecosort/ecosort-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Nil optional fields
// (GCS, metrics) degrade gracefully rather than fail at startup.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Redis    *redis.Client

	// Readiness probes. A nil entry is reported as skipped.
	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	GCSPinger   controllers.Pinger

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth          auth.Service
	Users         users.Service
	WasteTypes    wastetypes.Service
	Submissions   submissions.Service
	Rewards       rewards.Service
	Redemptions   redemptions.Service
	Ledger        ledger.Service
	Notifications notifications.Service
	Reports       reports.Service
	Media         media.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": d.DBPinger,
			"redis":    d.RedisPinger,
			"gcs":      d.GCSPinger,
		}))
	})

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	// A typed nil *redis.Client would slip past the middleware's interface
	// nil check, so resolve the store here.
	limiter := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if d.Redis == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.AuthRateLimit(policy, d.Redis, logg)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(limiter(registerPolicy)).Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.With(limiter(loginPolicy)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	// Catalog reads are public; residents browse before signing in.
	r.Get("/api/v1/waste-types", controllers.WasteTypeList(d.WasteTypes, logg))
	r.Get("/api/v1/rewards", controllers.RewardList(d.Rewards, logg))
	r.Get("/api/v1/rewards/{rewardId}", controllers.RewardGet(d.Rewards, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/", controllers.SubmissionCreate(d.Submissions, logg))
			r.Get("/", controllers.SubmissionListOwn(d.Submissions, logg))
		})

		r.Route("/redemptions", func(r chi.Router) {
			r.Post("/", controllers.RedemptionCreate(d.Redemptions, logg))
			r.Get("/", controllers.RedemptionListOwn(d.Redemptions, logg))
			r.Post("/{redemptionId}/cancel", controllers.RedemptionCancel(d.Redemptions, logg))
		})

		r.Get("/transactions", controllers.TransactionListOwn(d.Ledger, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(d.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(d.Notifications, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.ReportList(d.Reports, logg))
			r.Post("/", controllers.ReportCreate(d.Reports, logg))
			r.Get("/{reportId}", controllers.ReportGet(d.Reports, logg))
			r.Post("/{reportId}/like", controllers.ReportLike(d.Reports, logg))
			r.Delete("/{reportId}/like", controllers.ReportUnlike(d.Reports, logg))
			r.Post("/{reportId}/comments", controllers.ReportComment(d.Reports, logg))
		})

		r.Get("/leaderboard", controllers.Leaderboard(d.Users, logg))
		r.Get("/me", controllers.Me(d.Users, logg))
		r.Put("/me", controllers.MeUpdate(d.Users, logg))

		r.Post("/media", controllers.MediaPresign(d.Media, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/waste-types", func(r chi.Router) {
			r.Post("/", controllers.WasteTypeCreate(d.WasteTypes, logg))
			r.Put("/{wasteTypeId}", controllers.WasteTypeUpdate(d.WasteTypes, logg))
			r.Delete("/{wasteTypeId}", controllers.WasteTypeDelete(d.WasteTypes, logg))
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/", controllers.SubmissionList(d.Submissions, logg))
			r.Post("/{submissionId}/confirm", controllers.SubmissionConfirm(d.Submissions, logg))
			r.Post("/{submissionId}/reject", controllers.SubmissionReject(d.Submissions, logg))
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Post("/", controllers.RewardCreate(d.Rewards, logg))
			r.Put("/{rewardId}", controllers.RewardUpdate(d.Rewards, logg))
			r.Delete("/{rewardId}", controllers.RewardDelete(d.Rewards, logg))
		})

		r.Route("/redemptions", func(r chi.Router) {
			r.Get("/", controllers.RedemptionList(d.Redemptions, logg))
			r.Post("/{redemptionId}/claim", controllers.RedemptionClaim(d.Redemptions, logg))
		})

		r.Get("/transactions", controllers.TransactionList(d.Ledger, logg))
		r.Post("/users/{userId}/points", controllers.PointsGrant(d.Ledger, logg))
		r.Get("/users", controllers.UserList(d.Users, logg))

		r.Patch("/reports/{reportId}/status", controllers.ReportSetStatus(d.Reports, logg))
	})

	return r
}
