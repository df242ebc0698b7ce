package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/garagesale/internal/access"
	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/middleware"
	"github.com/hitoshi/garagesale/internal/photo"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionVerifier   middleware.SessionVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CookieConfig      access.CookieConfig

	// 監視
	HealthChecker   HealthChecker
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer // nilの場合は/metricsを公開しない

	// ガレージ
	GarageService GarageServiceInterface
	LoginService  OwnerLoginService

	// 品物
	ItemService  ItemServiceInterface
	ItemFinder   ItemFinder
	PhotoFetcher photo.FetcherService

	// 来場者・関心
	InterestService InterestServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → RealIP → Logging → SecurityHeaders → CORS → OwnerSession
//
// オーナーセッションは検証のみ行い、未認可でもリクエストを通す。
// 作成系のルートには追加のレート制限、品物の変更系にはCSRF検証とオーナー必須を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewOwnerSessionMiddleware(deps.SessionVerifier))

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.CookieConfig.Secure,
		CookieDomain: deps.CookieConfig.Domain,
	}

	garageHandler := NewGarageHandler(deps.GarageService)
	sessionHandler := NewSessionHandler(deps.LoginService, deps.CookieConfig)
	itemHandler := NewItemHandler(deps.ItemService)
	participantHandler := NewParticipantHandler(deps.InterestService)
	photoHandler := NewPhotoHandler(deps.ItemFinder, deps.PhotoFetcher)

	// --- 監視用のルート（レート制限なし） ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

		// ガレージ
		r.Route("/api/garages", func(r chi.Router) {
			r.Get("/", garageHandler.ListGarages)
			r.With(deps.RateLimiter.CreateMiddleware()).Post("/", garageHandler.CreateGarage)
			r.Get("/{slug}", garageHandler.GetGarage)
		})

		// オーナーセッション
		r.Route("/api/admin/session", func(r chi.Router) {
			r.Post("/", sessionHandler.Login)
			r.Delete("/", sessionHandler.Logout)
		})

		// 来場者・関心
		r.With(deps.RateLimiter.CreateMiddleware()).Post("/api/participants", participantHandler.CreateParticipant)
		r.With(deps.RateLimiter.CreateMiddleware()).Post("/api/interest", participantHandler.CreateInterest)

		// 品物
		r.Route("/api/items", func(r chi.Router) {
			r.Get("/{id}/photo", photoHandler.GetPhoto)

			// オーナー専用: CSRF → RequireOwner
			r.Group(func(r chi.Router) {
				r.Use(middleware.NewCSRFMiddleware(csrfConfig))
				r.Use(middleware.RequireOwner)

				r.Post("/", itemHandler.CreateItem)
				r.Patch("/{id}", itemHandler.UpdateItem)
				r.Delete("/{id}", itemHandler.DeleteItem)
				r.Get("/{id}/interests", itemHandler.ListInterests)
			})
		})
	})

	return r
}
