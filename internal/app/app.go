package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/garagesale/internal/access"
	"github.com/hitoshi/garagesale/internal/config"
	"github.com/hitoshi/garagesale/internal/database"
	"github.com/hitoshi/garagesale/internal/garage"
	"github.com/hitoshi/garagesale/internal/handler"
	"github.com/hitoshi/garagesale/internal/interest"
	"github.com/hitoshi/garagesale/internal/item"
	"github.com/hitoshi/garagesale/internal/logger"
	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/middleware"
	"github.com/hitoshi/garagesale/internal/obs"
	"github.com/hitoshi/garagesale/internal/photo"
	"github.com/hitoshi/garagesale/internal/repository"
	"github.com/hitoshi/garagesale/internal/security"
	"github.com/hitoshi/garagesale/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// repositories はSQL方言に応じて生成したリポジトリ群。
type repositories struct {
	garages      *repository.SQLGarageRepo
	items        *repository.SQLItemRepo
	participants *repository.SQLParticipantRepo
	interests    *repository.SQLInterestRepo
}

func newRepositories(db *sql.DB, databaseURL string) repositories {
	dialect := database.DialectFromURL(databaseURL)
	return repositories{
		garages:      repository.NewSQLGarageRepo(db, dialect),
		items:        repository.NewSQLItemRepo(db, dialect),
		participants: repository.NewSQLParticipantRepo(db, dialect),
		interests:    repository.NewSQLInterestRepo(db, dialect),
	}
}

// newAPIHandler は全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 返された停止関数でレートリミッターのクリーンアップを停止する。
func newAPIHandler(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, func()) {
	// 1. リポジトリの初期化
	repos := newRepositories(db, cfg.DatabaseURL)

	// 2. 横断的サービスの初期化
	collector := metrics.NewCollector(reg)
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewTextSanitizer()

	// 3. ドメインサービスの初期化
	gate := access.NewGate(repos.garages, access.Config{
		Secret:           []byte(cfg.SessionSecret),
		OverridePasscode: cfg.AdminPass,
	}, collector)

	garageService := garage.NewService(
		repos.garages, repos.items, repos.interests, sanitizer, collector,
		garage.ServiceConfig{MaxSlugAttempts: cfg.SlugMaxAttempts},
	)
	itemService := item.NewService(repos.items, repos.interests, sanitizer, urlGuard, collector)
	interestService := interest.NewService(
		repos.garages, repos.items, repos.participants, repos.interests, sanitizer, collector,
	)
	photoFetcher := photo.NewFetcher(urlGuard, photo.Config{
		Timeout: cfg.PhotoFetchTimeout,
		MaxSize: cfg.PhotoMaxSize,
	}, collector)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitCreate),
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionVerifier:   gate,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CookieConfig: access.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
		},

		HealthChecker:   db,
		Metrics:         collector,
		MetricsGatherer: reg,

		GarageService: garageService,
		LoginService:  gate,

		ItemService:  itemService,
		ItemFinder:   itemService,
		PhotoFetcher: photoFetcher,

		InterestService: interestService,
	}

	return handler.NewRouter(deps), rateLimiter.Stop
}

// newRegistry はランタイムメトリクスを登録したPrometheusレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. DB接続
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established",
		slog.String("dialect", string(database.DialectFromURL(cfg.DatabaseURL))),
	)

	// 2. トレーシング
	shutdownTracing, err := obs.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// 3. ハンドラーの構築
	router, stopLimiter := newAPIHandler(cfg, db, newRegistry())
	defer stopLimiter()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、来場者クリーンアップジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. DB接続
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	repos := newRepositories(db, cfg.DatabaseURL)
	job := cleanup.NewCleanupJob(repos.participants, slog.Default(), nil)
	job.RetentionDays = cfg.ParticipantRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("retention_days", cfg.ParticipantRetentionDays),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	return u.Redacted()
}
