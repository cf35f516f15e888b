package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/allstar/sportshub/internal/authstate"
	"github.com/allstar/sportshub/internal/config"
	"github.com/allstar/sportshub/internal/customer"
	"github.com/allstar/sportshub/internal/database"
	"github.com/allstar/sportshub/internal/finance"
	"github.com/allstar/sportshub/internal/handler"
	"github.com/allstar/sportshub/internal/logger"
	"github.com/allstar/sportshub/internal/metrics"
	"github.com/allstar/sportshub/internal/middleware"
	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/order"
	"github.com/allstar/sportshub/internal/product"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/security"
	"github.com/allstar/sportshub/internal/sessionstore"
	"github.com/allstar/sportshub/internal/user"
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
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSetup:
		return runSetup(cfg)
	default:
		return runServe(cfg)
	}
}

// slogNotifier はユーザー向け通知を構造化ログに送出するNotifier実装。
type slogNotifier struct{}

func (slogNotifier) Success(message string) {
	slog.Info("notification", slog.String("level", "success"), slog.String("message", message))
}

func (slogNotifier) Error(message string) {
	slog.Warn("notification", slog.String("level", "error"), slog.String("message", message))
}

// slogNavigator は画面遷移の指示を構造化ログに送出するNavigator実装。
// 実際の遷移はガードミドルウェアのリダイレクトが担う。
type slogNavigator struct{}

func (slogNavigator) NavigateTo(route string) {
	slog.Info("navigation", slog.String("route", route))
}

// newSessionStoreClient は設定からSession Storeクライアントを構成する。
func newSessionStoreClient(cfg *config.Config) *sessionstore.Client {
	var tokens sessionstore.TokenStore
	if cfg.SessionTokenFile != "" {
		tokens = sessionstore.NewFileTokenStore(cfg.SessionTokenFile)
	}
	return sessionstore.NewClient(sessionstore.ClientConfig{
		BaseURL: cfg.SessionStoreURL,
		APIKey:  cfg.SessionStoreAPIKey,
	}, tokens)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	customerRepo := repository.NewPostgresCustomerRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	financeRepo := repository.NewPostgresFinanceRepo(db)

	// 3. セキュリティサービスの初期化
	sanitizer := security.NewTextSanitizer()
	imageGuard := security.NewImageURLGuard()

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. Session Storeクライアントと認証状態管理の初期化
	store := newSessionStoreClient(cfg)
	manager := authstate.NewManager(
		store, userRepo, slogNotifier{}, slogNavigator{}, collector,
		authstate.ManagerConfig{
			Timeout: cfg.AuthTimeout,
			Retry: authstate.RetryConfig{
				MaxAttempts:    cfg.LookupMaxAttempts,
				InitialBackoff: cfg.LookupInitialBackoff,
				MaxBackoff:     cfg.LookupMaxBackoff,
			},
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// セッション復元をバックグラウンドで開始する。復元が完了するまで
	// 保護ルートはガードにより503を返す。
	manager.Start(ctx)
	defer manager.Close()

	// 6. ドメインサービスの初期化
	userService := user.NewService(userRepo, store)
	customerService := customer.NewService(customerRepo, orderRepo, sanitizer)
	productService := product.NewService(productRepo, imageGuard, sanitizer)
	orderService := order.NewService(orderRepo, customerRepo, productRepo, sanitizer)
	financeService := finance.NewService(financeRepo)

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin

	deps := &handler.RouterDeps{
		StateSource:       manager,
		GuardMetrics:      collector,
		HTTPMetrics:       collector,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		AuthManager:    manager,
		SignInRecorder: userService,

		CustomerService: customerService,
		ProductService:  productService,
		OrderService:    orderService,
		FinanceService:  financeService,
		UserService:     userService,

		ImageClient: imageGuard.NewSafeClient(15 * time.Second),

		MetricsHandler: metrics.SetupMetricsRoute(registry),
		DB:             db,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
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

// runSetup は初期管理者アカウントを作成する。
// ADMIN_EMAIL、ADMIN_PASSWORD、ADMIN_NAME環境変数から作成内容を読み込む。
// 管理者が既に存在する場合はエラーを返す。
func runSetup(cfg *config.Config) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if email == "" || password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required for setup")
	}
	if name == "" {
		name = "Administrator"
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	userRepo := repository.NewPostgresUserRepo(db)
	store := newSessionStoreClient(cfg)
	userService := user.NewService(userRepo, store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := userService.EnsureInitialAdmin(ctx, email, password, name)
	if err != nil {
		return fmt.Errorf("initial admin setup failed: %w", err)
	}

	slog.Info("initial admin created",
		slog.String("user_id", admin.ID),
		slog.String("email", admin.Email),
		slog.String("role", string(model.RoleAdmin)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
