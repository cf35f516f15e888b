package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/allstar/sportshub/internal/middleware"
	"github.com/allstar/sportshub/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	StateSource       middleware.StateSource
	GuardMetrics      middleware.GuardMetrics
	HTTPMetrics       middleware.HTTPMetrics
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 認証
	AuthManager    AuthManagerInterface
	SignInRecorder SignInRecorder

	// ドメインサービス
	CustomerService CustomerServiceInterface
	ProductService  ProductServiceInterface
	OrderService    OrderServiceInterface
	FinanceService  FinanceServiceInterface
	UserService     UserServiceInterface

	// 商品画像プロキシ用のSSRF防止クライアント
	ImageClient *http.Client

	// 運用エンドポイント
	MetricsHandler http.Handler
	DB             Pinger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery が全ルートに適用され、
//	保護ルートはさらに Guard → Logging → CSRF → RateLimit(General) を通過する。
//
// 未認証ルート（/login、初期セットアップのPOST、運用エンドポイント）は
// ガードの外に配置する。ログインはIP単位の厳格なレート制限を受ける。
// セットアップ状況のGETは管理者専用ルートに属する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// Recoveryよりも外側に配置し、パニック時の500も計数する
	r.Use(middleware.NewHTTPMetricsMiddleware(deps.HTTPMetrics))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthManager, deps.SignInRecorder)
	customerHandler := NewCustomerHandler(deps.CustomerService)
	productHandler := NewProductHandler(deps.ProductService, deps.ImageClient)
	orderHandler := NewOrderHandler(deps.OrderService)
	financeHandler := NewFinanceHandler(deps.FinanceService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 未認証ルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/healthz", NewHealthHandler(deps.DB))
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// ガードの303リダイレクト先。現在の認証状態をJSONで返す
		r.Get("/login", authHandler.LoginState)

		// サインインと初期セットアップはIDプロバイダーのロックアウトを
		// 誘発させないよう、IP単位の厳格なレート制限を適用する。
		// 初期セットアップのPOSTは管理者不在時のブートストラップ専用で、
		// 管理者が存在する場合はサービス層で拒否される
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.SignIn)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/admin/setup", userHandler.Setup)
	})

	// --- 保護ルート ---
	// Guard → Logging（認証済み属性付き） → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewGuardMiddleware(deps.StateSource, middleware.AnyRole, deps.GuardMetrics))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/dashboard", financeHandler.GetDashboard)
		r.Get("/me", authHandler.Me)
		r.Post("/logout", authHandler.SignOut)

		// 顧客管理
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customerHandler.ListCustomers)
			r.Post("/", customerHandler.CreateCustomer)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", customerHandler.GetCustomer)
				r.Put("/", customerHandler.UpdateCustomer)
				r.Delete("/", customerHandler.DeleteCustomer)
			})
		})

		// 商品カタログ
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Put("/", productHandler.UpdateProduct)
				r.Delete("/", productHandler.DeactivateProduct)
				r.Get("/image", productHandler.ProxyProductImage)
			})
		})

		// 注文管理
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Post("/", orderHandler.CreateOrder)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.GetOrder)
				r.Put("/status", orderHandler.UpdateOrderStatus)
				r.Delete("/", orderHandler.DeleteOrder)
			})
		})

		// 売上集計
		r.Get("/finance", financeHandler.GetOverview)
	})

	// --- 管理者専用ルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewGuardMiddleware(deps.StateSource, middleware.AdminOnly, deps.GuardMetrics))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セットアップ状況の確認は管理者のみ。非管理者はガードが
		// /dashboardへリダイレクトする
		r.Get("/admin/setup", userHandler.SetupStatus)

		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Post("/", userHandler.ProvisionUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Patch("/", userHandler.UpdateUser)
				r.Post("/deactivate", userHandler.DeactivateUser)
				r.Post("/reactivate", userHandler.ReactivateUser)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "NOT_FOUND",
			Message:  "The requested resource was not found.",
			Category: "routing",
			Action:   "Check the request path.",
		})
	})

	return r
}
