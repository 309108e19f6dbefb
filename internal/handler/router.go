// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kpiboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusReporter    middleware.StatusReporter

	// レポート
	ReportService   ReportServiceInterface
	SnapshotTimeout time.Duration

	// タスク
	TaskService TaskServiceInterface

	// KPI
	KPIService KPIServiceInterface

	// ユーザー・部門
	UserService       UserServiceInterface
	DepartmentService DepartmentServiceInterface

	// Prometheusメトリクスエンドポイント（省略可）
	Metrics http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Identity → RateLimit(General)
//
// ヘルスチェック（/health）はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効く外側ミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusReporter))

	reportHandler := NewReportHandler(deps.ReportService, deps.SnapshotTimeout)
	taskHandler := NewTaskHandler(deps.TaskService)
	kpiHandler := NewKPIHandler(deps.KPIService)
	userHandler := NewUserHandler(deps.UserService)
	departmentHandler := NewDepartmentHandler(deps.DepartmentService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Identity → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// KPIヘルスレポート（再計算を伴うため専用レート制限を追加）
		r.Route("/api/kpi-health", func(r chi.Router) {
			r.With(deps.RateLimiter.SnapshotMiddleware()).Get("/snapshot", reportHandler.GetKPIHealth)
		})

		// タスク管理
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Post("/reassign", taskHandler.ReassignOwners)
				r.Post("/ping", taskHandler.PingTask)
			})
		})

		// KPI管理
		r.Route("/api/kpis", func(r chi.Router) {
			r.Get("/", kpiHandler.ListKPIs)
			r.Post("/", kpiHandler.CreateKPI)
			r.Get("/{id}", kpiHandler.GetKPI)
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Post("/", userHandler.CreateUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Put("/", userHandler.UpdateUser)
				r.Delete("/", userHandler.DeleteUser)
			})
		})

		// 部門管理
		r.Route("/api/departments", func(r chi.Router) {
			r.Get("/", departmentHandler.ListDepartments)
			r.Get("/{id}", departmentHandler.GetDepartment)
		})
	})

	return r
}
