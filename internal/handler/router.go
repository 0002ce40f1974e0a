package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/reviewmon/internal/metrics"
	"github.com/hitoshi/reviewmon/internal/middleware"
	"github.com/hitoshi/reviewmon/internal/report"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Store       *report.Store
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
	RateLimiter *middleware.RateLimiter
}

// NewRouter はレポートサーバーのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Logging → SecurityHeaders → RateLimit
//
// /metrics はレート制限の外に配置する（Prometheusスクレイプを妨げないため）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	reportHandler := NewReportHandler(deps.Store)

	// Prometheusスクレイプ
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// ヘルスチェック
	r.Get("/health", Health)

	// レポート配信（レート制限付き）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		r.Get("/", reportHandler.ServeHTML)
		r.Get("/api/coverage", reportHandler.ServeStats)
	})

	return r
}
