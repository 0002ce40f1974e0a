// Package app はアプリケーションの初期化とエントリーポイントを提供する。
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

	"github.com/hitoshi/reviewmon/internal/catalog"
	"github.com/hitoshi/reviewmon/internal/config"
	"github.com/hitoshi/reviewmon/internal/handler"
	"github.com/hitoshi/reviewmon/internal/logger"
	"github.com/hitoshi/reviewmon/internal/metrics"
	"github.com/hitoshi/reviewmon/internal/middleware"
	"github.com/hitoshi/reviewmon/internal/pretalx"
	"github.com/hitoshi/reviewmon/internal/report"
	"github.com/hitoshi/reviewmon/internal/security"
	"github.com/hitoshi/reviewmon/internal/worker/poll"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
// writerがnilでLOG_FILEが設定されている場合はローテーション付き
// ファイル出力に切り替える。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログファイルが指定されている場合は出力先を切り替える
	if w == nil && cfg.LogFile != "" {
		logger.SetupDefault(logger.NewRotatingWriter(cfg.LogFile))
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
		slog.String("event", cfg.Event),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandOnce:
		return runOnce(cfg)
	default:
		return runServe(cfg)
	}
}

// buildPipeline はパイプラインと関連する依存関係をワイヤリングする。
func buildPipeline(cfg *config.Config, store *report.Store, collector metrics.MetricsCollector) (*poll.Pipeline, error) {
	// 1. SSRF防止: ベースURLの事前検証と安全なHTTPクライアントの生成
	guard := security.NewSSRFGuard()
	if err := guard.ValidateURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	httpClient := guard.NewSafeClient(cfg.FetchTimeout)

	// 2. APIクライアント
	client := pretalx.NewClient(httpClient, slog.Default(), cfg.Token, cfg.BaseURL, cfg.FetchMaxSize)

	// 3. カタログ構築
	builder := catalog.NewBuilder(catalog.BuilderConfig{
		DefaultTrack: cfg.DefaultTrack,
		DefaultType:  cfg.DefaultType,
		ReviewURLFor: func(code string) string {
			return client.OrgaReviewURL(cfg.Event, code)
		},
	}, slog.Default())
	extractor := catalog.NewExtractor(slog.Default())

	// 4. レンダラー
	sanitizer := security.NewContentSanitizer()
	renderer := report.NewRenderer(sanitizer)

	pipeline := poll.NewPipeline(
		client, builder, extractor, renderer, store, collector,
		slog.Default(), os.Stdout,
		poll.Config{
			SubmissionsURL: client.SubmissionsURL(cfg.Event),
			ReviewsURL:     client.ReviewsURL(cfg.Event),
			DesiredReviews: cfg.DesiredReviews,
			TargetTrack:    cfg.TargetTrack,
			ExcludedTypes:  cfg.ExcludedTypes,
			OutputPath:     cfg.OutputPath,
		},
	)

	return pipeline, nil
}

// runServe はポーリングワーカーとレポートサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	store := report.NewStore()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	pipeline, err := buildPipeline(cfg, store, collector)
	if err != nil {
		return err
	}

	scheduler := poll.NewScheduler(pipeline, slog.Default())

	// ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Store:       store,
		Gatherer:    registry,
		Logger:      slog.Default(),
		RateLimiter: rateLimiter,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// ポーリングスケジューラをバックグラウンドで起動
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Start(ctx, cfg.PollInterval)
	}()

	go func() {
		slog.Info("report server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	<-schedulerDone
	slog.Info("stopped gracefully")
	return nil
}

// runOnce はポーリングサイクルを1回だけ実行して終了する。
// フェッチ失敗により不完全なデータしか得られなかった場合はエラーを返す
// （cronやCIからの単発実行では完全なスナップショットのみを成功とみなす）。
func runOnce(cfg *config.Config) error {
	store := report.NewStore()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	pipeline, err := buildPipeline(cfg, store, collector)
	if err != nil {
		return err
	}

	result, err := pipeline.RunCycle(context.Background())
	if err != nil {
		return fmt.Errorf("poll cycle failed: %w", err)
	}
	if result.Partial {
		return fmt.Errorf("poll cycle completed with incomplete data")
	}

	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
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
