// Package poll はレビューカバレッジのバックグラウンドポーリング処理を提供する。
// 取得から集計・レンダリングまでのパイプラインと、その定期実行スケジューラを含む。
package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/reviewmon/internal/catalog"
	"github.com/hitoshi/reviewmon/internal/coverage"
	"github.com/hitoshi/reviewmon/internal/metrics"
	"github.com/hitoshi/reviewmon/internal/model"
	"github.com/hitoshi/reviewmon/internal/pretalx"
	"github.com/hitoshi/reviewmon/internal/report"
)

// Config はパイプラインの設定を保持する。
type Config struct {
	// SubmissionsURL は投稿一覧エンドポイントのシードURL。
	SubmissionsURL string
	// ReviewsURL はレビュー一覧エンドポイントのシードURL。
	ReviewsURL string
	// DesiredReviews は投稿1件あたりの目標レビュー数。
	DesiredReviews int
	// TargetTrack はレポート対象のトラック。
	TargetTrack string
	// ExcludedTypes はレポートから除外する投稿種別。
	ExcludedTypes []string
	// OutputPath はHTMLレポートの出力先ファイル。空の場合はファイル出力しない。
	OutputPath string
}

// CycleResult は1回のポーリングサイクルの結果を表す。
type CycleResult struct {
	// Stats はサイクルのカバレッジ統計。
	Stats *coverage.Stats
	// Partial はフェッチ失敗により不完全なデータから集計されたことを示す。
	Partial bool
}

// Pipeline は1回のポーリングサイクル全体を実行する。
// 投稿とレビューの取得、カタログ構築、結合、統計計算、レンダリングを順に行う。
// サイクルごとに全レコードを作り直し、前サイクルの状態は一切持ち越さない。
type Pipeline struct {
	fetcher   pretalx.PageFetcher
	builder   *catalog.Builder
	extractor *catalog.Extractor
	renderer  *report.Renderer
	store     *report.Store
	collector metrics.MetricsCollector
	logger    *slog.Logger
	console   io.Writer
	cfg       Config
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
// consoleにはサマリー出力先（通常os.Stdout）を渡す。
func NewPipeline(
	fetcher pretalx.PageFetcher,
	builder *catalog.Builder,
	extractor *catalog.Extractor,
	renderer *report.Renderer,
	store *report.Store,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	console io.Writer,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		builder:   builder,
		extractor: extractor,
		renderer:  renderer,
		store:     store,
		collector: collector,
		logger:    logger,
		console:   console,
		cfg:       cfg,
	}
}

// RunCycle は1回のポーリングサイクルを実行する。
//
// 途中のページフェッチに失敗した場合でもサイクルは中断しない: それまでに
// 蓄積した部分データで集計を続行し、レポートに不完全フラグを立てる。
// 無人運用では空白のサイクルよりフラグ付きの部分レポートの方が有用なため。
// コンテキストのキャンセルとレンダリング失敗のみエラーとして返す。
func (p *Pipeline) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	cycleID := uuid.NewString()

	p.logger.Info("ポーリングサイクルを開始します",
		slog.String("cycle_id", cycleID),
	)

	partial := false

	subsRaw, err := pretalx.FetchAll(ctx, p.fetcher, p.cfg.SubmissionsURL, p.logger)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		p.recordFetchFailure("submissions", err, cycleID)
		partial = true
	}

	reviewsRaw, err := pretalx.FetchAll(ctx, p.fetcher, p.cfg.ReviewsURL, p.logger)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		p.recordFetchFailure("reviews", err, cycleID)
		partial = true
	}

	subs, skippedSubs := p.builder.BuildCatalog(subsRaw)
	p.collector.RecordParseFailure("submissions", skippedSubs)

	reviews, skippedReviews := p.extractor.ExtractReviews(reviewsRaw)
	p.collector.RecordParseFailure("reviews", skippedReviews)

	joinResult := catalog.Join(subs, reviews)

	stats := coverage.Compute(subs, p.cfg.DesiredReviews, p.cfg.TargetTrack, p.cfg.ExcludedTypes)

	updatedAt := time.Now()
	html, err := p.renderer.RenderHTML(stats, updatedAt, partial)
	if err != nil {
		return nil, err
	}

	if p.cfg.OutputPath != "" {
		if err := os.WriteFile(p.cfg.OutputPath, html, 0o644); err != nil {
			p.logger.Error("レポートファイルの書き出しに失敗しました",
				slog.String("cycle_id", cycleID),
				slog.String("path", p.cfg.OutputPath),
				slog.String("error", err.Error()),
			)
		}
	}

	p.store.Set(html, stats, updatedAt, partial)

	if p.console != nil {
		if err := report.WriteSummary(p.console, stats); err != nil {
			p.logger.Error("コンソールサマリーの出力に失敗しました",
				slog.String("cycle_id", cycleID),
				slog.String("error", err.Error()),
			)
		}
	}

	duration := time.Since(start)
	p.collector.RecordCycleLatency(duration)
	p.collector.RecordCoverage(
		stats.NumProposalsMissing,
		stats.NumReviewsMissing,
		stats.ProposalsDonePct(),
		stats.ReviewsDonePct(),
	)
	if partial {
		p.collector.RecordCyclePartial()
	} else {
		p.collector.RecordCycleSuccess()
	}

	p.logger.Info("ポーリングサイクルが完了しました",
		slog.String("cycle_id", cycleID),
		slog.Bool("partial", partial),
		slog.Int("submissions", len(subs)),
		slog.Int("reviews", len(reviews)),
		slog.Int("reviews_matched", joinResult.Matched),
		slog.Int("reviews_orphaned", joinResult.Orphaned),
		slog.Int("proposals_missing", stats.NumProposalsMissing),
		slog.Int("reviews_missing", stats.NumReviewsMissing),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return &CycleResult{Stats: stats, Partial: partial}, nil
}

// recordFetchFailure はフェッチ失敗のログとメトリクスを記録する。
func (p *Pipeline) recordFetchFailure(endpoint string, err error, cycleID string) {
	p.collector.RecordFetchFailure(endpoint)

	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
		p.collector.RecordHTTPStatus(fetchErr.StatusCode)
	}

	p.logger.Error("フェッチに失敗したため部分データで続行します",
		slog.String("cycle_id", cycleID),
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	)
}
