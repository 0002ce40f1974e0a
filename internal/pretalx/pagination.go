package pretalx

import (
	"context"
	"encoding/json"
	"log/slog"
)

// FetchAll はseedURLから始めてnextポインタを辿り、全ページのresultsを
// 到着順に蓄積して返す。ページごとにちょうど1回フェッチする。
//
// 途中のページでフェッチに失敗した場合、それまでに蓄積した部分結果と
// エラーの両方を返す。「最終ページまで到達した」と「途中で失敗した」は
// 戻り値のエラーで区別される。部分結果を使うかどうかは呼び出し元が決める。
func FetchAll(ctx context.Context, fetcher PageFetcher, seedURL string, logger *slog.Logger) ([]json.RawMessage, error) {
	var results []json.RawMessage

	url := seedURL
	pageNum := 0

	for url != "" {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		page, err := fetcher.FetchPage(ctx, url)
		if err != nil {
			logger.Warn("ページネーション走査を中断します",
				slog.String("url", url),
				slog.Int("pages_fetched", pageNum),
				slog.Int("results_accumulated", len(results)),
				slog.String("error", err.Error()),
			)
			return results, err
		}

		pageNum++
		results = append(results, page.Results...)

		if !page.HasNext() {
			break
		}
		url = *page.Next
	}

	logger.Info("ページネーション走査が完了しました",
		slog.String("seed_url", seedURL),
		slog.Int("pages", pageNum),
		slog.Int("results", len(results)),
	)

	return results, nil
}
