package report

import (
	"fmt"
	"io"

	"github.com/hitoshi/reviewmon/internal/coverage"
)

// WriteSummary はカバレッジ統計の人間向けサマリーをwへ書き出す。
// 不足投稿数・不足レビュー数とそれぞれの完了率、および
// 件数が0でないビンごとの内訳を出力する。
func WriteSummary(w io.Writer, stats *coverage.Stats) error {
	if _, err := fmt.Fprintf(w, "レビュー不足の投稿: %d / %d (完了 %.1f%%)\n",
		stats.NumProposalsMissing, stats.NumAll, stats.ProposalsDonePct()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "不足しているレビュー: %d / %d (完了 %.1f%%)\n",
		stats.NumReviewsMissing, stats.NumTotalDesired, stats.ReviewsDonePct()); err != nil {
		return err
	}

	for b, count := range stats.CountInBin {
		if count == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "  レビュー%d件の投稿: %d件\n", b, count); err != nil {
			return err
		}
	}

	return nil
}
