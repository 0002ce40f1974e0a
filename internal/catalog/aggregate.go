package catalog

import (
	"github.com/hitoshi/reviewmon/internal/model"
)

// JoinResult はレビュー結合の集計結果を表す。
// サイクルログとメトリクス用。
type JoinResult struct {
	// Matched はカタログ内の投稿に結合できたレビュー数。
	Matched int
	// Orphaned はカタログに存在しないコードを参照していたレビュー数。
	// トークン保持者自身の投稿はレビュー取得に含まれないため、
	// これはエラーではなく想定内のギャップ。
	Orphaned int
}

// Join はレビューを投稿コードでカタログへ結合する。
// 一致した投稿のReviewCountを1増やし、ReviewTextへ本文と改行を追記する。
// カタログにコードの重複がある場合は最初の投稿のみに加算される
// （正常なカタログに重複は存在しない。builderが取り込み時に警告する）。
// 未知のコードを参照するレビューは黙って捨てる。
func Join(subs []*model.SubmissionRecord, reviews []model.ReviewRecord) JoinResult {
	// 先勝ちのコード索引
	index := make(map[string]*model.SubmissionRecord, len(subs))
	for _, sub := range subs {
		if _, ok := index[sub.Code]; !ok {
			index[sub.Code] = sub
		}
	}

	var result JoinResult
	for _, review := range reviews {
		sub, ok := index[review.SubmissionCode]
		if !ok {
			result.Orphaned++
			continue
		}
		sub.ReviewCount++
		sub.ReviewText += review.Text + "\n"
		result.Matched++
	}

	return result
}
