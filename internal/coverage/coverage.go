// Package coverage はレビューカバレッジ統計の計算を提供する。
package coverage

import (
	"sort"

	"github.com/hitoshi/reviewmon/internal/model"
)

// Stats はレビューカバレッジの集計結果を表す。
// 同一入力からは常に同一の結果が得られる（隠れた蓄積状態を持たない）。
type Stats struct {
	// Missing は目標レビュー数に達していない投稿。ReviewCount昇順（安定）。
	Missing []*model.SubmissionRecord
	// NumAll はフィルタ後の対象投稿数。
	NumAll int
	// NumProposalsMissing はレビュー不足の投稿数。
	NumProposalsMissing int
	// NumReviewsMissing は不足しているレビューの総数。
	NumReviewsMissing int
	// NumTotalDesired は目標レビュー数の総和（DesiredReviews × NumAll）。
	NumTotalDesired int
	// CountInBin はレビュー数ごとの不足投稿数。添字b（0 <= b < 目標数）は
	// 「レビューがちょうどb件付いた不足投稿の数」。
	CountInBin []int
	// DesiredReviews は投稿1件あたりの目標レビュー数。
	DesiredReviews int
}

// Compute はカタログからカバレッジ統計を計算する。
// track一致かつtype非除外の投稿を対象に、目標レビュー数desiredに対する
// 不足投稿・不足レビュー数・ビン別件数を集計する。
// 入力カタログは変更しない。
func Compute(subs []*model.SubmissionRecord, desired int, track string, excludedTypes []string) *Stats {
	excluded := make(map[string]bool, len(excludedTypes))
	for _, t := range excludedTypes {
		excluded[t] = true
	}

	var all []*model.SubmissionRecord
	for _, sub := range subs {
		if sub.Track == track && !excluded[sub.Type] {
			all = append(all, sub)
		}
	}

	stats := &Stats{
		NumAll:          len(all),
		NumTotalDesired: desired * len(all),
		CountInBin:      make([]int, desired),
		DesiredReviews:  desired,
	}

	for _, sub := range all {
		if sub.ReviewCount < desired {
			stats.Missing = append(stats.Missing, sub)
		}
	}
	stats.NumProposalsMissing = len(stats.Missing)

	for b := 0; b < desired; b++ {
		for _, sub := range stats.Missing {
			if sub.ReviewCount == b {
				stats.CountInBin[b]++
			}
		}
		stats.NumReviewsMissing += stats.CountInBin[b] * (desired - b)
	}

	sort.SliceStable(stats.Missing, func(i, j int) bool {
		return stats.Missing[i].ReviewCount < stats.Missing[j].ReviewCount
	})

	return stats
}

// ProposalsDonePct はレビュー完了した投稿の割合（%）を返す。
// 対象投稿が0件の場合は未完了のものが存在しないため100を返す。
func (s *Stats) ProposalsDonePct() float64 {
	if s.NumAll == 0 {
		return 100
	}
	return 100 * (1 - float64(s.NumProposalsMissing)/float64(s.NumAll))
}

// ReviewsDonePct は完了したレビューの割合（%）を返す。
// 目標総数が0の場合は不足が存在しないため100を返す。
func (s *Stats) ReviewsDonePct() float64 {
	if s.NumTotalDesired == 0 {
		return 100
	}
	return 100 * (1 - float64(s.NumReviewsMissing)/float64(s.NumTotalDesired))
}
