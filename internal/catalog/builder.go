// Package catalog は生のAPIレコードから投稿カタログを構築する。
// 投稿の正規化・フィルタリング、レビューの抽出、レビューと投稿の結合を含む。
package catalog

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/hitoshi/reviewmon/internal/model"
)

// localizedLabel は多言語ラベルオブジェクトを表す。
// 英語ラベルのみ使用する。
type localizedLabel struct {
	EN string `json:"en"`
}

// submissionDTO は投稿エンドポイントの生レコードを表す。
// 欠落しうるフィールドはポインタで受ける。
type submissionDTO struct {
	Code           string          `json:"code"`
	Title          string          `json:"title"`
	State          string          `json:"state"`
	PendingState   *string         `json:"pending_state"`
	Track          *localizedLabel `json:"track"`
	SubmissionType *localizedLabel `json:"submission_type"`
}

// BuilderConfig はカタログ構築の設定を保持する。
type BuilderConfig struct {
	// DefaultTrack はtrack未設定時のフォールバックラベル。
	DefaultTrack string
	// DefaultType はsubmission_type未設定時のフォールバックラベル。
	DefaultType string
	// ReviewURLFor は投稿コードから主催者向けレビュー画面URLを構築する。
	ReviewURLFor func(code string) string
}

// Builder は生の投稿レコードをSubmissionRecordのカタログへ正規化する。
type Builder struct {
	cfg    BuilderConfig
	logger *slog.Logger
}

// NewBuilder はBuilderの新しいインスタンスを生成する。
func NewBuilder(cfg BuilderConfig, logger *slog.Logger) *Builder {
	return &Builder{cfg: cfg, logger: logger}
}

// BuildCatalog は生レコード列からタイトル昇順のカタログを構築する。
// 取り込み規則:
//   - デコードできないレコードはParseErrorとして警告ログを出しスキップする
//   - 状態が取り込み対象（submitted/accepted/rejected/confirmed）以外の
//     レコードはスキップする
//   - pending_stateが未設定の場合はstateで補完する
//   - track/submission_typeが未設定の場合はデフォルトラベルで補完する
//
// 戻り値の2番目はパース失敗によりスキップしたレコード数。
// ソートは安定で、同一タイトルは入力順を保つ。
func (b *Builder) BuildCatalog(raw []json.RawMessage) ([]*model.SubmissionRecord, int) {
	records := make([]*model.SubmissionRecord, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	var skipped int

	for _, item := range raw {
		var dto submissionDTO
		if err := json.Unmarshal(item, &dto); err != nil {
			perr := &model.ParseError{Field: "submission", Value: truncateForLog(item), Err: err}
			b.logger.Warn("投稿レコードのデコードに失敗したためスキップします",
				slog.String("error", perr.Error()),
			)
			skipped++
			continue
		}

		state := model.SubmissionState(dto.State)
		if !model.IsCountedState(state) {
			continue
		}

		pendingState := state
		if dto.PendingState != nil && *dto.PendingState != "" {
			pendingState = model.SubmissionState(*dto.PendingState)
		}

		track := b.cfg.DefaultTrack
		if dto.Track != nil && dto.Track.EN != "" {
			track = dto.Track.EN
		}

		subType := b.cfg.DefaultType
		if dto.SubmissionType != nil && dto.SubmissionType.EN != "" {
			subType = dto.SubmissionType.EN
		}

		// 正常なカタログにコードの重複はないはず。結合は先勝ちのため警告を残す
		if seen[dto.Code] {
			b.logger.Warn("投稿コードが重複しています",
				slog.String("code", dto.Code),
			)
		}
		seen[dto.Code] = true

		var reviewURL string
		if b.cfg.ReviewURLFor != nil {
			reviewURL = b.cfg.ReviewURLFor(dto.Code)
		}

		records = append(records, &model.SubmissionRecord{
			Code:         dto.Code,
			ReviewURL:    reviewURL,
			Title:        dto.Title,
			Track:        track,
			Type:         subType,
			State:        state,
			PendingState: pendingState,
			ReviewCount:  0,
			ReviewText:   "",
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Title < records[j].Title
	})

	return records, skipped
}

// truncateForLog はログ出力用に生レコードを短く切り詰める。
func truncateForLog(raw json.RawMessage) string {
	const maxLen = 200
	s := string(raw)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
