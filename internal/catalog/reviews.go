package catalog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/hitoshi/reviewmon/internal/model"
)

// reviewDTO はレビューエンドポイントの生レコードを表す。
// scoreは数値文字列またはnullで届く。
type reviewDTO struct {
	Score      *string        `json:"score"`
	Text       string         `json:"text"`
	Submission string         `json:"submission"`
	User       model.OpaqueID `json:"user"`
}

// Extractor は生のレビューレコードをReviewRecordへ正規化する。
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor はExtractorの新しいインスタンスを生成する。
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractReviews は生レコード列からレビューのリストを構築する。
// 取り込み規則:
//   - nullレコードはスキップする
//   - scoreがnullのレコードは未確定レビューとしてスキップする（警告なし）
//   - scoreが数値文字列としてパースできないレコードはParseErrorとして
//     警告ログを出しスキップする（データ品質の問題であり処理は継続する）
//
// 戻り値の2番目はパース失敗によりスキップしたレコード数。
func (e *Extractor) ExtractReviews(raw []json.RawMessage) ([]model.ReviewRecord, int) {
	reviews := make([]model.ReviewRecord, 0, len(raw))
	var skipped int

	for _, item := range raw {
		if isJSONNull(item) {
			continue
		}

		var dto reviewDTO
		if err := json.Unmarshal(item, &dto); err != nil {
			perr := &model.ParseError{Field: "review", Value: truncateForLog(item), Err: err}
			e.logger.Warn("レビューレコードのデコードに失敗したためスキップします",
				slog.String("error", perr.Error()),
			)
			skipped++
			continue
		}

		// scoreがnullのレビューは未確定。件数にも本文にも寄与しない
		if dto.Score == nil {
			continue
		}

		score, err := strconv.ParseFloat(*dto.Score, 64)
		if err != nil {
			perr := &model.ParseError{Field: "score", Value: *dto.Score, Err: err}
			e.logger.Warn("レビュースコアが数値として解釈できないためスキップします",
				slog.String("submission", dto.Submission),
				slog.String("error", perr.Error()),
			)
			skipped++
			continue
		}

		reviews = append(reviews, model.ReviewRecord{
			Score:          score,
			Text:           dto.Text,
			SubmissionCode: dto.Submission,
			ReviewerID:     dto.User,
		})
	}

	return reviews, skipped
}

// isJSONNull は生レコードがJSONのnullリテラルかを返す。
func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
