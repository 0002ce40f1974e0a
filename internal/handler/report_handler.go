// Package handler はレポートサーバーのHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/reviewmon/internal/report"
)

// ReportHandler は最新のレポートスナップショットを配信する。
type ReportHandler struct {
	store *report.Store
}

// NewReportHandler はReportHandlerの新しいインスタンスを生成する。
func NewReportHandler(store *report.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

// ServeHTML は最新のHTMLレポートを返す。
// まだ1サイクルも完了していない場合は503を返す。
func (h *ReportHandler) ServeHTML(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.store.Latest()
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "report not ready: no poll cycle has completed yet")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.HTML)
}

// missingEntry はJSONレスポンスの不足投稿1件分。
type missingEntry struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	ReviewURL string `json:"review_url"`
	NReviews  int    `json:"n_reviews"`
}

// coverageResponse は/api/coverageのレスポンスボディ。
type coverageResponse struct {
	Partial           bool           `json:"partial"`
	UpdatedAt         time.Time      `json:"updated_at"`
	NAll              int            `json:"n_all"`
	NProposalsMissing int            `json:"n_proposals_missing"`
	NReviewsMissing   int            `json:"n_reviews_missing"`
	NTotalDesired     int            `json:"n_total_desired"`
	CountInBin        []int          `json:"count_in_bin"`
	ProposalsDonePct  float64        `json:"proposals_done_pct"`
	ReviewsDonePct    float64        `json:"reviews_done_pct"`
	Missing           []missingEntry `json:"missing"`
}

// ServeStats は最新のカバレッジ統計をJSONで返す。
func (h *ReportHandler) ServeStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.store.Latest()
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "report not ready: no poll cycle has completed yet")
		return
	}

	stats := snap.Stats
	resp := coverageResponse{
		Partial:           snap.Partial,
		UpdatedAt:         snap.UpdatedAt,
		NAll:              stats.NumAll,
		NProposalsMissing: stats.NumProposalsMissing,
		NReviewsMissing:   stats.NumReviewsMissing,
		NTotalDesired:     stats.NumTotalDesired,
		CountInBin:        stats.CountInBin,
		ProposalsDonePct:  stats.ProposalsDonePct(),
		ReviewsDonePct:    stats.ReviewsDonePct(),
		Missing:           make([]missingEntry, 0, len(stats.Missing)),
	}
	for _, sub := range stats.Missing {
		resp.Missing = append(resp.Missing, missingEntry{
			Code:      sub.Code,
			Title:     sub.Title,
			ReviewURL: sub.ReviewURL,
			NReviews:  sub.ReviewCount,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Health はヘルスチェックエンドポイント。
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// writeJSONError はJSON形式のエラーレスポンスを書き出す。
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
