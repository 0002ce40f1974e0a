// Package model はドメインモデルを定義する。
package model

// SubmissionState は投稿の状態を表す。
type SubmissionState string

const (
	// StateSubmitted は投稿済みの状態。
	StateSubmitted SubmissionState = "submitted"
	// StateAccepted は採択済みの状態。
	StateAccepted SubmissionState = "accepted"
	// StateRejected は不採択の状態。
	StateRejected SubmissionState = "rejected"
	// StateConfirmed は発表者が採択を承諾した状態。
	StateConfirmed SubmissionState = "confirmed"
)

// countedStates はレビュー対象としてカタログに取り込む状態の集合。
// withdrawn等これ以外の状態の投稿は取り込み時に除外される。
var countedStates = map[SubmissionState]bool{
	StateSubmitted: true,
	StateAccepted:  true,
	StateRejected:  true,
	StateConfirmed: true,
}

// IsCountedState は状態がカタログ取り込み対象かを返す。
func IsCountedState(state SubmissionState) bool {
	return countedStates[state]
}

// SubmissionRecord はカンファレンスへの投稿1件を表す。
// 1回のポーリングサイクルごとにAPIレスポンスから構築され、
// サイクルを跨いで保持されることはない。
// ReviewCountとReviewTextのみレビュー集計時に更新される。
type SubmissionRecord struct {
	// Code は投稿の一意な識別子。レビューとの結合キー。
	Code string
	// ReviewURL は主催者向けレビュー画面へのリンク。
	ReviewURL string
	// Title は投稿タイトル。
	Title string
	// Track は投稿のトラック。trackが未設定の場合はデフォルトラベル。
	Track string
	// Type は投稿種別。submission_typeが未設定の場合はデフォルトラベル。
	Type string
	// State は投稿の確定状態。
	State SubmissionState
	// PendingState は暫定状態。pending_stateが未設定の場合はStateと同値。
	PendingState SubmissionState
	// ReviewCount はこの投稿に紐づいたレビュー数。
	ReviewCount int
	// ReviewText は紐づいた全レビュー本文の連結（各レビュー末尾に改行）。
	ReviewText string
}
