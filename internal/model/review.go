package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReviewRecord は投稿に対するレビュー1件を表す。
// scoreがnullのレビューはこの型が構築される前に除外されるため、
// スコア未確定のレコードは存在しない。
type ReviewRecord struct {
	// Score はレビューの評点。
	Score float64
	// Text はレビュー本文。空文字列の場合もある。
	Text string
	// SubmissionCode は対象投稿のコード。カタログに存在しないコードを
	// 参照する場合もある（トークン保持者自身の投稿はレビュー取得に
	// 含まれないため。エラーではない）。
	SubmissionCode string
	// ReviewerID はレビュアーの識別子。内容は解釈しない。
	ReviewerID OpaqueID
}

// OpaqueID はJSON上で文字列にも数値にもなりうる不透明な識別子。
// サーバーのバージョンによってuserフィールドの型が異なるため、
// どちらの形でも受け付けて文字列として保持する。
type OpaqueID string

// UnmarshalJSON はJSON文字列・数値の両方をOpaqueIDとして受け付ける。
func (id *OpaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OpaqueID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("識別子のデコードに失敗しました: %w", err)
	}
	*id = OpaqueID(n.String())
	return nil
}
