package model

import "fmt"

// ConfigError は設定の不備を表す。
// APIトークン未設定など、ネットワークアクセス前に検出される致命的エラー。
type ConfigError struct {
	Key    string // 問題のある設定キー
	Reason string // 不備の内容
}

// Error はerrorインターフェースを実装する。
func (e *ConfigError) Error() string {
	return fmt.Sprintf("設定エラー [%s]: %s", e.Key, e.Reason)
}

// FetchError はAPIエンドポイントからの非成功レスポンスを表す。
// ページネーション境界で吸収される回復可能なエラーであり、
// 部分的な取得結果とともに呼び出し元へ返される。
type FetchError struct {
	URL        string // リクエストしたURL
	StatusCode int    // HTTPステータスコード（ネットワークエラー時は0）
	Err        error  // 下位のエラー
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("フェッチ失敗 [%s]: ステータス %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("フェッチ失敗 [%s]: %v", e.URL, e.Err)
}

// Unwrap は下位のエラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError はAPIレコードのフィールドが期待した形式でないことを表す。
// データ品質の警告として扱い、該当レコードをスキップして処理を継続する。
type ParseError struct {
	Field string // 問題のあるフィールド名
	Value string // 実際の値
	Err   error  // 下位のエラー
}

// Error はerrorインターフェースを実装する。
func (e *ParseError) Error() string {
	return fmt.Sprintf("パース失敗 [%s=%q]: %v", e.Field, e.Value, e.Err)
}

// Unwrap は下位のエラーを返す。
func (e *ParseError) Unwrap() error {
	return e.Err
}
