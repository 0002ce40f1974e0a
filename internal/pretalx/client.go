// Package pretalx はpretalx系カンファレンス管理APIのクライアントを提供する。
// ページフェッチとページネーション走査を含む。
package pretalx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/reviewmon/internal/model"
)

// PageFetcher は1ページ分のフェッチを行うインターフェース。
// テスト時にモックに差し替え可能。
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*Page, error)
}

// Client はpretalx APIのクライアント。
// 全リクエストにトークン認証ヘッダーを付与する。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	token       string
	baseURL     string
	maxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにはsecurityパッケージのSSRF防止クライアントを渡すことを想定している。
func NewClient(httpClient *http.Client, logger *slog.Logger, token, baseURL string, maxBodySize int64) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		token:       token,
		baseURL:     baseURL,
		maxBodySize: maxBodySize,
	}
}

// SubmissionsURL は指定イベントの投稿一覧エンドポイントのURLを返す。
func (c *Client) SubmissionsURL(event string) string {
	return fmt.Sprintf("%s/api/events/%s/submissions/", c.baseURL, event)
}

// ReviewsURL は指定イベントのレビュー一覧エンドポイントのURLを返す。
func (c *Client) ReviewsURL(event string) string {
	return fmt.Sprintf("%s/api/events/%s/reviews/", c.baseURL, event)
}

// OrgaReviewURL は指定投稿の主催者向けレビュー画面のURLを返す。
func (c *Client) OrgaReviewURL(event, code string) string {
	return fmt.Sprintf("%s/orga/event/%s/submissions/%s/reviews/", c.baseURL, event, code)
}

// FetchPage は指定URLから1ページ分を取得してパースする。
// 非2xxレスポンスとネットワークエラーはmodel.FetchErrorとして返す。
// 呼び出し元（ページネーション層）がエラーを吸収し、部分結果として扱う。
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	// pretalxのAPIトークン認証ヘッダー
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Reviewmon/1.0 Review Coverage Monitor")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIリクエストに失敗しました",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("APIがエラーステータスを返しました",
			slog.String("url", pageURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &model.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		c.logger.Error("ページレスポンスのパースに失敗しました",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	return &page, nil
}
