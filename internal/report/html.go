// Package report はカバレッジ統計のレンダリングと最新レポートの保持を提供する。
// HTMLレポート、コンソールサマリー、HTTP配信用のスナップショットストアを含む。
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hitoshi/reviewmon/internal/coverage"
	"github.com/hitoshi/reviewmon/internal/security"
)

// reportTemplate はHTMLレポートのテンプレート。
// 列構成（投稿リンク・コード・レビュー数）は固定のスキーマ。
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="300">
<title>Review Coverage</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 0.3em 0.8em; text-align: left; }
th { background: #eee; }
.partial { color: #b00; font-weight: bold; }
details { margin-top: 0.3em; }
</style>
</head>
<body>
<h1>Review Coverage</h1>
{{if .Partial}}<p class="partial">Warning: this report was built from incomplete data (a page fetch failed mid-cycle).</p>{{end}}
<table>
<tr><th>Submission</th><th>Code</th><th>n_reviews</th></tr>
{{range .Rows}}<tr><td><a href="{{.ReviewURL}}">{{.Title}}</a>{{if .ReviewHTML}}<details><summary>reviews</summary>{{.ReviewHTML}}</details>{{end}}</td><td>{{.Code}}</td><td>{{.ReviewCount}}</td></tr>
{{end}}</table>
<p>{{printf "%.1f" .ProposalsDonePct}}&#37; of proposals are fully reviewed, {{printf "%.1f" .ReviewsDonePct}}&#37; of reviews are done.</p>
<p>Last update: {{.UpdatedAt}}</p>
</body>
</html>
`

// row はテンプレートに渡す1投稿分の表示データ。
type row struct {
	Title       string
	ReviewURL   string
	Code        string
	ReviewCount int
	// ReviewHTML はサニタイズ済みのレビュー本文。埋め込み前に
	// bluemondayを通しているためtemplate.HTMLとして扱ってよい。
	ReviewHTML template.HTML
}

// templateData はテンプレート全体に渡すデータ。
type templateData struct {
	Partial          bool
	Rows             []row
	ProposalsDonePct float64
	ReviewsDonePct   float64
	UpdatedAt        string
}

// Renderer はカバレッジ統計をHTMLドキュメントへ変換する。
type Renderer struct {
	sanitizer security.ContentSanitizerService
	tmpl      *template.Template
}

// NewRenderer はRendererの新しいインスタンスを生成する。
func NewRenderer(sanitizer security.ContentSanitizerService) *Renderer {
	return &Renderer{
		sanitizer: sanitizer,
		tmpl:      template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// RenderHTML はカバレッジ統計をHTMLレポートとしてレンダリングする。
// 不足投稿ごとに（レビューURLへのリンク付きタイトル・コード・レビュー数）の行を
// 出力し、サマリー段落と最終更新時刻を付ける。partialが真の場合は
// 不完全データの警告を表示する。
func (r *Renderer) RenderHTML(stats *coverage.Stats, updatedAt time.Time, partial bool) ([]byte, error) {
	data := templateData{
		Partial:          partial,
		ProposalsDonePct: stats.ProposalsDonePct(),
		ReviewsDonePct:   stats.ReviewsDonePct(),
		UpdatedAt:        updatedAt.Format("2006-01-02 15:04:05 MST"),
	}

	data.Rows = make([]row, 0, len(stats.Missing))
	for _, sub := range stats.Missing {
		data.Rows = append(data.Rows, row{
			Title:       sub.Title,
			ReviewURL:   sub.ReviewURL,
			Code:        sub.Code,
			ReviewCount: sub.ReviewCount,
			ReviewHTML:  r.sanitizeReviewText(sub.ReviewText),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("レポートテンプレートの実行に失敗しました: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeReviewText はレビュー本文をHTML埋め込み用にサニタイズする。
// 改行は段落の区切りとして<br>に変換してからポリシーを適用する。
func (r *Renderer) sanitizeReviewText(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	withBreaks := strings.ReplaceAll(text, "\n", "<br>\n")
	return template.HTML(r.sanitizer.Sanitize(withBreaks))
}
