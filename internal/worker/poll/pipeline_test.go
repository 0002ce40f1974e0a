package poll

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/reviewmon/internal/catalog"
	"github.com/hitoshi/reviewmon/internal/pretalx"
	"github.com/hitoshi/reviewmon/internal/report"
	"github.com/hitoshi/reviewmon/internal/security"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// fakeCollector はメトリクス呼び出しを記録するテスト用コレクター。
type fakeCollector struct {
	mu           sync.Mutex
	cycleSuccess int
	cyclePartial int
	fetchFail    map[string]int
	parseFail    map[string]int
	httpStatus   []int
	latencies    int
	coverages    int
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		fetchFail: make(map[string]int),
		parseFail: make(map[string]int),
	}
}

func (f *fakeCollector) RecordCycleSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycleSuccess++
}

func (f *fakeCollector) RecordCyclePartial() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cyclePartial++
}

func (f *fakeCollector) RecordFetchFailure(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchFail[endpoint]++
}

func (f *fakeCollector) RecordParseFailure(endpoint string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if count > 0 {
		f.parseFail[endpoint] += count
	}
}

func (f *fakeCollector) RecordHTTPStatus(statusCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.httpStatus = append(f.httpStatus, statusCode)
}

func (f *fakeCollector) RecordCycleLatency(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latencies++
}

func (f *fakeCollector) RecordCoverage(int, int, float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coverages++
}

// fakeAPI は投稿・レビューエンドポイントを持つ最小限のpretalx APIを模す。
type fakeAPI struct {
	server       *httptest.Server
	reviewsError bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/events/ev/submissions/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"count":3,"next":null,"results":[
				{"code":"C","title":"Gamma","state":"submitted"}
			]}`)
			return
		}
		next := api.server.URL + "/api/events/ev/submissions/?page=2"
		fmt.Fprintf(w, `{"count":3,"next":%q,"results":[
			{"code":"A","title":"Alpha","state":"submitted"},
			{"code":"B","title":"Beta","state":"confirmed"}
		]}`, next)
	})
	mux.HandleFunc("/api/events/ev/reviews/", func(w http.ResponseWriter, r *http.Request) {
		if api.reviewsError {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"count":3,"next":null,"results":[
			{"score":"8","text":"good","submission":"A","user":"u1"},
			{"score":"7","text":"fine","submission":"A","user":"u2"},
			{"score":"6","text":"ok","submission":"B","user":"u1"}
		]}`)
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

// newTestPipeline はテスト用のパイプラインを構築する。
// コンソール出力が不要な場合はconsoleにnilを渡す。
func newTestPipeline(t *testing.T, api *fakeAPI, collector *fakeCollector, console io.Writer, outputPath string) *Pipeline {
	t.Helper()

	var logBuf bytes.Buffer
	logger := newTestLogger(&logBuf)

	client := pretalx.NewClient(api.server.Client(), logger, "test-token", api.server.URL, 1<<20)
	builder := catalog.NewBuilder(catalog.BuilderConfig{
		DefaultTrack: "JuliaCon",
		DefaultType:  "Talk",
		ReviewURLFor: func(code string) string {
			return client.OrgaReviewURL("ev", code)
		},
	}, logger)
	extractor := catalog.NewExtractor(logger)
	renderer := report.NewRenderer(security.NewContentSanitizer())
	store := report.NewStore()

	return NewPipeline(
		client,
		builder,
		extractor,
		renderer,
		store,
		collector,
		logger,
		console,
		Config{
			SubmissionsURL: client.SubmissionsURL("ev"),
			ReviewsURL:     client.ReviewsURL("ev"),
			DesiredReviews: 3,
			TargetTrack:    "JuliaCon",
			OutputPath:     outputPath,
		},
	)
}

func TestRunCycle_FullCycle(t *testing.T) {
	api := newFakeAPI(t)
	collector := newFakeCollector()
	var console bytes.Buffer
	outputPath := filepath.Join(t.TempDir(), "report.html")

	p := newTestPipeline(t, api, collector, &console, outputPath)

	result, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle がエラーを返した: %v", err)
	}
	if result.Partial {
		t.Error("Partial = true, want false")
	}

	// 投稿3件（ページ2枚分）、レビューはA:2件 B:1件 C:0件
	stats := result.Stats
	if stats.NumAll != 3 {
		t.Errorf("NumAll = %d, want 3", stats.NumAll)
	}
	if stats.NumProposalsMissing != 3 {
		t.Errorf("NumProposalsMissing = %d, want 3", stats.NumProposalsMissing)
	}
	// 不足 = 1(A) + 2(B) + 3(C) = 6
	if stats.NumReviewsMissing != 6 {
		t.Errorf("NumReviewsMissing = %d, want 6", stats.NumReviewsMissing)
	}

	// HTMLファイルが出力されている
	html, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("レポートファイルが出力されていない: %v", err)
	}
	if !strings.Contains(string(html), "Alpha") {
		t.Error("レポートに投稿タイトルが含まれるべき")
	}

	// スナップショットストアが更新されている
	snap, ok := p.store.Latest()
	if !ok {
		t.Fatal("スナップショットが設定されるべき")
	}
	if snap.Partial {
		t.Error("snapshot.Partial = true, want false")
	}

	// コンソールサマリーが出力されている
	if !strings.Contains(console.String(), "レビュー不足の投稿: 3 / 3") {
		t.Errorf("コンソールサマリーが出力されるべき:\n%s", console.String())
	}

	if collector.cycleSuccess != 1 || collector.cyclePartial != 0 {
		t.Errorf("成功サイクルの記録 = (success=%d, partial=%d), want (1, 0)",
			collector.cycleSuccess, collector.cyclePartial)
	}
	if collector.latencies != 1 || collector.coverages != 1 {
		t.Errorf("レイテンシ・カバレッジの記録 = (%d, %d), want (1, 1)",
			collector.latencies, collector.coverages)
	}
}

func TestRunCycle_NoConsole(t *testing.T) {
	// コンソール出力先なし（nil）でもサイクルはパニックせず完了する
	api := newFakeAPI(t)
	p := newTestPipeline(t, api, newFakeCollector(), nil, "")

	result, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle がエラーを返した: %v", err)
	}
	if result.Stats.NumAll != 3 {
		t.Errorf("NumAll = %d, want 3", result.Stats.NumAll)
	}
}

func TestRunCycle_FetchFailure_ContinuesAsPartial(t *testing.T) {
	api := newFakeAPI(t)
	api.reviewsError = true
	collector := newFakeCollector()
	var console bytes.Buffer

	p := newTestPipeline(t, api, collector, &console, "")

	result, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("フェッチ失敗でもサイクルは完了すべき: %v", err)
	}
	if !result.Partial {
		t.Error("Partial = false, want true")
	}

	// 投稿は取得済みなので統計は出る（レビューは全件0扱い）
	if result.Stats.NumAll != 3 {
		t.Errorf("NumAll = %d, want 3", result.Stats.NumAll)
	}
	if result.Stats.NumReviewsMissing != 9 {
		t.Errorf("NumReviewsMissing = %d, want 9", result.Stats.NumReviewsMissing)
	}

	snap, ok := p.store.Latest()
	if !ok {
		t.Fatal("部分サイクルでもスナップショットは設定されるべき")
	}
	if !snap.Partial {
		t.Error("snapshot.Partial = false, want true")
	}
	if !strings.Contains(string(snap.HTML), "incomplete data") {
		t.Error("部分レポートには不完全データの警告が含まれるべき")
	}

	if collector.cyclePartial != 1 || collector.cycleSuccess != 0 {
		t.Errorf("部分サイクルの記録 = (success=%d, partial=%d), want (0, 1)",
			collector.cycleSuccess, collector.cyclePartial)
	}
	if collector.fetchFail["reviews"] != 1 {
		t.Errorf("fetchFail[reviews] = %d, want 1", collector.fetchFail["reviews"])
	}
	if len(collector.httpStatus) != 1 || collector.httpStatus[0] != http.StatusInternalServerError {
		t.Errorf("httpStatus = %v, want [500]", collector.httpStatus)
	}
}

func TestRunCycle_ContextCancelled(t *testing.T) {
	api := newFakeAPI(t)
	p := newTestPipeline(t, api, newFakeCollector(), nil, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.RunCycle(ctx); err == nil {
		t.Error("キャンセル済みコンテキストではエラーを返すべき")
	}
}

func TestRunCycle_Idempotent(t *testing.T) {
	// 同一データへの2回のサイクルは同一の統計を生む（サイクル間の状態持ち越しなし）
	api := newFakeAPI(t)
	p := newTestPipeline(t, api, newFakeCollector(), nil, "")

	first, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("1回目のRunCycle がエラーを返した: %v", err)
	}
	second, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("2回目のRunCycle がエラーを返した: %v", err)
	}

	if !reflect.DeepEqual(first.Stats, second.Stats) {
		t.Errorf("2回のサイクルの統計が一致しない:\nfirst = %+v\nsecond = %+v",
			first.Stats, second.Stats)
	}
}
