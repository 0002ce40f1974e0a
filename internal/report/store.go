package report

import (
	"sync"
	"time"

	"github.com/hitoshi/reviewmon/internal/coverage"
)

// Snapshot はあるポーリングサイクルで生成されたレポート一式を表す。
type Snapshot struct {
	// HTML はレンダリング済みのレポートドキュメント。
	HTML []byte
	// Stats はサイクルのカバレッジ統計。
	Stats *coverage.Stats
	// UpdatedAt はレポートの生成時刻。
	UpdatedAt time.Time
	// Partial はサイクル途中でフェッチに失敗し、不完全なデータから
	// 生成されたことを示す。
	Partial bool
}

// Store は最新のレポートスナップショットを保持する。
// ワーカーが書き込み、HTTPハンドラーが読み出す。
// サイクル間で共有されるのはこの公開専用スナップショットのみで、
// パイプライン内部のレコードがサイクルを跨ぐことはない。
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore() *Store {
	return &Store{}
}

// Set は最新スナップショットを差し替える。
// HTMLバイト列はコピーして保持するため、呼び出し側のバッファ再利用に
// 影響されない。
func (s *Store) Set(html []byte, stats *coverage.Stats, updatedAt time.Time, partial bool) {
	htmlCopy := make([]byte, len(html))
	copy(htmlCopy, html)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &Snapshot{
		HTML:      htmlCopy,
		Stats:     stats,
		UpdatedAt: updatedAt,
		Partial:   partial,
	}
}

// Latest は最新スナップショットを返す。
// まだ1サイクルも完了していない場合は(nil, false)を返す。
func (s *Store) Latest() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	return s.snapshot, true
}
