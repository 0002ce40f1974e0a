// Package config はアプリケーション全体の設定を提供する。
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/reviewmon/internal/model"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Pretalx API
	Token   string
	BaseURL string
	Event   string

	// Coverage
	DesiredReviews int
	TargetTrack    string
	DefaultTrack   string
	DefaultType    string
	ExcludedTypes  []string

	// Poll
	PollInterval time.Duration
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Report
	OutputPath string

	// Server
	ServerPort string

	// Logging
	LogFile string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（未存在は無視）。
// APIトークンが未設定の場合はネットワークアクセス前にConfigErrorを返す。
func Load() (*Config, error) {
	// .envは任意。存在しない場合のエラーは握りつぶす
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Token = os.Getenv("PRETALX_TOKEN")
	if cfg.Token == "" {
		return nil, &model.ConfigError{Key: "PRETALX_TOKEN", Reason: "APIトークンが設定されていません"}
	}

	cfg.Event = os.Getenv("PRETALX_EVENT")
	if cfg.Event == "" {
		return nil, &model.ConfigError{Key: "PRETALX_EVENT", Reason: "イベントスラッグが設定されていません"}
	}

	cfg.BaseURL = getEnvString("PRETALX_BASE_URL", "https://pretalx.com")
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cfg.DesiredReviews = getEnvInt("DESIRED_REVIEWS", 3)
	if cfg.DesiredReviews < 1 {
		return nil, &model.ConfigError{Key: "DESIRED_REVIEWS", Reason: "目標レビュー数は1以上で指定してください"}
	}

	cfg.TargetTrack = getEnvString("TARGET_TRACK", "JuliaCon")
	cfg.DefaultTrack = getEnvString("DEFAULT_TRACK", "JuliaCon")
	cfg.DefaultType = getEnvString("DEFAULT_TYPE", "Talk")
	cfg.ExcludedTypes = splitCommaList(os.Getenv("EXCLUDED_TYPES"))

	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 15*time.Minute)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)

	cfg.OutputPath = getEnvString("OUTPUT_PATH", "review_status.html")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.LogFile = getEnvString("LOG_FILE", "")

	return cfg, nil
}

// splitCommaList はカンマ区切りリストを分割する。
// 空要素と前後の空白は取り除く。
func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
