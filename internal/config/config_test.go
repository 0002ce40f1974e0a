package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hitoshi/reviewmon/internal/model"
)

// setRequiredEnv は必須の環境変数を設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PRETALX_TOKEN", "test-token")
	t.Setenv("PRETALX_EVENT", "juliacon2026")
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("PRETALX_TOKEN", "")
	t.Setenv("PRETALX_EVENT", "juliacon2026")

	_, err := Load()
	if err == nil {
		t.Fatal("トークン未設定時はエラーを返すべき")
	}

	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("エラー型 = %T, want *model.ConfigError", err)
	}
	if cfgErr.Key != "PRETALX_TOKEN" {
		t.Errorf("ConfigError.Key = %q, want PRETALX_TOKEN", cfgErr.Key)
	}
}

func TestLoad_MissingEvent(t *testing.T) {
	t.Setenv("PRETALX_TOKEN", "test-token")
	t.Setenv("PRETALX_EVENT", "")

	_, err := Load()
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("エラー型 = %T, want *model.ConfigError", err)
	}
	if cfgErr.Key != "PRETALX_EVENT" {
		t.Errorf("ConfigError.Key = %q, want PRETALX_EVENT", cfgErr.Key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRETALX_BASE_URL", "")
	t.Setenv("DESIRED_REVIEWS", "")
	t.Setenv("TARGET_TRACK", "")
	t.Setenv("DEFAULT_TRACK", "")
	t.Setenv("DEFAULT_TYPE", "")
	t.Setenv("EXCLUDED_TYPES", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("FETCH_TIMEOUT", "")
	t.Setenv("FETCH_MAX_SIZE", "")
	t.Setenv("OUTPUT_PATH", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}

	if cfg.BaseURL != "https://pretalx.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DesiredReviews != 3 {
		t.Errorf("DesiredReviews = %d, want 3", cfg.DesiredReviews)
	}
	if cfg.TargetTrack != "JuliaCon" {
		t.Errorf("TargetTrack = %q, want JuliaCon", cfg.TargetTrack)
	}
	if cfg.DefaultTrack != "JuliaCon" {
		t.Errorf("DefaultTrack = %q, want JuliaCon", cfg.DefaultTrack)
	}
	if cfg.DefaultType != "Talk" {
		t.Errorf("DefaultType = %q, want Talk", cfg.DefaultType)
	}
	if cfg.ExcludedTypes != nil {
		t.Errorf("ExcludedTypes = %v, want nil", cfg.ExcludedTypes)
	}
	if cfg.PollInterval != 15*time.Minute {
		t.Errorf("PollInterval = %v, want 15m", cfg.PollInterval)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.FetchMaxSize != 5242880 {
		t.Errorf("FetchMaxSize = %d, want 5242880", cfg.FetchMaxSize)
	}
	if cfg.OutputPath != "review_status.html" {
		t.Errorf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRETALX_BASE_URL", "https://cfp.example.org/")
	t.Setenv("DESIRED_REVIEWS", "5")
	t.Setenv("TARGET_TRACK", "MyTrack")
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}

	// 末尾スラッシュはURL組み立て時の二重スラッシュを防ぐため除去される
	if cfg.BaseURL != "https://cfp.example.org" {
		t.Errorf("BaseURL = %q, want 末尾スラッシュなし", cfg.BaseURL)
	}
	if cfg.DesiredReviews != 5 {
		t.Errorf("DesiredReviews = %d, want 5", cfg.DesiredReviews)
	}
	if cfg.TargetTrack != "MyTrack" {
		t.Errorf("TargetTrack = %q, want MyTrack", cfg.TargetTrack)
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want 1m", cfg.PollInterval)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
}

func TestLoad_ExcludedTypesParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXCLUDED_TYPES", " Break, Keynote ,,Poster ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}

	want := []string{"Break", "Keynote", "Poster"}
	if !reflect.DeepEqual(cfg.ExcludedTypes, want) {
		t.Errorf("ExcludedTypes = %v, want %v", cfg.ExcludedTypes, want)
	}
}

func TestLoad_InvalidDesiredReviews(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DESIRED_REVIEWS", "0")

	_, err := Load()
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("エラー型 = %T, want *model.ConfigError", err)
	}
	if cfgErr.Key != "DESIRED_REVIEWS" {
		t.Errorf("ConfigError.Key = %q, want DESIRED_REVIEWS", cfgErr.Key)
	}
}

func TestLoad_MalformedNumberFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DESIRED_REVIEWS", "three")
	t.Setenv("POLL_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if cfg.DesiredReviews != 3 {
		t.Errorf("DesiredReviews = %d, want デフォルト3", cfg.DesiredReviews)
	}
	if cfg.PollInterval != 15*time.Minute {
		t.Errorf("PollInterval = %v, want デフォルト15m", cfg.PollInterval)
	}
}
