package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session Store（外部IDプロバイダー）
	SessionStoreURL    string
	SessionStoreAPIKey string
	SessionTokenFile   string // アクセストークンのヒントキャッシュ。空なら永続化しない。

	// Auth
	AuthTimeout          time.Duration // プロバイダー呼び出し1回あたりのタイムアウト
	LookupMaxAttempts    int           // プロフィール参照の最大試行回数
	LookupInitialBackoff time.Duration // プロフィール参照リトライの初回遅延
	LookupMaxBackoff     time.Duration // プロフィール参照リトライの最大遅延

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionStoreURL = os.Getenv("SESSION_STORE_URL")
	if cfg.SessionStoreURL == "" {
		missing = append(missing, "SESSION_STORE_URL")
	}

	cfg.SessionStoreAPIKey = os.Getenv("SESSION_STORE_API_KEY")
	if cfg.SessionStoreAPIKey == "" {
		missing = append(missing, "SESSION_STORE_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionTokenFile = getEnvString("SESSION_TOKEN_FILE", "")
	cfg.AuthTimeout = getEnvDuration("AUTH_TIMEOUT", 10*time.Second)
	cfg.LookupMaxAttempts = getEnvInt("LOOKUP_MAX_ATTEMPTS", 3)
	cfg.LookupInitialBackoff = getEnvDuration("LOOKUP_INITIAL_BACKOFF", 200*time.Millisecond)
	cfg.LookupMaxBackoff = getEnvDuration("LOOKUP_MAX_BACKOFF", 2*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
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
