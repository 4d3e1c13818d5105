// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// データベース設定
	DatabaseURL   string // PostgreSQL 接続文字列
	RunMigrations bool   // 起動時にマイグレーションを適用するか

	// セッション設定
	SessionSecret       string // セッションクッキー署名用の秘密鍵
	SessionMaxAgeMin    int    // セッションの絶対有効期限（分）
	SessionIdleMin      int    // 無操作タイムアウト（分）
	SessionRedisURL     string // セッション台帳用Redis接続URL（空なら無効）
	SessionCookieName   string // セッションクッキー名
	SessionCookieSecure bool   // Secure 属性を強制するか

	// ログ設定
	LogLevel string // debug, info, warn, error
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", true),

		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionMaxAgeMin:    getEnvAsInt("SESSION_MAX_AGE_MINUTES", 12*60),
		SessionIdleMin:      getEnvAsInt("SESSION_IDLE_MINUTES", 30),
		SessionRedisURL:     getEnv("SESSION_REDIS_URL", ""),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "da_session"),
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionMaxAgeMin <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_MINUTES must be positive")
	}
	if c.SessionIdleMin <= 0 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must be positive")
	}

	// ローカル開発では署名鍵は任意（起動時に警告のうえ開発用鍵を使う）
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in release mode")
		}
	}

	return nil
}

// SessionMaxAge はセッションの絶対有効期限を返します。
func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeMin) * time.Minute
}

// SessionIdleTimeout は無操作タイムアウトを返します。
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMin) * time.Minute
}

// AllowedOrigins はカンマ区切りのオリジン設定を配列にして返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// SecureCookies は Secure 属性付きクッキーを使うべきかを返します。
func (c *Config) SecureCookies() bool {
	return c.SessionCookieSecure || c.GinMode == "release"
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
