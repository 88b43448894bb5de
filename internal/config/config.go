// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv は設定ファイルのパスを指定する環境変数。
const PathEnv = "ARTICLEFEED_CONFIG"

// セッションの保存先
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
// 設定ファイルを指定した場合も環境変数が優先される。
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	DevServer DevServerConfig `yaml:"devserver"`

	DatabaseURL     string `yaml:"database_url"     env:"DATABASE_URL"`
	LogLevel        string `yaml:"log_level"        env:"LOG_LEVEL"        env-default:"info"`
	MetricsTextfile string `yaml:"metrics_textfile" env:"METRICS_TEXTFILE"`
	PageSize        int    `yaml:"page_size"        env:"PAGE_SIZE"        env-default:"10"`
}

// APIConfig はバックエンドへの接続設定。
// BaseURLとPrefixが空の場合はビルド時の既定値を使う。
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"         env:"API_BASE_URL"`
	Prefix         string        `yaml:"prefix"           env:"API_PREFIX"`
	Timeout        time.Duration `yaml:"timeout"          env:"HTTP_TIMEOUT"     env-default:"30s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"   env:"RATE_LIMIT_RPS"   env-default:"0"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"1"`
	UserAgent      string        `yaml:"user_agent"       env:"API_USER_AGENT"`
}

// SessionConfig はセッションの永続化設定。
type SessionConfig struct {
	Backend    string `yaml:"backend"    env:"SESSION_BACKEND"    env-default:"file"`
	File       string `yaml:"file"       env:"SESSION_FILE"`
	Passphrase string `yaml:"passphrase" env:"SESSION_PASSPHRASE"`
	Namespace  string `yaml:"namespace"  env:"SESSION_NAMESPACE"  env-default:"default"`
}

// DevServerConfig は開発用バックエンドの設定。
type DevServerConfig struct {
	Addr       string        `yaml:"addr"        env:"DEVSERVER_ADDR"        env-default:":8080"`
	Secret     string        `yaml:"secret"      env:"DEVSERVER_SECRET"`
	AccessTTL  time.Duration `yaml:"access_ttl"  env:"DEVSERVER_ACCESS_TTL"  env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"DEVSERVER_REFRESH_TTL" env-default:"168h"`
	// RateLimit は1分あたりのリクエスト上限（クライアント単位）。
	RateLimit int `yaml:"rate_limit" env:"DEVSERVER_RATE_LIMIT" env-default:"120"`
	// AutoVerify が有効な場合、登録直後のユーザーをメール確認済みとして扱う。
	AutoVerify bool `yaml:"auto_verify" env:"DEVSERVER_AUTO_VERIFY" env-default:"false"`
	// CORSOrigin はブラウザからの呼び出しを許可するオリジン。空の場合CORSヘッダーを付与しない。
	CORSOrigin string `yaml:"cors_origin" env:"DEVSERVER_CORS_ORIGIN"`
}

// Load は環境変数（およびARTICLEFEED_CONFIGで指定されたYAMLファイル）からConfigを読み込む。
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv(PathEnv); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.Session.Backend == BackendFile && cfg.Session.File == "" {
		cfg.Session.File = defaultSessionFile()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string

	switch c.Session.Backend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of memory, file, postgres: %q", c.Session.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %q", c.LogLevel)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be > 0")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if c.API.RateLimitRPS > 0 && c.API.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0")
	}
	return nil
}

// ValidateDevServer は開発用バックエンドの起動に必要な設定を検証する。
func (c *Config) ValidateDevServer() error {
	var missing []string
	if c.DevServer.Secret == "" {
		missing = append(missing, "DEVSERVER_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	if c.DevServer.AccessTTL <= 0 || c.DevServer.RefreshTTL <= 0 {
		return fmt.Errorf("DEVSERVER_ACCESS_TTL and DEVSERVER_REFRESH_TTL must be > 0")
	}
	if c.DevServer.RateLimit <= 0 {
		return fmt.Errorf("DEVSERVER_RATE_LIMIT must be > 0")
	}
	return nil
}

// defaultSessionFile はユーザー設定ディレクトリ配下のセッションファイルパスを返す。
func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "articlefeed", "session.json")
}
