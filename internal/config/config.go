package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Configはアプリ全体の設定
type Config struct {
	Env string // development / production

	// 「今日」を決めるタイムゾーン（期限の日数計算に使う）
	Location *time.Location

	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Notify    NotifyConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	AppURL          string // メール内リンクに使う
	CookieSecure    bool
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string // postgres / mysql / sqlite
	URL      string // DATABASE_URL（sqliteならファイルパス）
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Debug    bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string // bcrypt。あればこちらを優先
	TokenTTL          time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Configured はSMTP送信に必要な値が揃っているか
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

type NotifyConfig struct {
	DefaultRecipients []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

type LoggingConfig struct {
	Level string
	JSON  bool
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Loadは .env → 設定ファイル → 環境変数 の順に読む（後勝ち）。
func Load(configFile string) (Config, error) {
	// .envは無くてもよい
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	loc, err := time.LoadLocation(v.GetString("app_timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	cfg := Config{
		Env:      v.GetString("app_env"),
		Location: loc,
		Server: ServerConfig{
			Port:            v.GetInt("port"),
			AppURL:          strings.TrimRight(v.GetString("app_url"), "/"),
			CookieSecure:    v.GetBool("cookie_secure"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("db_driver")),
			URL:             v.GetString("database_url"),
			Host:            v.GetString("postgres_host"),
			Port:            v.GetInt("postgres_port"),
			User:            v.GetString("postgres_user"),
			Password:        v.GetString("postgres_password"),
			Name:            v.GetString("postgres_db"),
			SSLMode:         v.GetString("postgres_sslmode"),
			Debug:           v.GetBool("db_debug"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		Auth: AuthConfig{
			JWTSecret:         v.GetString("jwt_secret"),
			AdminPassword:     v.GetString("admin_password"),
			AdminPasswordHash: v.GetString("admin_password_hash"),
			TokenTTL:          v.GetDuration("admin_token_ttl"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp_host"),
			Port:     v.GetInt("smtp_port"),
			User:     v.GetString("smtp_user"),
			Password: v.GetString("smtp_pass"),
			From:     v.GetString("smtp_from"),
			Timeout:  v.GetDuration("smtp_timeout"),
		},
		Notify: NotifyConfig{
			DefaultRecipients: ParseRecipients(v.GetString("notify_default_recipients")),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis_enabled"),
			Host:     v.GetString("redis_host"),
			Port:     v.GetInt("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Scheduler: SchedulerConfig{
			Enabled:  v.GetBool("scheduler_enabled"),
			Interval: v.GetDuration("sweep_interval"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("log_level"),
			JSON:  v.GetBool("log_json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("app_timezone", "Local")
	v.SetDefault("port", 8080)
	v.SetDefault("app_url", "http://localhost:8080")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("shutdown_timeout", 15*time.Second)

	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "postgres")
	v.SetDefault("postgres_db", "inventory")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", time.Hour)

	v.SetDefault("admin_token_ttl", 24*time.Hour)

	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_from", "noreply@inventory.local")
	v.SetDefault("smtp_timeout", 15*time.Second)

	v.SetDefault("redis_enabled", false)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_db", 0)

	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("sweep_interval", time.Hour)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// 必須チェック
func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be one of postgres, mysql, sqlite: got %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("PORT must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be positive")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Minute {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1m")
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
		}
	}
	return nil
}

// ParseRecipients はカンマ区切りのアドレス一覧を分解する
func ParseRecipients(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
