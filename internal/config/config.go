package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cron   CronConfig   `mapstructure:"cron"`

	PriceSource PriceSourceConfig `mapstructure:"price_source"`
	Email       EmailConfig       `mapstructure:"email"`
	AlertSweep  AlertSweepConfig  `mapstructure:"alert_sweep"`
	Wishlist    WishlistConfig    `mapstructure:"wishlist"`
	Retention   RetentionConfig   `mapstructure:"retention"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	QuoteTTL time.Duration `mapstructure:"quote_ttl"`
}

// CronConfig carries the three recurring triggers. Enabled=false suppresses
// all background jobs, used when only the request-serving path should run.
type CronConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	AlertSweep      string `mapstructure:"alert_sweep"`
	WishlistRefresh string `mapstructure:"wishlist_refresh"`
	Retention       string `mapstructure:"retention"`
}

type PriceSourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Country string        `mapstructure:"country"`
	Lang    string        `mapstructure:"lang"`
}

type EmailConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	FromEmail string        `mapstructure:"from_email"`
	FromName  string        `mapstructure:"from_name"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AlertSweepConfig struct {
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
	ItemDelay time.Duration `mapstructure:"item_delay"`
}

type WishlistConfig struct {
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
	ItemDelay time.Duration `mapstructure:"item_delay"`
}

type RetentionConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.quote_ttl", "10m")
	v.SetDefault("cron.enabled", true)
	// Six-field specs because the runner uses cron.WithSeconds: hourly sweep,
	// 09:00 nightly refresh, midnight retention.
	v.SetDefault("cron.alert_sweep", "0 0 * * * *")
	v.SetDefault("cron.wishlist_refresh", "0 0 9 * * *")
	v.SetDefault("cron.retention", "0 0 0 * * *")
	v.SetDefault("price_source.base_url", "https://serpapi.com")
	v.SetDefault("price_source.timeout", "15s")
	v.SetDefault("price_source.country", "in")
	v.SetDefault("price_source.lang", "en")
	v.SetDefault("email.base_url", "https://api.brevo.com")
	v.SetDefault("email.from_email", "alerts@dealhawk.app")
	v.SetDefault("email.from_name", "DealHawk")
	v.SetDefault("email.timeout", "10s")
	// 55m keeps a hung hourly run recoverable before the next tick.
	v.SetDefault("alert_sweep.lock_ttl", "55m")
	v.SetDefault("alert_sweep.item_delay", "800ms")
	v.SetDefault("wishlist.lock_ttl", "24h")
	v.SetDefault("wishlist.item_delay", "800ms")
	v.SetDefault("retention.max_age", "720h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
