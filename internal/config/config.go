package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Cron        CronConfig        `mapstructure:"cron"`
	Hyperliquid HyperliquidConfig `mapstructure:"hyperliquid"`
	Vault       VaultConfig       `mapstructure:"vault"`
	Builder     BuilderConfig     `mapstructure:"builder"`
	Executor    ExecutorConfig    `mapstructure:"executor"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr      string `mapstructure:"http_addr"`
	TriggerSecret string `mapstructure:"trigger_secret"`
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

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Execute string `mapstructure:"execute"`
}

type HyperliquidConfig struct {
	// BaseURL overrides the endpoint; when empty, Testnet selects the
	// public mainnet or testnet API.
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Testnet bool          `mapstructure:"testnet"`
}

type VaultConfig struct {
	// MasterKey is a 64-character hex string (32 bytes). Missing or
	// wrong-length keys abort startup.
	MasterKey string `mapstructure:"master_key"`
}

type BuilderConfig struct {
	// Address is the platform fee-recipient address on the exchange.
	Address string `mapstructure:"address"`
	// MinFeeTenthBps is the lowest authorized fee the executor accepts,
	// in tenths of a basis point (1000 = 0.1%).
	MinFeeTenthBps int64 `mapstructure:"min_fee_tenth_bps"`
}

type ExecutorConfig struct {
	// ExecutionsPerMonth subdivides a plan's monthly notional into
	// per-run order amounts (90 = three times daily).
	ExecutionsPerMonth int64         `mapstructure:"executions_per_month"`
	MinOrderNotional   float64       `mapstructure:"min_order_notional"`
	PriceBufferPct     float64       `mapstructure:"price_buffer_pct"`
	PlanTimeout        time.Duration `mapstructure:"plan_timeout"`
	Workers            int           `mapstructure:"workers"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HSIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.trigger_secret", "")
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
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.execute", "0 0 */8 * * *")
	v.SetDefault("hyperliquid.base_url", "")
	v.SetDefault("hyperliquid.timeout", "15s")
	v.SetDefault("hyperliquid.testnet", false)
	v.SetDefault("vault.master_key", "")
	v.SetDefault("builder.address", "")
	v.SetDefault("builder.min_fee_tenth_bps", 1000)
	v.SetDefault("executor.executions_per_month", 90)
	v.SetDefault("executor.min_order_notional", 10)
	v.SetDefault("executor.price_buffer_pct", 0.01)
	v.SetDefault("executor.plan_timeout", "30s")
	v.SetDefault("executor.workers", 1)

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
