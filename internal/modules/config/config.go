package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "configs/values_local.yaml"

	accessIDENV  = "COINEX_ACCESS_ID"
	secretKeyENV = "COINEX_SECRET_KEY"
	baseURLENV   = "COINEX_BASE_URL"
)

// Config ...
type Config struct {
	Service struct {
		Name       string `yaml:"name"`
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		AdminPort  int    `yaml:"admin_port"`
	} `yaml:"service"`

	LogLevel string `yaml:"log_level"`

	Coinex struct {
		BaseURL    string        `yaml:"base_url"`
		AccessID   string        `yaml:"access_id"`
		SecretKey  string        `yaml:"secret_key"`
		MarketType string        `yaml:"market_type"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"coinex"`

	Trading struct {
		// Leverage is both the sizing multiplier and the value the chain sets on the market.
		Leverage   int    `yaml:"leverage"`
		MarginMode string `yaml:"margin_mode"` // cross | isolated
		OrderType  string `yaml:"order_type"`  // market | limit
		SettleCcy  string `yaml:"settle_ccy"`
		// Policy: fixed (percentage bands) | roi (targets computed from the fill)
		Policy        string  `yaml:"policy"`
		StopLossPct   float64 `yaml:"stop_loss_pct"`   // 1.0 => 1%
		TakeProfitPct float64 `yaml:"take_profit_pct"` // 1.0 => 1%
		TargetGainPct float64 `yaml:"target_gain_pct"` // roi: 10.8 => 10.8% of balance
		TargetLossPct float64 `yaml:"target_loss_pct"` // roi: 2.5 => 2.5% of balance
		ProbeMarket   string  `yaml:"probe_market"`
	} `yaml:"trading"`

	Runner struct {
		QueueSize       int           `yaml:"queue_size"`
		FaultBackoff    time.Duration `yaml:"fault_backoff"`
		// ObserverTimeout bounds each observer call made after a result is published.
		ObserverTimeout time.Duration `yaml:"observer_timeout"`
		AwaitTimeout    time.Duration `yaml:"await_timeout"`
		ReadPerSecond   float64       `yaml:"read_per_second"`
		WritePerSecond  float64       `yaml:"write_per_second"`
	} `yaml:"runner"`

	Results struct {
		Retention time.Duration `yaml:"retention"`
	} `yaml:"results"`

	Telegram struct {
		Token   string        `yaml:"token"`
		ChatID  int64         `yaml:"chat_id"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`
}

// Default values, used for every key the yaml file and env leave out.
func Default() Config {
	var c Config
	c.Service.Name = "alert_relay"
	c.Service.Host = "0.0.0.0"
	c.Service.PublicPort = 5000
	c.Service.AdminPort = 8080
	c.LogLevel = "info"

	c.Coinex.MarketType = "FUTURES"
	c.Coinex.Timeout = 10 * time.Second

	c.Trading.Leverage = 10
	c.Trading.MarginMode = "cross"
	c.Trading.OrderType = "market"
	c.Trading.SettleCcy = "USDT"
	c.Trading.Policy = "fixed"
	c.Trading.StopLossPct = 1.0
	c.Trading.TakeProfitPct = 1.0
	c.Trading.TargetGainPct = 10.8
	c.Trading.TargetLossPct = 2.5
	c.Trading.ProbeMarket = "BTCUSDT"

	c.Runner.QueueSize = 256
	c.Runner.FaultBackoff = 3 * time.Second
	c.Runner.ObserverTimeout = 5 * time.Second
	c.Runner.AwaitTimeout = 30 * time.Second
	c.Runner.ReadPerSecond = 30
	c.Runner.WritePerSecond = 10

	c.Results.Retention = 10 * time.Minute

	c.Telegram.Timeout = 10 * time.Second

	c.Tracing.Port = 6831
	return c
}

func NewConfig() (*Config, error) {
	config := Default()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	if err := decodeFile(configFileName, &config); err != nil {
		return nil, err
	}

	applyEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// decodeFile overlays the yaml file on cfg. A missing file is not an error:
// the process can be configured through env alone.
func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()

	stringFromEnv(v, accessIDENV, &cfg.Coinex.AccessID)
	stringFromEnv(v, secretKeyENV, &cfg.Coinex.SecretKey)
	stringFromEnv(v, baseURLENV, &cfg.Coinex.BaseURL)
	stringFromEnv(v, "COINEX_MARKET_TYPE", &cfg.Coinex.MarketType)
	stringFromEnv(v, "SERVICE_NAME", &cfg.Service.Name)
	stringFromEnv(v, "LOG_LEVEL", &cfg.LogLevel)
	stringFromEnv(v, "DATABASE_DSN", &cfg.DB)
	stringFromEnv(v, "TELEGRAM_TOKEN", &cfg.Telegram.Token)
	stringFromEnv(v, "TRADING_POLICY", &cfg.Trading.Policy)
	stringFromEnv(v, "ORDER_TYPE", &cfg.Trading.OrderType)
	stringFromEnv(v, "MARGIN_MODE", &cfg.Trading.MarginMode)
	stringFromEnv(v, "JAEGER_HOST", &cfg.Tracing.Host)

	intFromEnv(v, "PORT", &cfg.Service.PublicPort)
	intFromEnv(v, "ADMIN_PORT", &cfg.Service.AdminPort)
	intFromEnv(v, "LEVERAGE", &cfg.Trading.Leverage)
	intFromEnv(v, "QUEUE_SIZE", &cfg.Runner.QueueSize)

	if v.IsSet("TELEGRAM_CHAT_ID") {
		cfg.Telegram.ChatID = v.GetInt64("TELEGRAM_CHAT_ID")
	}

	floatFromEnv(v, "STOP_LOSS_PCT", &cfg.Trading.StopLossPct)
	floatFromEnv(v, "TAKE_PROFIT_PCT", &cfg.Trading.TakeProfitPct)

	durationFromEnv(v, "AWAIT_TIMEOUT", &cfg.Runner.AwaitTimeout)
	durationFromEnv(v, "FAULT_BACKOFF", &cfg.Runner.FaultBackoff)
	durationFromEnv(v, "OBSERVER_TIMEOUT", &cfg.Runner.ObserverTimeout)
	durationFromEnv(v, "RESULTS_RETENTION", &cfg.Results.Retention)
}

// Validate reports missing venue credentials and nonsensical trading values.
func (c *Config) Validate() error {
	required := []struct {
		env   string
		value string
	}{
		{accessIDENV, c.Coinex.AccessID},
		{secretKeyENV, c.Coinex.SecretKey},
		{baseURLENV, c.Coinex.BaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("env %s is required", r.env)
		}
	}

	if c.Trading.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be > 0, got %d", c.Trading.Leverage)
	}
	switch c.Trading.OrderType {
	case "market", "limit":
	default:
		return fmt.Errorf("trading.order_type must be market|limit, got %q", c.Trading.OrderType)
	}
	switch c.Trading.Policy {
	case "fixed", "roi":
	default:
		return fmt.Errorf("trading.policy must be fixed|roi, got %q", c.Trading.Policy)
	}
	if c.Runner.QueueSize <= 0 {
		return fmt.Errorf("runner.queue_size must be > 0, got %d", c.Runner.QueueSize)
	}
	return nil
}

func (c *Config) PublicAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.PublicPort)
}

func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.AdminPort)
}

func stringFromEnv(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func intFromEnv(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		if n := v.GetInt(key); n != 0 {
			*dst = n
		}
	}
}

func floatFromEnv(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		if f := v.GetFloat64(key); f != 0 {
			*dst = f
		}
	}
}

func durationFromEnv(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		if d := v.GetDuration(key); d > 0 {
			*dst = d
		}
	}
}
