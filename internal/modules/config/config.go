package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	binanceKeyENV     = "BINANCE_API_KEY"
	binanceSecretENV  = "BINANCE_API_SECRET"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"telegram"`

	Binance struct {
		APIKey     string `mapstructure:"api_key"`
		APISecret  string `mapstructure:"api_secret"`
		FuturesURL string `mapstructure:"futures_url"`
		SpotURL    string `mapstructure:"spot_url"`
		StreamURL  string `mapstructure:"stream_url"`
	} `mapstructure:"binance"`

	DB      string `mapstructure:"db_dsn"`
	DataDir string `mapstructure:"data_dir"`

	// Индикатор
	Interval   string `mapstructure:"interval"`
	FastPeriod int    `mapstructure:"fast_period"`
	SlowPeriod int    `mapstructure:"slow_period"`
	KlineLimit int    `mapstructure:"kline_limit"`

	// Цикл мониторинга
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Клиент биржи
	RecvWindowMs    int64         `mapstructure:"recv_window_ms"`
	RequestAttempts int           `mapstructure:"request_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`

	// Торговля. MinNotional — нижняя граница номинала ордера (USDT),
	// явная настройка, а не зашитая константа.
	MinNotional    float64 `mapstructure:"min_notional"`
	QtyPrecision   int     `mapstructure:"qty_precision"`
	PricePrecision int     `mapstructure:"price_precision"`

	// Стрим mark-price для проверок TP/SL между опросами
	MarkStream bool `mapstructure:"mark_stream"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local"
	}
	v.SetConfigName(strings.TrimSuffix(configFileName, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath(".")

	v.SetDefault("binance.futures_url", "https://fapi.binance.com")
	v.SetDefault("binance.spot_url", "https://api.binance.com")
	v.SetDefault("binance.stream_url", "wss://fstream.binance.com/ws")
	v.SetDefault("data_dir", "data")

	v.SetDefault("interval", "15m")
	v.SetDefault("fast_period", 9)
	v.SetDefault("slow_period", 26)
	v.SetDefault("kline_limit", 100)

	v.SetDefault("poll_interval", "60s")
	v.SetDefault("recv_window_ms", 5000)
	v.SetDefault("request_attempts", 3)
	v.SetDefault("retry_delay", "1s")

	v.SetDefault("min_notional", 20.0)
	v.SetDefault("qty_precision", 3)
	v.SetDefault("price_precision", 4)

	v.SetDefault("mark_stream", true)

	v.SetDefault("jaeger.host", "127.0.0.1")
	v.SetDefault("jaeger.port", 6831)

	if err := v.ReadInConfig(); err != nil {
		// конфиг-файл опционален: всё можно задать env-ами
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// env поверх файла
	if t := os.Getenv(tokenTelegramENV); t != "" {
		cfg.Telegram.Token = t
	}
	if k := os.Getenv(binanceKeyENV); k != "" {
		cfg.Binance.APIKey = k
	}
	if s := os.Getenv(binanceSecretENV); s != "" {
		cfg.Binance.APISecret = s
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		cfg.DB = dsn
	}

	if cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, fmt.Errorf("fast_period must be < slow_period")
	}
	if cfg.KlineLimit < cfg.SlowPeriod+2 {
		cfg.KlineLimit = cfg.SlowPeriod + 2
	}

	return &cfg, nil
}
