package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"grid_bot/internal/helper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"

	envPrefix         = "GRIDBOT"
	defaultConfigFile = "values_local.yaml"
	configDir         = "configs"
)

// RunConfig — параметры одного бумажного прогона.
// Проценты как в конфиге: 3 => 3%, в доли переводит модуль стратегии.
type RunConfig struct {
	Symbol          string        `yaml:"symbol"` // базовая монета, quote дописывается
	Quote           string        `yaml:"quote"`
	InitialPrice    float64       `yaml:"initial_price"`
	InitialBalance  float64       `yaml:"initial_balance"` // в quote
	InitialCoin     float64       `yaml:"initial_coin"`
	TrailingStopPct float64       `yaml:"trailing_stop_pct"`
	TradePct        float64       `yaml:"trade_pct"`
	PriceChangePct  float64       `yaml:"price_change_pct"` // шаг сетки
	GridSteps       int           `yaml:"grid_steps"`
	RunTime         time.Duration `yaml:"run_time"`
	StatusEvery     time.Duration `yaml:"status_every"` // 0 => строка статуса на каждый тик
}

// InstID — "BTC" + "USDT" => "BTCUSDT".
func (r RunConfig) InstID() string { return helper.InstID(r.Symbol, r.Quote) }

type ExchangeConfig struct {
	WSURL        string        `yaml:"ws_url"`
	RestURL      string        `yaml:"rest_url"`
	MaxRetries   int           `yaml:"max_retries"`
	PingInterval time.Duration `yaml:"ping_interval"`
	TickBuffer   int           `yaml:"tick_buffer"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // пусто => только stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Config ...
type Config struct {
	Run      RunConfig      `yaml:"run"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Name      string `yaml:"name"`
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

func defaults() Config {
	var c Config
	c.Run.Quote = "USDT"
	c.Run.GridSteps = 5
	c.Run.RunTime = 10 * time.Minute

	c.Exchange.WSURL = "wss://ws.bitget.com/v2/ws/public"
	c.Exchange.RestURL = "https://api.bitget.com"
	c.Exchange.MaxRetries = 5
	c.Exchange.PingInterval = 30 * time.Second
	c.Exchange.TickBuffer = 64

	c.Service.Name = "grid_bot"
	c.Service.Host = "0.0.0.0"
	c.Service.AdminPort = 8081

	c.Log.Level = "info"
	c.Log.MaxSizeMB = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 7

	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	return c
}

// AdminAddr — адрес health-сервера.
func (c *Config) AdminAddr() string {
	return c.Service.Host + ":" + strconv.Itoa(c.Service.AdminPort)
}

// NewConfig — fx-провайдер: читает флаги процесса.
func NewConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load собирает конфиг слоями: yaml-файл, затем env (TELEGRAM_TOKEN, DATABASE_DSN, GRIDBOT_*),
// затем флаги командной строки.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("grid_bot", pflag.ContinueOnError)
	fs.String("config", "", "path to yaml config")
	fs.String("symbol", "", "base coin, e.g. BTC")
	fs.String("quote", "", "quote coin, e.g. USDT")
	fs.Float64("initial-price", 0, "reference price before the first tick")
	fs.Float64("initial-balance", 0, "starting quote balance")
	fs.Float64("initial-coin", 0, "starting coin balance")
	fs.Float64("trailing-stop-pct", 0, "trailing stop, percent")
	fs.Float64("trade-pct", 0, "share of balance per trade, percent")
	fs.Float64("price-change-pct", 0, "grid spacing, percent")
	fs.Int("grid-steps", 0, "levels per side")
	fs.Duration("run-time", 0, "run duration, e.g. 10m")
	fs.String("log-level", "", "debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "parse flags")
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}

	path := v.GetString("config")
	if path == "" {
		name := os.Getenv(configFilePathENV)
		if name == "" {
			name = defaultConfigFile
		}
		path = filepath.Join(configDir, name)
	}

	cfg := defaults()
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		cfg.Telegram.Token = token
	}
	if chat := os.Getenv(chatTelegramENV); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", chatTelegramENV)
		}
		cfg.Telegram.ChatID = id
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		cfg.DB = dsn
	}

	applyOverrides(v, &cfg)

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return errors.Wrapf(err, "decode config file %s", path)
	}
	return nil
}

// applyOverrides: флаг или GRIDBOT_<KEY> побеждают файл.
func applyOverrides(v *viper.Viper, cfg *Config) {
	if v.IsSet("symbol") {
		cfg.Run.Symbol = v.GetString("symbol")
	}
	if v.IsSet("quote") {
		cfg.Run.Quote = v.GetString("quote")
	}
	if v.IsSet("initial-price") {
		cfg.Run.InitialPrice = v.GetFloat64("initial-price")
	}
	if v.IsSet("initial-balance") {
		cfg.Run.InitialBalance = v.GetFloat64("initial-balance")
	}
	if v.IsSet("initial-coin") {
		cfg.Run.InitialCoin = v.GetFloat64("initial-coin")
	}
	if v.IsSet("trailing-stop-pct") {
		cfg.Run.TrailingStopPct = v.GetFloat64("trailing-stop-pct")
	}
	if v.IsSet("trade-pct") {
		cfg.Run.TradePct = v.GetFloat64("trade-pct")
	}
	if v.IsSet("price-change-pct") {
		cfg.Run.PriceChangePct = v.GetFloat64("price-change-pct")
	}
	if v.IsSet("grid-steps") {
		cfg.Run.GridSteps = v.GetInt("grid-steps")
	}
	if v.IsSet("run-time") {
		cfg.Run.RunTime = v.GetDuration("run-time")
	}
	if v.IsSet("log-level") {
		cfg.Log.Level = v.GetString("log-level")
	}
}

// check — только то, что не проверит движок: параметры сети и сервиса.
func (c *Config) check() error {
	switch {
	case strings.TrimSpace(c.Run.Symbol) == "":
		return errors.New("run.symbol is required")
	case c.Exchange.WSURL == "":
		return errors.New("exchange.ws_url is required")
	case c.Exchange.MaxRetries < 0:
		return errors.New("exchange.max_retries must be >= 0")
	case c.Exchange.PingInterval <= 0:
		return errors.New("exchange.ping_interval must be > 0")
	case c.Exchange.TickBuffer < 1:
		return errors.New("exchange.tick_buffer must be >= 1")
	case c.Service.AdminPort < 0 || c.Service.AdminPort > 65535:
		return errors.New("service.admin_port out of range")
	}
	return nil
}
