package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName = "studypact.yaml"
	UserEnv         = "STUDYPACT_USER"
)

// Duration accepts Go duration strings ("25m", "72h") in both YAML and TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type StoreConfig struct {
	Backend string      `yaml:"backend" toml:"backend"`
	Redis   RedisConfig `yaml:"redis" toml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	DBName   string `yaml:"dbname" toml:"dbname"`
	SSLMode  string `yaml:"sslmode" toml:"sslmode"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

type WalletConfig struct {
	Backend  string         `yaml:"backend" toml:"backend"`
	Postgres PostgresConfig `yaml:"postgres" toml:"postgres"`
}

type NotifyConfig struct {
	Console        *bool  `yaml:"console" toml:"console"`
	DiscordWebhook string `yaml:"discord_webhook" toml:"discord_webhook"`
	QueueSize      int    `yaml:"queue_size" toml:"queue_size"`
}

type FocusConfig struct {
	Duration Duration `yaml:"duration" toml:"duration"`
	Penalty  int64    `yaml:"penalty" toml:"penalty"`
	Reward   int64    `yaml:"reward" toml:"reward"`
	Subject  string   `yaml:"subject" toml:"subject"`
}

type ChallengeConfig struct {
	Templates      string   `yaml:"templates" toml:"templates"`
	ForfeitPenalty int64    `yaml:"forfeit_penalty" toml:"forfeit_penalty"`
	BanLiftCost    int64    `yaml:"ban_lift_cost" toml:"ban_lift_cost"`
	BanDuration    Duration `yaml:"ban_duration" toml:"ban_duration"`
	CheckInGrace   Duration `yaml:"check_in_grace" toml:"check_in_grace"`
}

type SignalsConfig struct {
	DBus bool `yaml:"dbus" toml:"dbus"`
}

type Config struct {
	HomePath   string `yaml:"-" toml:"-"`
	ConfigPath string `yaml:"-" toml:"-"`
	DataPath   string `yaml:"-" toml:"-"`
	DBPath     string `yaml:"-" toml:"-"`

	User      string          `yaml:"user" toml:"user"`
	Timezone  string          `yaml:"timezone" toml:"timezone"`
	LogLevel  string          `yaml:"log_level" toml:"log_level"`
	Store     StoreConfig     `yaml:"store" toml:"store"`
	Wallet    WalletConfig    `yaml:"wallet" toml:"wallet"`
	Notify    NotifyConfig    `yaml:"notify" toml:"notify"`
	Focus     FocusConfig     `yaml:"focus" toml:"focus"`
	Challenge ChallengeConfig `yaml:"challenge" toml:"challenge"`
	Signals   SignalsConfig   `yaml:"signals" toml:"signals"`
}

// New returns the default configuration rooted at homePath.
func New(homePath string) (Config, error) {
	if homePath == "" {
		return Config{}, fmt.Errorf("home path is required")
	}
	cfg := Config{HomePath: homePath}
	cfg.applyDefaults()
	return cfg, nil
}

// Load reads <home>/.env, then the config file (YAML or TOML by extension),
// expanding ${VAR} placeholders from the environment. A missing config file
// yields defaults.
func Load(homePath, configPath string) (Config, error) {
	cfg, err := New(homePath)
	if err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(filepath.Join(homePath, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if configPath == "" {
		configPath = filepath.Join(homePath, DefaultFileName)
	}
	cfg.ConfigPath = configPath

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := DecodeBytes(configPath, ExpandEnv(data), &cfg); err != nil {
			return Config{}, err
		}
	}

	if env := strings.TrimSpace(os.Getenv(UserEnv)); env != "" {
		cfg.User = env
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} with the variable's value. Unset variables are left untouched.
func ExpandEnv(data []byte) []byte {
	return placeholder.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(match[2 : len(match)-1])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		return match
	})
}

// DecodeFile decodes a YAML or TOML file into v, chosen by extension.
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return DecodeBytes(path, ExpandEnv(data), v)
}

func DecodeBytes(path string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
			return fmt.Errorf("decode toml %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode yaml %s: %w", filepath.Base(path), err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataPath == "" {
		c.DataPath = filepath.Join(c.HomePath, ".studypact")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataPath, "studypact.db")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Wallet.Backend == "" {
		c.Wallet.Backend = "sqlite"
	}
	if c.Wallet.Postgres.Port == 0 {
		c.Wallet.Postgres.Port = 5432
	}
	if c.Wallet.Postgres.SSLMode == "" {
		c.Wallet.Postgres.SSLMode = "disable"
	}
	if c.Notify.Console == nil {
		on := true
		c.Notify.Console = &on
	}
	if c.Notify.QueueSize <= 0 {
		c.Notify.QueueSize = 64
	}
	if c.Focus.Duration <= 0 {
		c.Focus.Duration = Duration(25 * time.Minute)
	}
	if c.Focus.Penalty == 0 {
		c.Focus.Penalty = 5
	}
	if c.Focus.Reward == 0 {
		c.Focus.Reward = 10
	}
	if c.Focus.Subject == "" {
		c.Focus.Subject = "focus"
	}
	if c.Challenge.ForfeitPenalty == 0 {
		c.Challenge.ForfeitPenalty = 20
	}
	if c.Challenge.BanLiftCost == 0 {
		c.Challenge.BanLiftCost = 30
	}
	if c.Challenge.BanDuration <= 0 {
		c.Challenge.BanDuration = Duration(72 * time.Hour)
	}
	if c.Challenge.CheckInGrace <= 0 {
		c.Challenge.CheckInGrace = Duration(10 * time.Minute)
	}
	if c.Challenge.Templates != "" && !filepath.IsAbs(c.Challenge.Templates) {
		c.Challenge.Templates = filepath.Join(c.HomePath, c.Challenge.Templates)
	}
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Wallet.Backend {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown wallet backend %q", c.Wallet.Backend)
	}
	if c.Focus.Penalty < 0 || c.Focus.Reward < 0 || c.Challenge.ForfeitPenalty < 0 || c.Challenge.BanLiftCost < 0 {
		return fmt.Errorf("amounts must be non-negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone; empty means the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
