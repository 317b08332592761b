package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"pricetracker/internal/logger"
)

const (
	RetryPolicyAlways  = "always"
	RetryPolicyBackoff = "backoff"

	NotifierTelegram = "telegram"
	NotifierFCM      = "fcm"

	minMonitorInterval = 15 * time.Second
)

type Config struct {
	ServerAddress string
	DatabaseURI   string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	LogLevel  logger.Level
	LogToFile bool

	MonitorInterval  time.Duration
	BatchSize        int
	ItemDelay        time.Duration
	FetchTimeout     time.Duration
	SnapshotCacheTTL time.Duration
	LeaseTTL         time.Duration
	RetryPolicy      string
	BackoffBase      time.Duration
	BackoffMax       time.Duration

	Notifier         string
	TelegramBotToken string `json:"-"`
	TelegramAPIURL   string
	FCMKey           string `json:"-"`

	AuthSecretKey   jwk.Key `json:"-"`
	RegistrationKey string  `json:"-"`
	MaxItemsPerUser int
}

type tomlConfig struct {
	ServerAddress    string `toml:"server_address"`
	DatabaseURI      string `toml:"database_uri"`
	RedisAddress     string `toml:"redis_address"`
	RedisPassword    string `toml:"redis_password"`
	RedisDB          int    `toml:"redis_db"`
	LogLevel         string `toml:"log_level"`
	LogToFile        bool   `toml:"log_to_file"`
	MonitorInterval  string `toml:"monitor_interval"`
	BatchSize        *int   `toml:"batch_size"`
	ItemDelay        string `toml:"item_delay"`
	FetchTimeout     string `toml:"fetch_timeout"`
	SnapshotCacheTTL string `toml:"snapshot_cache_ttl"`
	LeaseTTL         string `toml:"lease_ttl"`
	RetryPolicy      string `toml:"retry_policy"`
	BackoffBase      string `toml:"backoff_base"`
	BackoffMax       string `toml:"backoff_max"`
	Notifier         string `toml:"notifier"`
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramAPIURL   string `toml:"telegram_api_url"`
	FCMKey           string `toml:"fcm_key"`
	AuthSecretKey    string `toml:"auth_secret_key"`
	RegistrationKey  string `toml:"registration_key"`
	MaxItemsPerUser  *int   `toml:"max_items_per_user"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}
	return tc.toConfig()
}

// ParseConfig reads a config from TOML text.
func ParseConfig(data string) (*Config, error) {
	var tc tomlConfig
	if _, err := toml.Decode(data, &tc); err != nil {
		return nil, errors.Wrap(err, "failed to decode toml config")
	}
	return tc.toConfig()
}

func durationOrDefault(key string, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s: %s", key, value)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative: %s", key, value)
	}
	return d, nil
}

func (tc tomlConfig) toConfig() (*Config, error) {
	c := Config{
		ServerAddress:    tc.ServerAddress,
		DatabaseURI:      tc.DatabaseURI,
		RedisAddress:     tc.RedisAddress,
		RedisPassword:    tc.RedisPassword,
		RedisDB:          tc.RedisDB,
		LogToFile:        tc.LogToFile,
		RetryPolicy:      tc.RetryPolicy,
		Notifier:         tc.Notifier,
		TelegramBotToken: tc.TelegramBotToken,
		TelegramAPIURL:   tc.TelegramAPIURL,
		FCMKey:           tc.FCMKey,
		RegistrationKey:  tc.RegistrationKey,
		BatchSize:        10,
		MaxItemsPerUser:  5,
	}

	if c.ServerAddress == "" {
		c.ServerAddress = "localhost:8888"
	}
	if c.DatabaseURI == "" {
		c.DatabaseURI = "mongodb://localhost:27017"
	}
	if c.TelegramAPIURL == "" {
		c.TelegramAPIURL = "https://api.telegram.org"
	}

	c.LogLevel = logger.LevelInfo
	if tc.LogLevel != "" {
		lv, err := logger.ParseLevel(tc.LogLevel)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to parse log_level")
		}
		c.LogLevel = lv
	}

	if tc.MonitorInterval == "" {
		return nil, errors.New("monitor_interval is not set")
	}
	var err error
	if c.MonitorInterval, err = durationOrDefault("monitor_interval", tc.MonitorInterval, 0); err != nil {
		return nil, err
	}
	if c.MonitorInterval < minMonitorInterval {
		return nil, errors.Errorf("monitor_interval too short (%v), minimum interval: %v", c.MonitorInterval, minMonitorInterval)
	}

	if tc.BatchSize != nil {
		if *tc.BatchSize <= 0 {
			return nil, errors.Errorf("batch_size must be positive: %d", *tc.BatchSize)
		}
		c.BatchSize = *tc.BatchSize
	}
	if tc.MaxItemsPerUser != nil {
		if *tc.MaxItemsPerUser <= 0 {
			return nil, errors.Errorf("max_items_per_user must be positive: %d", *tc.MaxItemsPerUser)
		}
		c.MaxItemsPerUser = *tc.MaxItemsPerUser
	}

	if c.ItemDelay, err = durationOrDefault("item_delay", tc.ItemDelay, time.Second); err != nil {
		return nil, err
	}
	if c.SnapshotCacheTTL, err = durationOrDefault("snapshot_cache_ttl", tc.SnapshotCacheTTL, time.Hour); err != nil {
		return nil, err
	}
	if c.FetchTimeout, err = durationOrDefault("fetch_timeout", tc.FetchTimeout, 10*time.Second); err != nil {
		return nil, err
	}
	if c.LeaseTTL, err = durationOrDefault("lease_ttl", tc.LeaseTTL, 15*time.Minute); err != nil {
		return nil, err
	}
	if c.FetchTimeout == 0 || c.LeaseTTL == 0 {
		return nil, errors.New("fetch_timeout and lease_ttl must be positive")
	}

	switch c.RetryPolicy {
	case "":
		c.RetryPolicy = RetryPolicyAlways
	case RetryPolicyAlways, RetryPolicyBackoff:
	default:
		return nil, errors.Errorf("unknown retry_policy: %s", c.RetryPolicy)
	}
	if c.BackoffBase, err = durationOrDefault("backoff_base", tc.BackoffBase, 5*time.Minute); err != nil {
		return nil, err
	}
	if c.BackoffMax, err = durationOrDefault("backoff_max", tc.BackoffMax, 6*time.Hour); err != nil {
		return nil, err
	}
	if c.RetryPolicy == RetryPolicyBackoff && (c.BackoffBase == 0 || c.BackoffMax < c.BackoffBase) {
		return nil, errors.Errorf("invalid backoff range: %v to %v", c.BackoffBase, c.BackoffMax)
	}

	switch c.Notifier {
	case "", NotifierTelegram:
		c.Notifier = NotifierTelegram
		if c.TelegramBotToken == "" {
			return nil, errors.New("telegram_bot_token is not set")
		}
	case NotifierFCM:
		if c.FCMKey == "" {
			return nil, errors.New("fcm_key is not set")
		}
	default:
		return nil, errors.Errorf("unknown notifier: %s", c.Notifier)
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	c.AuthSecretKey, err = jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	return &c, nil
}
