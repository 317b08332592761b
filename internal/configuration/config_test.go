package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pricetracker/internal/logger"
)

const minimalConfig = `
monitor_interval = "1m"
telegram_bot_token = "123:abc"
auth_secret_key = "secret"
`

func TestParseConfigDefaults(t *testing.T) {
	c, err := ParseConfig(minimalConfig)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	checks := []struct {
		name      string
		got, want any
	}{
		{"ServerAddress", c.ServerAddress, "localhost:8888"},
		{"DatabaseURI", c.DatabaseURI, "mongodb://localhost:27017"},
		{"RedisAddress", c.RedisAddress, ""},
		{"LogLevel", c.LogLevel, logger.LevelInfo},
		{"MonitorInterval", c.MonitorInterval, time.Minute},
		{"BatchSize", c.BatchSize, 10},
		{"ItemDelay", c.ItemDelay, time.Second},
		{"FetchTimeout", c.FetchTimeout, 10 * time.Second},
		{"SnapshotCacheTTL", c.SnapshotCacheTTL, time.Hour},
		{"LeaseTTL", c.LeaseTTL, 15 * time.Minute},
		{"RetryPolicy", c.RetryPolicy, RetryPolicyAlways},
		{"BackoffBase", c.BackoffBase, 5 * time.Minute},
		{"BackoffMax", c.BackoffMax, 6 * time.Hour},
		{"Notifier", c.Notifier, NotifierTelegram},
		{"TelegramAPIURL", c.TelegramAPIURL, "https://api.telegram.org"},
		{"MaxItemsPerUser", c.MaxItemsPerUser, 5},
	}
	for _, check := range checks {
		if check.got != check.want {
			t.Errorf("%s = %v, want %v", check.name, check.got, check.want)
		}
	}
	if c.AuthSecretKey == nil {
		t.Error("AuthSecretKey not set")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	c, err := ParseConfig(`
server_address = ":9000"
redis_address = "localhost:6379"
redis_db = 2
log_level = "debug"
monitor_interval = "30m"
batch_size = 25
item_delay = "0s"
snapshot_cache_ttl = "0s"
retry_policy = "backoff"
backoff_base = "1m"
backoff_max = "1h"
notifier = "fcm"
fcm_key = "server-key"
auth_secret_key = "secret"
max_items_per_user = 20
`)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if c.ServerAddress != ":9000" || c.RedisAddress != "localhost:6379" || c.RedisDB != 2 {
		t.Errorf("addresses = %+v", c)
	}
	if c.LogLevel != logger.LevelDebug || c.BatchSize != 25 || c.ItemDelay != 0 || c.SnapshotCacheTTL != 0 {
		t.Errorf("tuning = %+v", c)
	}
	if c.RetryPolicy != RetryPolicyBackoff || c.BackoffBase != time.Minute || c.BackoffMax != time.Hour {
		t.Errorf("retry = %+v", c)
	}
	if c.Notifier != NotifierFCM || c.MaxItemsPerUser != 20 {
		t.Errorf("notifier = %s, max items = %d", c.Notifier, c.MaxItemsPerUser)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string]string{
		"missing interval":   `telegram_bot_token = "t"` + "\n" + `auth_secret_key = "k"`,
		"interval too short": strings.Replace(minimalConfig, `"1m"`, `"10s"`, 1),
		"bad interval":       strings.Replace(minimalConfig, `"1m"`, `"soon"`, 1),
		"bad log level":      minimalConfig + `log_level = "loud"`,
		"zero batch":         minimalConfig + `batch_size = 0`,
		"negative delay":     minimalConfig + `item_delay = "-1s"`,
		"zero fetch timeout": minimalConfig + `fetch_timeout = "0s"`,
		"unknown policy":     minimalConfig + `retry_policy = "never"`,
		"inverted backoff":   minimalConfig + "retry_policy = \"backoff\"\nbackoff_base = \"2h\"\nbackoff_max = \"1h\"",
		"unknown notifier":   minimalConfig + `notifier = "pigeon"`,
		"fcm without key":    minimalConfig + `notifier = "fcm"`,
		"missing bot token":  `monitor_interval = "1m"` + "\n" + `auth_secret_key = "k"`,
		"missing auth key":   `monitor_interval = "1m"` + "\n" + `telegram_bot_token = "t"`,
		"zero max items":     minimalConfig + `max_items_per_user = 0`,
		"not toml":           `monitor_interval = `,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConfig(data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGetConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := GetConfig(path); err != nil {
		t.Errorf("GetConfig: %v", err)
	}
	if _, err := GetConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
