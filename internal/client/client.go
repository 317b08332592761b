package client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*http.Client
	Redis            *redis.Client
	SnapshotCacheTTL time.Duration
	Notifier         string
	TelegramAPIURL   string
	TelegramBotToken string
	FCMURL           string
	FCMKey           string
	Logger           logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

const (
	NotifierTelegram = "telegram"
	NotifierFCM      = "fcm"
)

func newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	setDefaultRequestHeader(r)
	return r, nil
}

func setDefaultRequestHeader(r *http.Request) {
	r.Header.Set("User-Agent", randomUserAgent())
	r.Header.Set("Accept", "application/json")
}
