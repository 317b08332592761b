package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/html"
	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

const (
	tokopediaTitleTestID = "lblPDPDetailProductName"
	tokopediaPriceTestID = "lblPDPDetailProductPrice"
	tokopediaMaxBodySize = 1024 * 1024
)

var (
	tokopediaURLRegex   = regexp.MustCompile(`(?i)^https?://(?:www\.)?tokopedia\.com/[^/]+/[^/]+`)
	tokopediaPriceStrip = regexp.MustCompile(`[^\d,]`)
)

func IsValidTokopediaURL(url string) bool {
	return tokopediaURLRegex.MatchString(url)
}

// GetSnapshot reads the current title and price of the product at url.
// Every failure is returned as a *model.FetchError.
func (c Client) GetSnapshot(ctx context.Context, url string) (model.Snapshot, error) {
	if !IsValidTokopediaURL(url) {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorInvalidURL, url, "Invalid Tokopedia URL format")
	}

	cacheKey := "TGS-" + url
	if s, ok := c.snapshotFromCache(ctx, cacheKey); ok {
		return s, nil
	}

	s, err := c.tokopediaGetSnapshot(ctx, url)
	if err != nil {
		return s, err
	}
	c.snapshotToCache(ctx, cacheKey, s)
	return s, nil
}

func (c Client) tokopediaGetSnapshot(ctx context.Context, url string) (model.Snapshot, error) {
	req, err := newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorInvalidURL, url, "error creating request: %v", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.Client.Do(req)
	if err != nil {
		return model.Snapshot{}, model.AsFetchError(err, url)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("tokopediaGetSnapshot: Error closing response body, URL: %s, err: %v", url, err)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorRateLimited, url,
			"HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorHTTP, url,
			"HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, tokopediaMaxBodySize))
	if err != nil {
		return model.Snapshot{}, model.AsFetchError(errors.Wrap(err, "error reading product page"), url)
	}
	return tokopediaParseProductPage(url, body)
}

func tokopediaParseProductPage(url string, body []byte) (model.Snapshot, error) {
	if !bytes.Contains(body, []byte("tokopedia")) {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorParse, url,
			"Response does not appear to be from Tokopedia")
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorParse, url, "error parsing HTML: %v", err)
	}

	title := strings.TrimSpace(htmlTextByTestID(doc, "h1", tokopediaTitleTestID))
	if title == "" {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorParse, url, "Product title not found")
	}

	priceText := htmlTextByTestID(doc, "div", tokopediaPriceTestID)
	price, err := tokopediaParsePrice(priceText)
	if err != nil || price <= 0 {
		return model.Snapshot{}, model.NewFetchError(model.FetchErrorParse, url,
			"Could not parse price from: %s", misc.StringLimit(priceText, 50))
	}

	return model.Snapshot{
		Title:     title,
		Price:     price,
		Currency:  "IDR",
		Available: true,
		URL:       url,
	}, nil
}

// tokopediaParsePrice reads prices like "Rp1.250.000"; a comma is taken as the decimal separator.
func tokopediaParsePrice(s string) (int64, error) {
	digits := strings.Replace(tokopediaPriceStrip.ReplaceAllString(s, ""), ",", ".", 1)
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

func htmlTextByTestID(n *html.Node, tag string, testID string) string {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "data-testid" && a.Val == testID {
				return htmlText(n)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := htmlTextByTestID(c, tag, testID); t != "" {
			return t
		}
	}
	return ""
}

func htmlText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func (c Client) snapshotFromCache(ctx context.Context, key string) (model.Snapshot, bool) {
	var s model.Snapshot
	if c.Redis == nil || c.SnapshotCacheTTL <= 0 {
		return s, false
	}
	cached, err := c.Redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.Logger.Errorf("snapshotFromCache: Error getting Redis cache with key: %s, err: %v", key, err)
		}
		return s, false
	}
	if err = json.Unmarshal([]byte(cached), &s); err != nil {
		c.Logger.Errorf("snapshotFromCache: Error unmarshalling cache, key: %s, err: %v", key, err)
		return s, false
	}
	c.Logger.Debugf("snapshotFromCache: Cache found, key: %s", key)
	return s, true
}

func (c Client) snapshotToCache(ctx context.Context, key string, s model.Snapshot) {
	if c.Redis == nil || c.SnapshotCacheTTL <= 0 {
		return
	}
	sJSON, err := json.Marshal(s)
	if err != nil {
		c.Logger.Errorf("snapshotToCache: Error marshalling Snapshot, key: %s, err: %v", key, err)
		return
	}
	if err = c.Redis.Set(ctx, key, sJSON, c.SnapshotCacheTTL).Err(); err != nil {
		c.Logger.Errorf("snapshotToCache: Error caching Snapshot, key: %s, err: %v", key, err)
	}
}
