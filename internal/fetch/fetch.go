// Package fetch downloads results files from a processing service.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"complyview/internal/store"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// maxBody bounds a results download.
const maxBody = 64 << 20

type StatusError struct {
	Code int
	URL  string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.log.Debug().Fields(kv).Msg(msg) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }

type Options struct {
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       zerolog.Logger
}

type Client struct {
	http *retryablehttp.Client
}

func New(opt Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opt.Retries
	if opt.RetryWaitMin > 0 {
		rc.RetryWaitMin = opt.RetryWaitMin
	} else {
		rc.RetryWaitMin = 500 * time.Millisecond
	}
	if opt.RetryWaitMax > 0 {
		rc.RetryWaitMax = opt.RetryWaitMax
	} else {
		rc.RetryWaitMax = 10 * time.Second
	}
	rc.Logger = retryLogger{log: opt.Logger}
	return &Client{http: rc}
}

// Results downloads url and decodes it as a results file.
func (c *Client) Results(ctx context.Context, url string) (store.ResultSet, error) {
	url = strings.TrimSpace(url)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return store.ResultSet{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return store.ResultSet{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return store.ResultSet{}, StatusError{Code: resp.StatusCode, URL: url}
	}
	rs, err := store.ParseResults(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return store.ResultSet{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	return rs, nil
}
