// Package source общий HTTP-клиент внешних источников: таймаут, breaker,
// лимит тела, единая ошибка FetchError.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/metrics"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxBody = 16 << 20
	userAgent      = "curriculum-sync/1.0"
)

type Options struct {
	Timeout time.Duration
	MaxBody int64
	Header  http.Header
	Log     *zap.Logger
	// HTTP для тестов; по умолчанию свой http.Client с Timeout
	HTTP *http.Client
}

// Client не хранит состояния между запросами, кроме breaker.
type Client struct {
	name    string
	http    *http.Client
	maxBody int64
	header  http.Header
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

func New(name string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	cl := opts.HTTP
	if cl == nil {
		cl = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		name:    name,
		http:    cl,
		maxBody: opts.MaxBody,
		header:  opts.Header,
		breaker: newBreaker(name, opts.Log),
		log:     opts.Log,
	}
}

func (c *Client) Name() string { return c.name }

// Do выполняет запрос через breaker. okStatus решает, какой статус успешен.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, contentType string, okStatus func(int) bool) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.ObserveFetch(c.name, time.Since(start)) }()

	out, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, url, body, contentType, okStatus)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &FetchError{Source: c.name, URL: url, Reason: "circuit open", Err: err}
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string, okStatus func(int) bool) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, &FetchError{Source: c.name, URL: url, Reason: "build request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Source: c.name, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &FetchError{Source: c.name, URL: url, StatusCode: resp.StatusCode, Reason: "read body", Err: err}
	}
	if int64(len(data)) > c.maxBody {
		return nil, &FetchError{Source: c.name, URL: url, StatusCode: resp.StatusCode, Reason: fmt.Sprintf("body exceeds %d bytes", c.maxBody)}
	}
	if !okStatus(resp.StatusCode) {
		return nil, &FetchError{Source: c.name, URL: url, StatusCode: resp.StatusCode, Reason: snippet(data)}
	}
	c.log.Debug("fetched", zap.String("source", c.name), zap.String("url", url),
		zap.Int("status", resp.StatusCode), zap.Int("bytes", len(data)))
	return data, nil
}

func StatusOK(code int) bool { return code == http.StatusOK }

func Status2xx(code int) bool { return code/100 == 2 }

// GetJSON GET c ответом строго 200 и JSON-телом в dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	body, err := c.Do(ctx, http.MethodGet, url, nil, "", StatusOK)
	if err != nil {
		return err
	}
	return c.decode(url, body, dst)
}

// PostJSON POST payload как JSON, ответ строго 200.
func (c *Client) PostJSON(ctx context.Context, url string, payload, dst any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return &FetchError{Source: c.name, URL: url, Reason: "encode payload", Err: err}
	}
	body, err := c.Do(ctx, http.MethodPost, url, b, "application/json", StatusOK)
	if err != nil {
		return err
	}
	return c.decode(url, body, dst)
}

func (c *Client) decode(url string, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return &FetchError{Source: c.name, URL: url, StatusCode: http.StatusOK, Reason: "decode json", Err: err}
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
