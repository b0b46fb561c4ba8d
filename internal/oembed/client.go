// Package oembed looks up video metadata through an oEmbed provider.
package oembed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/NordCoder/Vidrate/internal/domain/content"
	"github.com/NordCoder/Vidrate/internal/obs/retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://www.youtube.com/oembed"
	maxBodyBytes    = 1 << 20
)

var ErrVideoNotFound = fmt.Errorf("%w: unknown to provider", content.ErrUnsupportedVideo)

type Config struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Attempts  int           `mapstructure:"attempts"`
}

type Client struct {
	c      *http.Client
	cfg    Config
	policy retry.Policy
	log    *zap.Logger
}

var _ content.VideoLookup = (*Client)(nil)

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if log == nil {
		log = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	log = log.Named("oembed")
	return &Client{
		c:      &http.Client{Timeout: cfg.Timeout, Transport: otelhttp.NewTransport(transport)},
		cfg:    cfg,
		policy: retry.HTTPPolicy("oembed", cfg.Attempts, log),
		log:    log,
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Details returns ErrVideoNotFound when the provider does not know or refuses
// to embed the video. Network errors and 5xx answers are retried.
func (cl *Client) Details(ctx context.Context, videoURL string) (content.VideoDetails, error) {
	var out content.VideoDetails
	err := retry.Do(ctx, func() error {
		d, err := cl.fetch(ctx, videoURL)
		if err != nil {
			return err
		}
		out = d
		return nil
	}, cl.policy)
	if err != nil {
		return content.VideoDetails{}, err
	}
	return out, nil
}

func (cl *Client) fetch(ctx context.Context, videoURL string) (content.VideoDetails, error) {
	u, err := url.Parse(cl.cfg.Endpoint)
	if err != nil {
		return content.VideoDetails{}, retry.Permanent(fmt.Errorf("parse endpoint: %w", err))
	}
	q := u.Query()
	q.Set("url", videoURL)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return content.VideoDetails{}, retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cl.cfg.UserAgent)
	}

	resp, err := cl.c.Do(req)
	if err != nil {
		return content.VideoDetails{}, fmt.Errorf("oembed request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return content.VideoDetails{}, fmt.Errorf("oembed upstream status %d", resp.StatusCode)
	default:
		cl.log.Debug("video rejected by provider", zap.String("url", videoURL), zap.Int("status", resp.StatusCode))
		return content.VideoDetails{}, retry.Permanent(ErrVideoNotFound)
	}

	var body oembedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return content.VideoDetails{}, retry.Permanent(fmt.Errorf("decode oembed response: %w", err))
	}
	return content.VideoDetails{
		Title:        body.Title,
		ThumbnailURL: body.ThumbnailURL,
		CreatorName:  body.AuthorName,
		CreatorURL:   body.AuthorURL,
	}, nil
}
