package homework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "github.com/DD477/homework-bot/pkg/logx"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

type ClientConfig struct {
	Endpoint string
	Token    string
	// Timeout bounds a single request; 0 means 30s.
	Timeout time.Duration
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client fetches homework statuses for the token owner.
type Client struct {
	endpoint string
	auth     string
	http     *http.Client
	log      logx.Logger
}

// NewClient validates cfg and builds a client. An empty endpoint means DefaultEndpoint.
func NewClient(cfg ClientConfig, log logx.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("practicum token is empty")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("practicum endpoint: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{endpoint: endpoint, auth: "OAuth " + token, http: hc, log: log}, nil
}

// Fetch asks for every status change since the from unix timestamp and
// returns the decoded JSON document.
func (c *Client) Fetch(ctx context.Context, from int64) (any, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(from, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("practicum request failed", logx.Int64("from_date", from), logx.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.log.Error("practicum unexpected status",
			logx.Int("status", resp.StatusCode),
			logx.Duration("took", time.Since(start)),
		)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		c.log.Error("practicum response is not valid json", logx.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	c.log.Debug("practicum answered",
		logx.Int64("from_date", from),
		logx.Duration("took", time.Since(start)),
	)
	return doc, nil
}
