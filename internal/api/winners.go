package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"daily-leaderboard/internal/config"
	"daily-leaderboard/internal/constants"
	"daily-leaderboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var monthKeyPattern = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

// MonthDocument is a decoded winners file plus transport details for the
// fetch archive.
type MonthDocument struct {
	Dataset *domain.MonthDataset
	Source  string
	Bytes   int
}

// WinnersClient loads winners-<key>.json documents from an http(s) base URL
// or, for any other location, from a local directory.
type WinnersClient struct {
	location string
	remote   bool
	client   *fasthttp.Client
	clock    clockwork.Clock
	logger   zerolog.Logger
}

func NewWinnersClient(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *WinnersClient {
	location := cfg.DataLocation
	remote := strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
	if !remote {
		location = strings.TrimPrefix(location, "file://")
	}
	return &WinnersClient{
		location: location,
		remote:   remote,
		client: &fasthttp.Client{
			MaxConnsPerHost:     constants.MaxConnsPerHost,
			ReadTimeout:         constants.ClientReadTimeout,
			WriteTimeout:        constants.ClientWriteTimeout,
			MaxIdleConnDuration: constants.MaxIdleConnDuration,
		},
		clock:  clock,
		logger: logger,
	}
}

func (c *WinnersClient) FetchMonth(ctx context.Context, key string) (*MonthDocument, error) {
	if !monthKeyPattern.MatchString(key) {
		return nil, &domain.LoadError{MonthKey: key, Source: key, Err: errors.New("invalid month key")}
	}

	name := fmt.Sprintf("winners-%s.json", key)
	if !c.remote {
		return c.readFile(key, filepath.Join(c.location, name))
	}

	source := c.location + "/" + name
	uri := fmt.Sprintf("%s?v=%d", source, c.clock.Now().UnixMilli())

	c.logger.Debug().Str("month", key).Str("url", uri).Msg("fetching month")

	body, status, err := doRequest(ctx, c.client, uri)
	if err != nil {
		return nil, &domain.LoadError{MonthKey: key, Source: source, Err: err}
	}
	if status != fasthttp.StatusOK {
		return nil, &domain.LoadError{MonthKey: key, Source: source, Status: status}
	}
	return decode(key, source, body)
}

func (c *WinnersClient) readFile(key, path string) (*MonthDocument, error) {
	c.logger.Debug().Str("month", key).Str("path", path).Msg("reading month file")

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.LoadError{MonthKey: key, Source: path, Err: err}
	}
	return decode(key, path, body)
}

func decode(key, source string, body []byte) (*MonthDocument, error) {
	dataset, err := domain.DecodeMonth(body)
	if err != nil {
		return nil, &domain.LoadError{MonthKey: key, Source: source, Err: err}
	}
	return &MonthDocument{Dataset: dataset, Source: source, Bytes: len(body)}, nil
}

func doRequest(ctx context.Context, client *fasthttp.Client, uri string) ([]byte, int, error) {
	if _, err := url.ParseRequestURI(uri); err != nil {
		return nil, 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return nil, 0, err
		}
	} else {
		if err := client.Do(req, resp); err != nil {
			return nil, 0, err
		}
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, resp.StatusCode(), err
	}
	// resp is returned to the pool on exit.
	out := make([]byte, len(body))
	copy(out, body)
	return out, resp.StatusCode(), nil
}
