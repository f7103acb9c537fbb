// Package weather proxies current conditions and alerts from the upstream
// QWeather-style API for display clients.
package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/classboard/classboard/core/logger"
)

// ErrCityNotFound is returned when the upstream knows no city by that name.
var ErrCityNotFound = errors.New("weather: city not found")

// maxAttempts bounds the lookup retries; a not-found answer is never retried.
const maxAttempts = 5

// Config holds the upstream API parameters.
type Config struct {
	Host string `json:"host" koanf:"host"`
	Key  string `json:"key" koanf:"key"`
}

// Report is the condensed answer served to clients.
type Report struct {
	Temp      string `json:"temp"`
	Weat      string `json:"weat"`
	Warn      string `json:"warn"`
	BriefWarn string `json:"brief_warn"`
}

type cityKey struct {
	name     string
	province string
}

// Client looks up weather by city name. City IDs are cached for the process
// lifetime; they do not change upstream.
type Client struct {
	http *resty.Client
	key  string
	log  logger.Logger

	mu    sync.Mutex
	cache map[cityKey]string
}

// New builds a Client for the configured upstream. Host is a bare hostname;
// a value with an explicit scheme is used verbatim.
func New(cfg Config, log logger.Logger) *Client {
	base := cfg.Host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(10 * time.Second).
		SetHeader("X-QW-Api-Key", cfg.Key).
		SetHeader("Accept", "application/json")
	return &Client{
		http:  httpClient,
		key:   cfg.Key,
		log:   log,
		cache: make(map[cityKey]string),
	}
}

type cityLookupResponse struct {
	Location []struct {
		ID string `json:"id"`
	} `json:"location"`
}

type nowResponse struct {
	Now struct {
		Temp string `json:"temp"`
		Text string `json:"text"`
	} `json:"now"`
}

type warningResponse struct {
	Warning []struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"warning"`
}

func (c *Client) cityID(ctx context.Context, name, province string) (string, error) {
	key := cityKey{name: name, province: province}
	c.mu.Lock()
	if id, ok := c.cache[key]; ok {
		c.mu.Unlock()
		c.log.Debugf("city cache hit: %s/%s -> %s", province, name, id)
		return id, nil
	}
	c.mu.Unlock()

	req := c.http.R().SetContext(ctx).SetQueryParam("location", name)
	if province != "" {
		req.SetQueryParam("adm", province)
	}
	var body cityLookupResponse
	resp, err := req.SetResult(&body).Get("/geo/v2/city/lookup")
	if err != nil {
		return "", fmt.Errorf("city lookup: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("city lookup: upstream status %d", resp.StatusCode())
	}
	if len(body.Location) == 0 {
		return "", ErrCityNotFound
	}
	id := body.Location[0].ID
	c.mu.Lock()
	c.cache[key] = id
	c.mu.Unlock()
	return id, nil
}

func (c *Client) lookupOnce(ctx context.Context, name, province string) (Report, error) {
	id, err := c.cityID(ctx, name, province)
	if err != nil {
		return Report{}, err
	}

	var now nowResponse
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("location", id).
		SetResult(&now).
		Get("/v7/weather/now")
	if err != nil {
		return Report{}, fmt.Errorf("weather lookup: %w", err)
	}
	if resp.IsError() {
		return Report{}, fmt.Errorf("weather lookup: upstream status %d", resp.StatusCode())
	}
	if now.Now.Temp == "" && now.Now.Text == "" {
		return Report{}, fmt.Errorf("weather lookup: empty answer for %s", id)
	}

	var warn warningResponse
	resp, err = c.http.R().SetContext(ctx).
		SetQueryParam("location", id).
		SetResult(&warn).
		Get("/v7/warning/now")
	if err != nil {
		return Report{}, fmt.Errorf("warning lookup: %w", err)
	}
	if resp.IsError() {
		return Report{}, fmt.Errorf("warning lookup: upstream status %d", resp.StatusCode())
	}

	texts := make([]string, 0, len(warn.Warning))
	titles := make([]string, 0, len(warn.Warning))
	for _, w := range warn.Warning {
		texts = append(texts, strings.ReplaceAll(w.Text, "\n", ""))
		titles = append(titles, strings.ReplaceAll(w.Title, "\n", ""))
	}
	return Report{
		Temp:      now.Now.Temp,
		Weat:      now.Now.Text,
		Warn:      strings.Join(texts, "；"),
		BriefWarn: strings.Join(titles, "；"),
	}, nil
}

// Lookup fetches conditions and alerts for the named city, retrying transient
// upstream failures up to the attempt budget.
func (c *Client) Lookup(ctx context.Context, province, name string) (Report, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		report, err := c.lookupOnce(ctx, name, province)
		if err == nil {
			c.log.Infof("weather for %s/%s: %s %s", province, name, report.Temp, report.Weat)
			return report, nil
		}
		if errors.Is(err, ErrCityNotFound) {
			return Report{}, err
		}
		lastErr = err
		c.log.Warnf("weather attempt %d for %s/%s failed: %v", attempt+1, province, name, err)
	}
	return Report{}, fmt.Errorf("weather lookup exhausted retries: %w", lastErr)
}
