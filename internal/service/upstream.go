package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travelwatch/internal/config"
	"travelwatch/internal/observability"
)

type CovidSnapshot struct {
	Country   string    `json:"country"`
	Cases     int64     `json:"cases"`
	Deaths    int64     `json:"deaths"`
	Recovered int64     `json:"recovered"`
	Date      time.Time `json:"date"`
}

type TravelAdvisory struct {
	AdvisoryText  string   `json:"advisoryText"`
	AdvisoryScore *float64 `json:"advisoryScore"`
}

// UpstreamClient talks to the two external data providers. Both calls
// are bounded by the per-request timeout carried in ctx plus the
// client's own upstream timeout, whichever fires first.
type UpstreamClient struct {
	httpClient *http.Client
	covidBase  string
	travelBase string
	timeout    time.Duration
}

func NewUpstreamClient(cfg *config.Config) *UpstreamClient {
	return &UpstreamClient{
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		covidBase:  strings.TrimRight(cfg.CovidAPIBaseURL, "/"),
		travelBase: strings.TrimRight(cfg.TravelAPIBaseURL, "/"),
		timeout:    cfg.UpstreamTimeout,
	}
}

func (c *UpstreamClient) CovidSnapshot(ctx context.Context, country string) (*CovidSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v3/covid-19/countries/%s", c.covidBase, url.PathEscape(country))
	start := time.Now()
	var body struct {
		Country   string `json:"country"`
		Cases     int64  `json:"cases"`
		Deaths    int64  `json:"deaths"`
		Recovered int64  `json:"recovered"`
	}
	err := c.getJSON(ctx, endpoint, &body)
	observability.RecordUpstreamRequestDuration(ctx, "covid", upstreamStatus(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return &CovidSnapshot{
		Country:   body.Country,
		Cases:     body.Cases,
		Deaths:    body.Deaths,
		Recovered: body.Recovered,
		Date:      time.Now().UTC(),
	}, nil
}

func (c *UpstreamClient) TravelAdvisory(ctx context.Context, country string) (*TravelAdvisory, error) {
	code := strings.ToUpper(country)
	endpoint := fmt.Sprintf("%s/api?country=%s", c.travelBase, url.QueryEscape(code))
	start := time.Now()
	var body struct {
		Data map[string]struct {
			Advisory struct {
				Score   *float64 `json:"score"`
				Message string   `json:"message"`
			} `json:"advisory"`
		} `json:"data"`
	}
	err := c.getJSON(ctx, endpoint, &body)
	observability.RecordUpstreamRequestDuration(ctx, "travel", upstreamStatus(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	advisory := &TravelAdvisory{AdvisoryText: "No travel advisory available"}
	if entry, ok := body.Data[code]; ok {
		if entry.Advisory.Message != "" {
			advisory.AdvisoryText = entry.Advisory.Message
		}
		advisory.AdvisoryScore = entry.Advisory.Score
	}
	return advisory, nil
}

func (c *UpstreamClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyUpstreamError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstreamFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstreamFailed, err)
	}
	return nil
}

func classifyUpstreamError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
}

func upstreamStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
