// Package yahoo implements the market data provider over the Yahoo Finance
// v8 chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PairLab/internal/domain/models"
	drepo "PairLab/internal/domain/repository"
	"PairLab/internal/service/ratelimit"
	xhttp "PairLab/pkg/http"
	applogger "PairLab/pkg/logger"
)

const (
	ProviderName     = "yahoo"
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultUserAgent = "Mozilla/5.0 (compatible; pairlab/1.0)"
)

// Option configures Client.
type Option func(*Client)

// Client fetches daily adjusted history from Yahoo.
type Client struct {
	baseURL    string
	http       *xhttp.Client
	limiter    *ratelimit.Limiter
	burst      float64
	ratePerSec float64
	timeout    time.Duration
	logger     *applogger.Logger
}

var _ drepo.MarketDataProvider = (*Client)(nil)

// New creates a Yahoo client. Requests are rate limited to ratePerSec with
// the given burst.
func New(logger *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		burst:      5,
		ratePerSec: 2,
		logger:     logger,
		limiter:    ratelimit.New(),
		timeout:    15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout), xhttp.WithUserAgent(defaultUserAgent))
	}
	return c
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit sets the token bucket used for outgoing requests.
func WithRateLimit(burst, perSec float64) Option {
	return func(c *Client) {
		c.burst = burst
		c.ratePerSec = perSec
	}
}

func (c *Client) Name() string { return ProviderName }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchHistory returns the adjusted daily closes of symbol in [start, end].
// Days without an adjusted close are skipped.
func (c *Client) FetchHistory(ctx context.Context, symbol models.Symbol, start, end models.Date) ([]models.PricePoint, error) {
	params := map[string][]string{
		"period1":              {strconv.FormatInt(start.Time().Unix(), 10)},
		"period2":              {strconv.FormatInt(end.AddDays(1).Time().Unix(), 10)},
		"interval":             {"1d"},
		"events":               {"div|split"},
		"includeAdjustedClose": {"true"},
	}
	res, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	var vols []*float64
	if len(res.Indicators.Quote) > 0 {
		vols = res.Indicators.Quote[0].Volume
	}
	if len(res.Indicators.AdjClose) == 0 {
		return nil, c.providerErr(symbol, false, errors.New("response has no adjclose indicator"))
	}
	closes := res.Indicators.AdjClose[0].AdjClose

	points := make([]models.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		d := models.DateOf(time.Unix(ts+res.Meta.GMTOffset, 0))
		if d.Before(start) || d.After(end) {
			continue
		}
		p := models.PricePoint{Date: d, AdjClose: *closes[i]}
		if i < len(vols) && vols[i] != nil && *vols[i] > 0 {
			p.Volume = uint64(math.Round(*vols[i]))
		}
		points = append(points, p)
	}
	points = models.NormalizePoints(points)

	c.logger.Debug("yahoo history fetched",
		applogger.String("symbol", symbol.String()),
		applogger.Int("points", len(points)))
	return points, nil
}

// LookupSymbol checks that Yahoo knows symbol by requesting a short chart.
func (c *Client) LookupSymbol(ctx context.Context, symbol models.Symbol) error {
	res, err := c.chart(ctx, symbol, map[string][]string{
		"range":    {"5d"},
		"interval": {"1d"},
	})
	if err != nil {
		return err
	}
	if res.Meta.Symbol == "" {
		return c.notFound(symbol)
	}
	return nil
}

func (c *Client) chart(ctx context.Context, symbol models.Symbol, params map[string][]string) (*chartResult, error) {
	if err := c.limiter.Wait(ctx, ProviderName, c.burst, c.ratePerSec); err != nil {
		return nil, c.providerErr(symbol, true, err)
	}

	var body chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v8/finance/chart/" + symbol.String(),
		QueryParams: params,
	}, &body)
	if err != nil {
		return nil, c.classify(symbol, err)
	}
	if e := body.Chart.Error; e != nil {
		if isNotFound(e) {
			return nil, c.notFound(symbol)
		}
		return nil, c.providerErr(symbol, false, fmt.Errorf("%s: %s", e.Code, e.Description))
	}
	if len(body.Chart.Result) == 0 {
		return nil, c.notFound(symbol)
	}
	return &body.Chart.Result[0], nil
}

func (c *Client) classify(symbol models.Symbol, err error) error {
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		// transport failure, timeout or undecodable body
		return c.providerErr(symbol, true, err)
	}
	switch {
	case se.Code == http.StatusNotFound:
		return c.notFound(symbol)
	case se.Temporary():
		return c.providerErr(symbol, true, err)
	default:
		return c.providerErr(symbol, false, err)
	}
}

func (c *Client) providerErr(symbol models.Symbol, temporary bool, err error) error {
	return &models.ProviderError{Symbol: symbol, Provider: ProviderName, Temporary: temporary, Err: err}
}

// notFound is a permanent provider failure that still matches
// models.ErrSymbolNotFound.
func (c *Client) notFound(symbol models.Symbol) error {
	return c.providerErr(symbol, false, models.ErrSymbolNotFound)
}

func isNotFound(e *chartError) bool {
	return strings.EqualFold(e.Code, "Not Found") || strings.Contains(strings.ToLower(e.Description), "no data found")
}
