package provider

import (
	"context"
	"math"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/errs"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/ratelimit"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/util"
)

const (
	DefaultYahooURL = "https://query1.finance.yahoo.com"
	yahooChartPath  = "/v8/finance/chart/{symbol}"
	yahooLimitKey   = "yahoo"
)

type YahooConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Concurrency       int
	UserAgent         string
}

// Yahoo reads bars from the Yahoo Finance chart API.
type Yahoo struct {
	client      *resty.Client
	limiter     *ratelimit.Limiter
	concurrency int
	log         *logger.Logger
}

func NewYahoo(cfg YahooConfig, log *logger.Logger) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; ohlcv-ingest/1.0)"
	}
	if log == nil {
		log = logger.Nop()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	return &Yahoo{
		client:      client,
		limiter:     ratelimit.New(cfg.RequestsPerSecond, cfg.Burst),
		concurrency: cfg.Concurrency,
		log:         log.With(logger.String("provider", "yahoo")),
	}
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartResult struct {
	Meta struct {
		Symbol string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (r *chartResponse) message(fallback string) string {
	if r.Chart.Error != nil && r.Chart.Error.Description != "" {
		return r.Chart.Error.Description
	}
	return fallback
}

// chartQuery uses range for relative periods and period1/period2 when the
// period is an absolute start time.
func chartQuery(iv models.Interval, period string, now time.Time) map[string]string {
	q := map[string]string{"interval": string(iv)}
	if start, ok := util.ParseTime(period); ok {
		q["period1"] = strconv.FormatInt(start.Unix(), 10)
		q["period2"] = strconv.FormatInt(now.Unix(), 10)
		return q
	}
	q["range"] = period
	return q
}

func (y *Yahoo) FetchOne(ctx context.Context, symbol string, iv models.Interval, period string) (*models.Table, error) {
	return y.fetchChart(ctx, symbol, iv, period)
}

// fetchChart downloads one symbol's chart. The resty client and the limiter
// are safe for concurrent use, so FetchBatch fans out over it.
func (y *Yahoo) fetchChart(ctx context.Context, symbol string, iv models.Interval, period string) (*models.Table, error) {
	if err := y.limiter.Wait(ctx, yahooLimitKey); err != nil {
		return nil, err
	}

	var body chartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(chartQuery(iv, period, time.Now())).
		SetResult(&body).
		SetError(&body).
		Get(yahooChartPath)
	if err != nil {
		return nil, errs.Fetch(symbol, "chart request failed", err)
	}
	if !resp.IsSuccess() {
		return nil, errs.FromStatus(symbol, resp.StatusCode(), body.message(resp.Status()))
	}
	if body.Chart.Error != nil {
		return nil, errs.Fetch(symbol, body.message("chart error"), nil)
	}
	if len(body.Chart.Result) == 0 {
		return nil, errs.NoData(symbol)
	}

	table := toTable(symbol, body.Chart.Result[0])
	if table.Empty() {
		return nil, errs.NoData(symbol)
	}
	y.log.Debug("chart fetched", logger.Symbol(symbol), logger.Int("rows", len(table.Rows)))
	return table, nil
}

func (y *Yahoo) FetchBatch(ctx context.Context, symbols []string, iv models.Interval, period string) (*models.BatchTable, error) {
	return fetchEach(ctx, symbols, y.concurrency, func(ctx context.Context, symbol string) (*models.Table, error) {
		return y.fetchChart(ctx, symbol, iv, period)
	}, y.log)
}

// Close releases idle connections.
func (y *Yahoo) Close() error {
	return y.client.Close()
}

func toTable(symbol string, r chartResult) *models.Table {
	t := &models.Table{Symbol: symbol}
	if len(r.Indicators.Quote) == 0 {
		return t
	}
	q := r.Indicators.Quote[0]
	t.Rows = make([]models.Row, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		t.Rows = append(t.Rows, models.Row{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  at(q.Close, i),
			Volume: at(q.Volume, i),
		})
	}
	return t
}

// at returns NaN for nulls and short series.
func at(xs []*float64, i int) float64 {
	if i >= len(xs) || xs[i] == nil {
		return math.NaN()
	}
	return *xs[i]
}
