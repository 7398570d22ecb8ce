package provider

import (
	"context"
	"errors"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	pmodels "github.com/polygon-io/client-go/rest/models"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/errs"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/ratelimit"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/util"
)

const polygonLimitKey = "polygon"

type PolygonConfig struct {
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Concurrency       int
}

// Polygon reads bars from the Polygon aggregates API.
type Polygon struct {
	client      *polygon.Client
	limiter     *ratelimit.Limiter
	concurrency int
	now         func() time.Time
	log         *logger.Logger
}

func NewPolygon(cfg PolygonConfig, log *logger.Logger) *Polygon {
	if log == nil {
		log = logger.Nop()
	}
	return &Polygon{
		client:      polygon.New(cfg.APIKey),
		limiter:     ratelimit.New(cfg.RequestsPerSecond, cfg.Burst),
		concurrency: cfg.Concurrency,
		now:         time.Now,
		log:         log.With(logger.String("provider", "polygon")),
	}
}

// aggSpan maps an interval onto Polygon's multiplier and timespan.
func aggSpan(iv models.Interval) (int, pmodels.Timespan, bool) {
	switch iv {
	case models.Interval1m:
		return 1, pmodels.Minute, true
	case models.Interval2m:
		return 2, pmodels.Minute, true
	case models.Interval5m:
		return 5, pmodels.Minute, true
	case models.Interval15m:
		return 15, pmodels.Minute, true
	case models.Interval30m:
		return 30, pmodels.Minute, true
	case models.Interval60m, models.Interval1h:
		return 1, pmodels.Hour, true
	case models.Interval90m:
		return 90, pmodels.Minute, true
	case models.Interval1d:
		return 1, pmodels.Day, true
	case models.Interval5d:
		return 5, pmodels.Day, true
	case models.Interval1wk:
		return 1, pmodels.Week, true
	case models.Interval1mo:
		return 1, pmodels.Month, true
	case models.Interval3mo:
		return 1, pmodels.Quarter, true
	default:
		return 0, "", false
	}
}

func (p *Polygon) FetchOne(ctx context.Context, symbol string, iv models.Interval, period string) (*models.Table, error) {
	return p.fetchAggs(ctx, symbol, iv, period)
}

// fetchAggs pages through one ticker's aggregates. The rest client and the
// limiter are safe for concurrent use, so FetchBatch fans out over it.
func (p *Polygon) fetchAggs(ctx context.Context, symbol string, iv models.Interval, period string) (*models.Table, error) {
	mult, span, ok := aggSpan(iv)
	if !ok {
		return nil, errs.Validation("unsupported interval "+string(iv), nil)
	}
	now := p.now().UTC()
	from, err := util.PeriodStart(now, period)
	if err != nil {
		return nil, errs.Validation("invalid period", err)
	}
	if err := p.limiter.Wait(ctx, polygonLimitKey); err != nil {
		return nil, err
	}

	it := p.client.ListAggs(ctx, &pmodels.ListAggsParams{
		Ticker:     symbol,
		Multiplier: mult,
		Timespan:   span,
		From:       pmodels.Millis(from),
		To:         pmodels.Millis(now),
	})

	t := &models.Table{Symbol: symbol}
	for it.Next() {
		a := it.Item()
		t.Rows = append(t.Rows, models.Row{
			Time:   time.Time(a.Timestamp).UTC(),
			Open:   a.Open,
			High:   a.High,
			Low:    a.Low,
			Close:  a.Close,
			Volume: a.Volume,
		})
	}
	if err := it.Err(); err != nil {
		return nil, polygonError(symbol, err)
	}
	if t.Empty() {
		return nil, errs.NoData(symbol)
	}
	return t, nil
}

func (p *Polygon) FetchBatch(ctx context.Context, symbols []string, iv models.Interval, period string) (*models.BatchTable, error) {
	return fetchEach(ctx, symbols, p.concurrency, func(ctx context.Context, symbol string) (*models.Table, error) {
		return p.fetchAggs(ctx, symbol, iv, period)
	}, p.log)
}

func polygonError(symbol string, err error) error {
	var resp *pmodels.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode != 0 {
		return errs.FromStatus(symbol, resp.StatusCode, resp.Error())
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errs.Fetch(symbol, "aggregates request failed", err)
}
