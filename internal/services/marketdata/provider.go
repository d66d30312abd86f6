// Package marketdata loads candles from a remote HTTP candle service.
package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	xhttp "FinSignal/pkg/http"
	"FinSignal/pkg/logger"
)

// candlesResponse is the payload of GET {base}/candles.
type candlesResponse struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Candles   []models.Candle `json:"candles"`
}

// Provider implements CandleStore over HTTP.
type Provider struct {
	base     string
	client   *xhttp.Client
	retryMax int
	l        *logger.Logger
}

var _ domrepo.CandleStore = (*Provider)(nil)

func NewProvider(baseURL string, timeout time.Duration, retryMax int, l *logger.Logger) *Provider {
	if l == nil {
		l = logger.Nop()
	}
	return &Provider{
		base:     strings.TrimRight(baseURL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		retryMax: retryMax,
		l:        l,
	}
}

func (p *Provider) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return p.fetch(ctx, symbol, tf, map[string][]string{
		"from": {from.UTC().Format(time.RFC3339)},
		"to":   {to.UTC().Format(time.RFC3339)},
	})
}

func (p *Provider) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	out, err := p.fetch(ctx, symbol, tf, map[string][]string{"limit": {strconv.Itoa(n)}})
	if err != nil {
		return nil, err
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (p *Provider) fetch(ctx context.Context, symbol string, tf domrepo.Timeframe, q map[string][]string) ([]models.Candle, error) {
	q["symbol"] = []string{symbol}
	q["timeframe"] = []string{string(tf)}
	opts := &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         p.base + "/candles",
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: q,
	}

	var (
		resp candlesResponse
		err  error
	)
	for attempt := 0; attempt <= p.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
		resp = candlesResponse{}
		if err = p.client.SendAndParse(ctx, opts, &resp); err == nil {
			return resp.Candles, nil
		}
		p.l.Warn("marketdata fetch failed",
			logger.String("symbol", symbol),
			logger.String("tf", string(tf)),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
		if !xhttp.Retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("fetch candles %s/%s: %w", symbol, tf, err)
}
