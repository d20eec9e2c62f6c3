package sources

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// troyOunceGrams converts the PAX Gold (one troy ounce) price to grams.
const troyOunceGrams = 31.1035

// DefaultUSDFallback is the IDR rate used when the forex source is down.
const DefaultUSDFallback = 16000

// FinanceFetcher combines Frankfurter (USD/IDR) and CoinGecko (BTC, ETH and
// PAX Gold). Only a CoinGecko failure fails the fetch.
type FinanceFetcher struct {
	Client      *Client
	ForexURL    string // default Frankfurter latest USD->IDR
	CryptoURL   string // default CoinGecko simple/price
	USDFallback float64
}

func (f *FinanceFetcher) Name() string { return "finance" }

func (f *FinanceFetcher) Fetch(ctx context.Context, _ Params) (any, error) {
	out := &Finance{}

	usd, err := f.usd(ctx)
	if err != nil {
		fb := f.USDFallback
		if fb <= 0 {
			fb = DefaultUSDFallback
		}
		usd = fb
		out.USDFallback = true
	}
	out.USD = Quote{Value: round(usd)}

	crypto, err := f.crypto(ctx)
	if err != nil {
		return nil, fmt.Errorf("finance: %w", err)
	}
	out.BTC = crypto["bitcoin"]
	out.ETH = crypto["ethereum"]
	if g, ok := crypto["pax-gold"]; ok {
		out.Gold = Quote{Value: round(float64(g.Value) / troyOunceGrams), Change: g.Change}
	}
	return out, nil
}

func (f *FinanceFetcher) usd(ctx context.Context) (float64, error) {
	u := f.ForexURL
	if u == "" {
		u = "https://api.frankfurter.app/latest?from=USD&to=IDR"
	}
	var r struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := f.Client.GetJSON(ctx, u, &r); err != nil {
		return 0, err
	}
	v, ok := r.Rates["IDR"]
	if !ok || v <= 0 {
		return 0, ErrNoData
	}
	return v, nil
}

func (f *FinanceFetcher) crypto(ctx context.Context) (map[string]Quote, error) {
	u := f.CryptoURL
	if u == "" {
		u = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,ethereum,pax-gold&vs_currencies=idr&include_24hr_change=true"
	}
	var r map[string]struct {
		IDR       float64 `json:"idr"`
		IDRChange float64 `json:"idr_24h_change"`
	}
	if err := f.Client.GetJSON(ctx, u, &r); err != nil {
		return nil, err
	}
	out := make(map[string]Quote, len(r))
	for id, v := range r {
		if v.IDR <= 0 {
			continue
		}
		out[strings.ToLower(id)] = Quote{Value: round(v.IDR), Change: math.Round(v.IDRChange*100) / 100}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func round(v float64) int64 { return int64(math.Round(v)) }
