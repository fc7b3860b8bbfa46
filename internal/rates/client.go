// Package rates fetches currency exchange rates from an external API and
// caches them per base currency.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/cache"
	"spendwise/internal/log"
)

// ErrUnavailable is returned when the upstream API cannot answer.
var ErrUnavailable = errors.New("exchange rates unavailable")

// ErrUnsupportedCurrency is returned for a conversion target the upstream
// does not quote.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Rates is the quoted table for one base currency.
type Rates struct {
	BaseCurrency string
	Rates        map[string]decimal.Decimal
	LastUpdated  time.Time
}

// Conversion is one amount converted between two currencies.
type Conversion struct {
	FromCurrency    string
	ToCurrency      string
	Amount          decimal.Decimal
	ConvertedAmount decimal.Decimal
	ExchangeRate    decimal.Decimal
	Timestamp       time.Time
}

// Client talks to an exchangerate host with URLs of the form
// {base}/{key}/latest/{CURRENCY}.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cached  *cache.LRU[Rates]
	logger  *log.Logger
}

func NewClient(baseURL, apiKey string, cached *cache.LRU[Rates], logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cached:  cached,
		logger:  logger.WithComponent(log.ComponentRates),
	}
}

type latestResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// Latest returns the rate table for baseCurrency, serving from cache while
// the entry is fresh.
func (c *Client) Latest(ctx context.Context, baseCurrency string) (Rates, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if base == "" {
		base = "USD"
	}

	if c.cached != nil {
		if rates, ok := c.cached.Get(base); ok {
			return rates, nil
		}
	}

	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Rates{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Exchange rate request failed", log.FieldError, err)
		return Rates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "Exchange rate request rejected",
			log.FieldStatusCode, resp.StatusCode)
		return Rates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Rates{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.Result != "success" {
		return Rates{}, fmt.Errorf("%w: result %q", ErrUnavailable, body.Result)
	}

	rates := Rates{
		BaseCurrency: base,
		Rates:        make(map[string]decimal.Decimal, len(body.ConversionRates)),
		LastUpdated:  time.Now().UTC(),
	}
	for currency, rate := range body.ConversionRates {
		rates.Rates[currency] = decimal.NewFromFloat(rate)
	}

	if c.cached != nil {
		c.cached.Set(base, rates)
	}
	return rates, nil
}

// Convert turns amount from one currency into another at the latest rate,
// rounded half-up to two decimals. Identical currencies short-circuit
// without a lookup.
func (c *Client) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return Conversion{
			FromCurrency:    from,
			ToCurrency:      to,
			Amount:          amount,
			ConvertedAmount: amount,
			ExchangeRate:    decimal.NewFromInt(1),
			Timestamp:       time.Now().UTC(),
		}, nil
	}

	rates, err := c.Latest(ctx, from)
	if err != nil {
		return Conversion{}, err
	}
	rate, ok := rates.Rates[to]
	if !ok {
		return Conversion{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, to)
	}

	return Conversion{
		FromCurrency:    from,
		ToCurrency:      to,
		Amount:          amount,
		ConvertedAmount: amount.Mul(rate).Round(2),
		ExchangeRate:    rate,
		Timestamp:       time.Now().UTC(),
	}, nil
}
