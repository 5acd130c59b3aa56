package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL  = "https://api.exchangerate-api.com/v4/latest/"
	DefaultRetryMax = 3
	DefaultTimeout  = 10 * time.Second
)

var (
	// ErrInvalidInput is returned for a non-positive amount or a missing code
	ErrInvalidInput = errors.New("invalid conversion request")

	// ErrUnknownCurrency is returned when a code has no exchange rate
	ErrUnknownCurrency = errors.New("unknown currency code")
)

// Conversion is the result of converting an amount between currencies
type Conversion struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from_currency"`
	To        string  `json:"to_currency"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted_amount"`
	Summary   string  `json:"summary"`
}

// Converter looks up exchange rates from an exchangerate-api compatible endpoint
type Converter struct {
	BaseURL string
	client  *http.Client
}

// NewConverter creates a converter with a retrying HTTP client
func NewConverter(baseURL string, retryMax int, timeout time.Duration, logger retryablehttp.LeveledLogger) *Converter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.RetryWaitMin = 100 * time.Millisecond
	retryableHTTPClient.RetryWaitMax = 2 * time.Second
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = logger
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryablehttp.DefaultRetryPolicy

	return &Converter{
		BaseURL: baseURL,
		client:  retryableHTTPClient.StandardClient(),
	}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Convert converts amount from one currency to another
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (*Conversion, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: both from and to currencies are required", ErrInvalidInput)
	}

	rates, err := c.fetchRates(ctx, from)
	if err != nil {
		return nil, err
	}

	fromRate, ok := rates[from]
	if !ok || fromRate == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := rates[to]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	rate := toRate / fromRate
	converted := amount * rate

	return &Conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Rate:      rate,
		Converted: converted,
		Summary:   fmt.Sprintf("%.2f %s is approximately %.2f %s.", amount, from, converted, to),
	}, nil
}

func (c *Converter) fetchRates(ctx context.Context, base string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+base, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rates request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, base)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate API returned %s", resp.Status)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode exchange rates: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, errors.New("could not retrieve exchange rates from the API")
	}

	return body.Rates, nil
}
