// Package provider fetches exchange rates from Open Exchange Rates.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"currency-api/domain"
)

const ApiUrlBase = "https://openexchangerates.org/api"

// ErrUnexpectedResponse is returned when the provider answers with a non-2xx status.
var ErrUnexpectedResponse = errors.New("unexpected response from rates provider")

// Provider an upstream source of exchange rates
type Provider interface {
	// Latest loads the most recent rates published by the provider.
	Latest(ctx context.Context) (*domain.Snapshot, error)

	// Currencies loads the directory of currencies the provider knows about.
	Currencies(ctx context.Context) ([]domain.CurrencyName, error)
}

// client Open Exchange Rates API
type client struct {
	// url base API url
	url string

	// token sent with every request
	token string

	// http for HTTP requests
	http http.Client
}

// New constructs a Provider for the Open Exchange Rates API at url.
// An empty url selects ApiUrlBase.
func New(url, token string) Provider {
	if url == "" {
		url = ApiUrlBase
	}
	return &client{
		url:   url,
		token: token,
		http: http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Latest loads the current rates. The response passes through the snapshot
// validation so a malformed payload never reaches a store.
func (c *client) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := c.get(ctx, "/latest.json", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Currencies loads the currency directory, sorted by code.
func (c *client) Currencies(ctx context.Context) ([]domain.CurrencyName, error) {
	var response map[domain.CurrencyCode]string
	if err := c.get(ctx, "/currencies.json", &response); err != nil {
		return nil, err
	}

	currencies := make([]domain.CurrencyName, 0, len(response))
	for code, name := range response {
		currencies = append(currencies, domain.CurrencyName{Code: code, Name: name})
	}
	sort.Slice(currencies, func(i, j int) bool {
		return currencies[i].Code.String() < currencies[j].Code.String()
	})
	return currencies, nil
}

func (c *client) get(ctx context.Context, path string, v interface{}) error {
	url := c.url + path

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building http request: %w", err)
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Token "+c.token)
	}

	httpResponse, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return fmt.Errorf("%w: %v [%v]", ErrUnexpectedResponse, httpResponse.Status, path)
	}

	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("reading json: %w", err)
	}

	if err := json.Unmarshal(bytes, v); err != nil {
		return fmt.Errorf("decoding json [%v]: %w", path, err)
	}
	return nil
}
