// Package client talks to the currency HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"currency-api/domain"
	"currency-api/problem"
)

// ProblemError a problem response returned by the API
type ProblemError struct {
	problem.Problem
}

func (e *ProblemError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v (%v)", e.Title, e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, ": %v", e.Code)
	}
	for _, f := range e.Errors {
		fmt.Fprintf(&b, "; %v: %v", f.Field, f.Description)
	}
	return b.String()
}

// Client for the currency API
type Client struct {
	// url base API url
	url string

	// http for HTTP requests
	http http.Client
}

// New constructs a Client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		url: strings.TrimRight(baseURL, "/"),
		http: http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Convert converts from into to.
func (c *Client) Convert(ctx context.Context, from domain.Currency, to domain.CurrencyCode) (domain.Currency, error) {
	body := struct {
		From domain.Currency     `json:"from"`
		To   domain.CurrencyCode `json:"to"`
	}{from, to}

	var converted domain.Currency
	if err := c.do(ctx, http.MethodPost, "/v1/exchange", body, &converted); err != nil {
		return domain.Currency{}, err
	}
	return converted, nil
}

// Rate returns the value of one unit of from in to.
func (c *Client) Rate(ctx context.Context, from, to domain.CurrencyCode) (domain.Rate, error) {
	query := url.Values{"from": {from.String()}, "to": {to.String()}}

	var text string
	if err := c.do(ctx, http.MethodGet, "/v1/rates?"+query.Encode(), nil, &text); err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing rate [%v]: %w", text, err)
	}
	return domain.Rate(rate), nil
}

// Latest loads the latest snapshot held by the API.
func (c *Client) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/rates/latest", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// PushRates submits snapshot for ingestion and returns the number of rates accepted.
func (c *Client) PushRates(ctx context.Context, snapshot *domain.Snapshot) (int, error) {
	var response struct {
		Accepted int `json:"accepted"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/rates", snapshot, &response); err != nil {
		return 0, err
	}
	return response.Accepted, nil
}

// Currencies loads the currency directory.
func (c *Client) Currencies(ctx context.Context) ([]domain.CurrencyName, error) {
	var currencies []domain.CurrencyName
	if err := c.do(ctx, http.MethodGet, "/v1/currencies", nil, &currencies); err != nil {
		return nil, err
	}
	return currencies, nil
}

// PushCurrencies submits directory entries.
func (c *Client) PushCurrencies(ctx context.Context, currencies []domain.CurrencyName) error {
	return c.do(ctx, http.MethodPost, "/v1/currencies", currencies, nil)
}

// do sends a request, decoding a JSON response into out.
// When out is a *string the raw body is stored instead.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("building http request: %w", err)
	}
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	httpResponse, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("http %v: %w", strings.ToLower(method), err)
	}
	defer httpResponse.Body.Close()

	data, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if httpResponse.StatusCode >= 400 {
		return decodeProblem(httpResponse, data)
	}

	switch out := out.(type) {
	case nil:
		return nil
	case *string:
		*out = string(data)
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding json [%v]: %w", path, err)
		}
		return nil
	}
}

func decodeProblem(response *http.Response, body []byte) error {
	mediaType, _, _ := mime.ParseMediaType(response.Header.Get("Content-Type"))
	if mediaType == problem.ContentType {
		var p ProblemError
		if err := json.Unmarshal(body, &p.Problem); err == nil {
			return &p
		}
	}
	return fmt.Errorf("unexpected response: %v", response.Status)
}
