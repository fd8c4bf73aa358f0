package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-api/domain"
	"currency-api/exchange"
	"currency-api/rates"
)

const unavailableBody = `{"type":"https://currency.lancastrian.dev/probs/service-unavailable","title":"Service Unavailable","status":503}`

func newTestServer(t *testing.T, seeded bool) (*Server, *rates.MemoryStore) {
	t.Helper()
	store := rates.NewMemoryStore()
	if seeded {
		require.NoError(t, rates.Seed(context.Background(), store, time.Unix(1714564800, 0)))
	}
	metrics := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte("# metrics\n"))
	})
	return NewServer(exchange.NewService(store), store, log.NewNopLogger(), metrics), store
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	s.ServeHTTP(w, r)
	return w
}

func TestServer_ListRates(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "GET", "/v1/rates", "")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `[{"code":"AZN","rate":1.7},{"code":"GBP","rate":0.794593},{"code":"USD","rate":1}]`, strings.TrimSpace(w.Body.String()))
}

func TestServer_PairRate(t *testing.T) {
	server, _ := newTestServer(t, true)

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{
			"usd -> gbp",
			"/v1/rates?from=USD&to=gbp",
			200,
			"0.794593",
		},
		{
			"identity",
			"/v1/rates?from=AZN&to=AZN",
			200,
			"1",
		},
		{
			"unsupported",
			"/v1/rates?from=USD&to=XXX",
			400,
			`{"type":"https://currency.lancastrian.dev/probs/unsupported-currency","title":"Unsupported Currency","status":400,"code":"XXX"}`,
		},
		{
			"missing to",
			"/v1/rates?from=USD",
			400,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"to","description":"currency code must be 3 letters: \"\""}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, "GET", tt.target, "")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestServer_PairRateOutOfRange(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "POST", "/v1/rates", `{"timestamp":1714568400,"base":"USD","rates":{"XAU":1e-300,"VEF":1e300}}`)
	require.Equal(t, 202, w.Code)

	w = serve(server, "GET", "/v1/rates?from=XAU&to=VEF", "")

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"from"`)
	assert.NotContains(t, w.Body.String(), "Inf")
}

func TestServer_Convert(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "POST", "/v1/exchange", `{"from":{"code":"usd","amount":10},"to":"GBP"}`)

	require.Equal(t, 200, w.Code)
	var got struct {
		Code   string  `json:"code"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "GBP", got.Code)
	assert.InDelta(t, 7.94593, got.Amount, 1e-9)
}

func TestServer_ConvertProblems(t *testing.T) {
	server, _ := newTestServer(t, true)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{
			"unsupported to",
			`{"from":{"code":"USD","amount":1},"to":"XXX"}`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/unsupported-currency","title":"Unsupported Currency","status":400,"code":"XXX"}`,
		},
		{
			"unsupported from is reported first",
			`{"from":{"code":"YYY","amount":1},"to":"XXX"}`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/unsupported-currency","title":"Unsupported Currency","status":400,"code":"YYY"}`,
		},
		{
			"invalid fields",
			`{"from":{"code":"EURO"},"to":"1"}`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[` +
				`{"field":"from.code","description":"currency code must be 3 letters: \"EURO\""},` +
				`{"field":"from.amount","description":"must be set"},` +
				`{"field":"to","description":"currency code must be 3 letters: \"1\""}]}`,
		},
		{
			"invalid json",
			`{"from":`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"body","description":"invalid json"}]}`,
		},
		{
			"trailing data",
			`{"from":{"code":"USD","amount":1},"to":"GBP"} garbage`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"body","description":"invalid json"}]}`,
		},
		{
			"second document",
			`{"from":{"code":"USD","amount":1},"to":"GBP"}{"from":{"code":"USD","amount":2},"to":"AZN"}`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"body","description":"invalid json"}]}`,
		},
		{
			"result out of range",
			`{"from":{"code":"GBP","amount":1e308},"to":"AZN"}`,
			400,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[` +
				`{"field":"from.amount","description":"amount must be a finite number: GBP to AZN is out of range"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, "POST", "/v1/exchange", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestServer_ConvertWrongType(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "POST", "/v1/exchange", `{"from":{"code":"USD","amount":"ten"},"to":"GBP"}`)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"from.amount"`)
}

func TestServer_ConvertValue(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "GET", "/v1/exchange?value=2+USD&to=azn", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"code":"AZN","amount":3.4}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "GET", "/v1/exchange?value=1.7&to=usd", "")
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"value"`)
}

func TestServer_ConvertTrailingWhitespace(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "POST", "/v1/exchange", "{\"from\":{\"code\":\"USD\",\"amount\":2},\"to\":\"AZN\"}\n")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"code":"AZN","amount":3.4}`, strings.TrimSpace(w.Body.String()))
}

func TestServer_ConvertOutOfRange(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "GET", "/v1/exchange?value=1e308+GBP&to=AZN", "")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"field":"from.amount"`)
	assert.NotContains(t, w.Body.String(), "Inf")
}

func TestServer_StoreUnavailable(t *testing.T) {
	server, _ := newTestServer(t, false)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{"GET", "/v1/rates", ""},
		{"GET", "/v1/rates?from=USD&to=GBP", ""},
		{"GET", "/v1/rates/latest", ""},
		{"POST", "/v1/exchange", `{"from":{"code":"USD","amount":1},"to":"GBP"}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := serve(server, tt.method, tt.target, tt.body)

			assert.Equal(t, 503, w.Code)
			assert.Equal(t, unavailableBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestServer_IngestRates(t *testing.T) {
	server, store := newTestServer(t, true)

	w := serve(server, "POST", "/v1/rates", `{"timestamp":1714568400,"base":"USD","rates":{"GBP":0.8,"EUR":1}}`)

	assert.Equal(t, 202, w.Code)
	assert.Equal(t, `{"timestamp":1714568400,"base":"USD","accepted":3}`, strings.TrimSpace(w.Body.String()))

	snapshot, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1714568400, 0).UTC(), snapshot.Timestamp())
	rate, ok := snapshot.Rate(domain.MustParseCode("GBP"))
	assert.True(t, ok)
	assert.Equal(t, domain.Rate(0.8), rate)

	w = serve(server, "GET", "/v1/rates?from=GBP&to=EUR", "")
	assert.Equal(t, "1.25", w.Body.String())
}

func TestServer_IngestRatesRejectsInvalid(t *testing.T) {
	server, store := newTestServer(t, false)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"bad codes",
			`{"timestamp":1714568400,"base":"USDX","rates":{"GBP":0.8,"GBPX":2}}`,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[` +
				`{"field":"base","description":"currency code must be 3 letters: \"USDX\""},` +
				`{"field":"rates.GBPX","description":"currency code must be 3 letters: \"GBPX\""}]}`,
		},
		{
			"negative rate",
			`{"timestamp":1714568400,"base":"USD","rates":{"GBP":-1}}`,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"rates.GBP","description":"must be greater than zero"}]}`,
		},
		{
			"missing timestamp",
			`{"base":"USD","rates":{"GBP":0.8}}`,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"timestamp","description":"must be a positive unix time"}]}`,
		},
		{
			"base rate not one",
			`{"timestamp":1714568400,"base":"USD","rates":{"USD":2}}`,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"rates.USD","description":"base currency rate must be 1"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, "POST", "/v1/rates", tt.body)

			assert.Equal(t, 400, w.Code)
			assert.Equal(t, tt.want, strings.TrimSpace(w.Body.String()))
		})
	}

	assert.Equal(t, 0, store.Len())
}

func TestServer_IngestRatesBaseMismatch(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "POST", "/v1/rates", `{"timestamp":1714564800,"base":"GBP","rates":{"USD":1.25}}`)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"base"`)
}

func TestServer_LatestRates(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "GET", "/v1/rates/latest", "")

	require.Equal(t, 200, w.Code)
	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, "USD", snapshot.Base().String())
	assert.Equal(t, 3, snapshot.Len())
}

func TestServer_Currencies(t *testing.T) {
	server, _ := newTestServer(t, true)

	w := serve(server, "POST", "/v1/currencies", `[{"code":"eur","name":"Euro"}]`)
	assert.Equal(t, 202, w.Code)
	assert.Equal(t, `{"accepted":1}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "GET", "/v1/currencies", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t,
		`[{"code":"AZN","name":"Azerbaijani Manat"},{"code":"EUR","name":"Euro"},{"code":"GBP","name":"British Pound Sterling"},{"code":"USD","name":"United States Dollar"}]`,
		strings.TrimSpace(w.Body.String()))

	w = serve(server, "POST", "/v1/currencies", `[{"code":"EURO","name":"Euro"}]`)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"[0].code"`)
}

func TestServer_CurrenciesEmpty(t *testing.T) {
	server, _ := newTestServer(t, false)

	w := serve(server, "GET", "/v1/currencies", "")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `[]`, strings.TrimSpace(w.Body.String()))
}

func TestServer_Ambient(t *testing.T) {
	server, _ := newTestServer(t, false)

	w := serve(server, "GET", "/healthz", "")
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = serve(server, "GET", "/metrics", "")
	assert.Equal(t, "# metrics\n", w.Body.String())

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = serve(server, "DELETE", "/v1/rates", "")
	assert.Equal(t, 405, w.Code)
}
