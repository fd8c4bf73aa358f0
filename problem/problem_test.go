package problem

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"currency-api/domain"
	"currency-api/exchange"
	"currency-api/rates"
)

func TestFrom(t *testing.T) {
	xxx := domain.MustParseCode("XXX")
	_, codeErr := domain.ParseCode("EURO")
	_, formatErr := domain.ParseCurrency("12")

	tests := []struct {
		name   string
		err    error
		field  string
		want   Kind
		status int
	}{
		{"validation", &domain.ValidationError{Fields: []domain.FieldError{{Field: "rates.GBP", Description: "must be greater than zero"}}}, "", BadRequest, 400},
		{"invalid code", codeErr, "to", BadRequest, 400},
		{"incorrect format", formatErr, "value", BadRequest, 400},
		{"invalid configuration", fmt.Errorf("%w: missing 'to' currency", exchange.ErrInvalidConfiguration), "to", BadRequest, 400},
		{"base mismatch", fmt.Errorf("%w: stored USD, got GBP", rates.ErrBaseMismatch), "", BadRequest, 400},
		{"unsupported", fmt.Errorf("convert: %w", &exchange.UnsupportedCurrencyError{Code: xxx}), "", UnsupportedCurrency, 400},
		{"unavailable", fmt.Errorf("convert from [USD]: %w", rates.ErrUnavailable), "", ServiceUnavailable, 503},
		{"unclassified", errors.New("boom"), "", ServiceUnavailable, 503},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := From(tt.err, tt.field)
			assert.Equal(t, tt.want, p.Type)
			assert.Equal(t, tt.status, p.Status)
		})
	}
}

func TestFrom_FieldDetail(t *testing.T) {
	_, err := domain.ParseCode("EURO")
	p := From(err, "from.code")

	assert.Equal(t, []domain.FieldError{{Field: "from.code", Description: `currency code must be 3 letters: "EURO"`}}, p.Errors)
}

func TestWrite_IsDeterministic(t *testing.T) {
	tests := []struct {
		name    string
		problem *Problem
		status  int
		body    string
	}{
		{
			"bad request",
			NewBadRequest(domain.FieldError{Field: "to", Description: "must be set"}),
			http.StatusBadRequest,
			`{"type":"https://currency.lancastrian.dev/probs/bad-request","title":"Bad Request","status":400,"errors":[{"field":"to","description":"must be set"}]}`,
		},
		{
			"unsupported currency",
			NewUnsupportedCurrency(domain.MustParseCode("XXX")),
			http.StatusBadRequest,
			`{"type":"https://currency.lancastrian.dev/probs/unsupported-currency","title":"Unsupported Currency","status":400,"code":"XXX"}`,
		},
		{
			"service unavailable",
			NewServiceUnavailable(),
			http.StatusServiceUnavailable,
			`{"type":"https://currency.lancastrian.dev/probs/service-unavailable","title":"Service Unavailable","status":503}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 2; i++ {
				w := httptest.NewRecorder()
				Write(w, tt.problem)

				assert.Equal(t, tt.status, w.Code)
				assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
				assert.Equal(t, tt.body, strings.TrimSpace(w.Body.String()))
			}
		})
	}
}
