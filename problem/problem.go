// Package problem classifies failures into the problem kinds returned to API clients.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"currency-api/domain"
	"currency-api/exchange"
	"currency-api/rates"
)

// Kind a category of problem, identified by a stable URI.
type Kind string

const (
	BadRequest          Kind = "https://currency.lancastrian.dev/probs/bad-request"
	UnsupportedCurrency Kind = "https://currency.lancastrian.dev/probs/unsupported-currency"
	ServiceUnavailable  Kind = "https://currency.lancastrian.dev/probs/service-unavailable"
)

// ContentType of problem responses
const ContentType = "application/problem+json"

// Status is the HTTP status code of problems of kind k.
func (k Kind) Status() int {
	switch k {
	case BadRequest, UnsupportedCurrency:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// Title is a short human-readable summary of k.
func (k Kind) Title() string {
	switch k {
	case BadRequest:
		return "Bad Request"
	case UnsupportedCurrency:
		return "Unsupported Currency"
	default:
		return "Service Unavailable"
	}
}

// Problem the body of an error response. Field order is fixed so encoding is deterministic.
type Problem struct {
	Type   Kind                `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors []domain.FieldError `json:"errors,omitempty"`
	Code   string              `json:"code,omitempty"`
}

func (p *Problem) Error() string {
	return p.Title
}

// NewBadRequest builds a BadRequest problem listing the rejected fields.
func NewBadRequest(fields ...domain.FieldError) *Problem {
	return &Problem{
		Type:   BadRequest,
		Title:  BadRequest.Title(),
		Status: BadRequest.Status(),
		Errors: fields,
	}
}

// NewUnsupportedCurrency builds an UnsupportedCurrency problem for code.
func NewUnsupportedCurrency(code domain.CurrencyCode) *Problem {
	return &Problem{
		Type:   UnsupportedCurrency,
		Title:  UnsupportedCurrency.Title(),
		Status: UnsupportedCurrency.Status(),
		Code:   code.String(),
	}
}

// NewServiceUnavailable builds a ServiceUnavailable problem.
func NewServiceUnavailable() *Problem {
	return &Problem{
		Type:   ServiceUnavailable,
		Title:  ServiceUnavailable.Title(),
		Status: ServiceUnavailable.Status(),
	}
}

// From classifies err into exactly one problem kind.
// field names the input that caused input-parsing errors which carry no field of their own.
// Errors that cannot be classified are reported as ServiceUnavailable.
func From(err error, field string) *Problem {
	var (
		p           *Problem
		verr        *domain.ValidationError
		unsupported *exchange.UnsupportedCurrencyError
	)
	switch {
	case errors.As(err, &p):
		return p
	case errors.As(err, &verr):
		return NewBadRequest(verr.Fields...)
	case errors.As(err, &unsupported):
		return NewUnsupportedCurrency(unsupported.Code)
	case errors.Is(err, rates.ErrBaseMismatch):
		return NewBadRequest(domain.FieldError{Field: "base", Description: err.Error()})
	case errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrIncorrectFormat),
		errors.Is(err, exchange.ErrInvalidConfiguration):
		return NewBadRequest(domain.FieldError{Field: field, Description: err.Error()})
	default:
		return NewServiceUnavailable()
	}
}

// Write encodes p as the response.
func Write(w http.ResponseWriter, p *Problem) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
