package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCode is returned when text is not a three letter currency code.
	ErrInvalidCode = errors.New("currency code must be 3 letters")

	// ErrInvalidAmount is returned when an amount is not a finite number.
	ErrInvalidAmount = errors.New("amount must be a finite number")

	// ErrIncorrectFormat is returned when a currency value is not of the form "<amount> <CODE>".
	ErrIncorrectFormat = errors.New(`currency value must be of the form "<amount> <CODE>"`)
)

// CurrencyCode a validated, upper-case, three letter currency code.
// The zero value is not a valid code and is used to mean "unset".
type CurrencyCode struct {
	code string
}

// ParseCode normalizes and validates a currency code.
func ParseCode(s string) (CurrencyCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if len(normalized) != 3 {
		return CurrencyCode{}, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	for i := 0; i < len(normalized); i++ {
		if c := normalized[i]; c < 'A' || c > 'Z' {
			return CurrencyCode{}, fmt.Errorf("%w: %q", ErrInvalidCode, s)
		}
	}
	return CurrencyCode{code: normalized}, nil
}

// MustParseCode is like ParseCode but panics on invalid input.
// Only use it with literals.
func MustParseCode(s string) CurrencyCode {
	code, err := ParseCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c CurrencyCode) String() string {
	return c.code
}

// IsZero reports whether c is the unset code.
func (c CurrencyCode) IsZero() bool {
	return c.code == ""
}

func (c CurrencyCode) MarshalText() ([]byte, error) {
	return []byte(c.code), nil
}

func (c *CurrencyCode) UnmarshalText(text []byte) error {
	code, err := ParseCode(string(text))
	if err != nil {
		return err
	}
	*c = code
	return nil
}

// Amount a monetary amount
type Amount float64

// Rate an exchange rate relative to a snapshot's base currency
type Rate float64

// Rates maps currency codes to rates
type Rates map[CurrencyCode]Rate

// Currency an amount of a given currency
type Currency struct {
	Code   CurrencyCode `json:"code"`
	Amount Amount       `json:"amount"`
}

// NewCurrency builds a Currency, rejecting non-finite amounts.
func NewCurrency(code CurrencyCode, amount float64) (Currency, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Currency{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return Currency{Code: code, Amount: Amount(amount)}, nil
}

// ParseCurrency parses the human form "<amount> <CODE>", e.g. "12.50 GBP".
func ParseCurrency(s string) (Currency, error) {
	tokens := strings.Fields(s)
	if len(tokens) != 2 {
		return Currency{}, fmt.Errorf("%w: %q", ErrIncorrectFormat, s)
	}

	amount, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return Currency{}, fmt.Errorf("%w: %q", ErrInvalidAmount, tokens[0])
	}

	code, err := ParseCode(tokens[1])
	if err != nil {
		return Currency{}, err
	}

	return NewCurrency(code, amount)
}

// String formats c as "<amount> <CODE>", the form accepted by ParseCurrency.
func (c Currency) String() string {
	return strconv.FormatFloat(float64(c.Amount), 'f', -1, 64) + " " + c.Code.String()
}

// CurrencyName an entry of the currency directory
type CurrencyName struct {
	Code CurrencyCode `json:"code"`
	Name string       `json:"name"`
}
