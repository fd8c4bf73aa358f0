package exchange

import (
	"errors"
	"fmt"
	"math"

	"currency-api/domain"
)

// ErrInvalidConfiguration is returned when a conversion is requested without a source
// currency, a target currency or a snapshot.
var ErrInvalidConfiguration = errors.New("invalid exchange configuration")

// UnsupportedCurrencyError reports a currency that the snapshot has no rate for.
type UnsupportedCurrencyError struct {
	Code domain.CurrencyCode
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency: %v", e.Code)
}

// Exchange converts from into the to currency using the rates of snapshot.
//
// Both rates are expressed relative to the snapshot's base, so the conversion goes
// through the base: from.Amount / rateFrom gives base units, multiplied by rateTo gives
// units of to. A result that does not fit in a float64 fails with domain.ErrInvalidAmount.
// Exchange has no side effects; concurrent calls may share a snapshot.
func Exchange(from domain.Currency, to domain.CurrencyCode, snapshot *domain.Snapshot) (domain.Currency, error) {
	switch {
	case snapshot == nil:
		return domain.Currency{}, fmt.Errorf("%w: missing snapshot", ErrInvalidConfiguration)
	case from.Code.IsZero():
		return domain.Currency{}, fmt.Errorf("%w: missing 'from' currency", ErrInvalidConfiguration)
	case to.IsZero():
		return domain.Currency{}, fmt.Errorf("%w: missing 'to' currency", ErrInvalidConfiguration)
	}

	if from.Code == to {
		return from, nil
	}

	rateFrom, ok := snapshot.Rate(from.Code)
	if !ok {
		return domain.Currency{}, &UnsupportedCurrencyError{Code: from.Code}
	}

	rateTo, ok := snapshot.Rate(to)
	if !ok {
		return domain.Currency{}, &UnsupportedCurrencyError{Code: to}
	}

	amount := float64(from.Amount) * (float64(rateTo) / float64(rateFrom))
	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return domain.Currency{}, fmt.Errorf("%w: %v to %v is out of range", domain.ErrInvalidAmount, from.Code, to)
	}

	return domain.Currency{Code: to, Amount: domain.Amount(amount)}, nil
}

// Rate is the amount of to that one unit of from buys.
func Rate(from, to domain.CurrencyCode, snapshot *domain.Snapshot) (domain.Rate, error) {
	result, err := Exchange(domain.Currency{Code: from, Amount: 1}, to, snapshot)
	if err != nil {
		return 0, err
	}
	return domain.Rate(result.Amount), nil
}
