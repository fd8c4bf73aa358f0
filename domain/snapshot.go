package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ValidationError collects every field rejected while building a value.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Description)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a rejected field.
func (e *ValidationError) Add(field, description string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Description: description})
}

// OrNil returns e if any field was rejected, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Snapshot an immutable set of exchange rates observed at one point in time.
//
// Rates are expressed as units of a currency per one unit of the base currency.
// The base currency is always present with a rate of exactly 1.
type Snapshot struct {
	disclaimer string
	license    string
	timestamp  time.Time
	base       CurrencyCode
	rates      Rates
}

// NewSnapshot validates its inputs and builds a Snapshot. It is the only way to obtain one.
// When rates has no entry for base, one is added with a rate of 1.
// The timestamp is kept in UTC at second precision, the precision of the unix time wire form.
func NewSnapshot(disclaimer, license string, timestamp time.Time, base CurrencyCode, rates Rates) (*Snapshot, error) {
	verr := &ValidationError{}
	timestamp = timestamp.UTC().Truncate(time.Second)

	if timestamp.IsZero() {
		verr.Add("timestamp", "must be set")
	}
	if base.IsZero() {
		verr.Add("base", "must be set")
	}
	if len(rates) == 0 {
		verr.Add("rates", "must not be empty")
	}

	copied := make(Rates, len(rates)+1)
	for _, code := range sortedCodes(rates) {
		rate := rates[code]
		switch {
		case code.IsZero():
			verr.Add("rates", "contains an empty currency code")
		case math.IsNaN(float64(rate)) || math.IsInf(float64(rate), 0):
			verr.Add("rates."+code.String(), "must be a finite number")
		case rate <= 0:
			verr.Add("rates."+code.String(), "must be greater than zero")
		case code == base && rate != 1:
			verr.Add("rates."+code.String(), "base currency rate must be 1")
		default:
			copied[code] = rate
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	copied[base] = 1
	return &Snapshot{
		disclaimer: disclaimer,
		license:    license,
		timestamp:  timestamp,
		base:       base,
		rates:      copied,
	}, nil
}

func (s *Snapshot) Disclaimer() string { return s.disclaimer }

func (s *Snapshot) License() string { return s.license }

func (s *Snapshot) Timestamp() time.Time { return s.timestamp }

func (s *Snapshot) Base() CurrencyCode { return s.base }

// Rate returns the rate for code and whether the snapshot has one.
func (s *Snapshot) Rate(code CurrencyCode) (Rate, bool) {
	rate, ok := s.rates[code]
	return rate, ok
}

// Rates returns a copy of the snapshot's rates.
func (s *Snapshot) Rates() Rates {
	rates := make(Rates, len(s.rates))
	for k, v := range s.rates {
		rates[k] = v
	}
	return rates
}

// Codes returns the snapshot's currency codes in ascending order.
func (s *Snapshot) Codes() []CurrencyCode {
	return sortedCodes(s.rates)
}

func (s *Snapshot) Len() int { return len(s.rates) }

// snapshotJSON the Open Exchange Rates "latest.json" layout
type snapshotJSON struct {
	Disclaimer string             `json:"disclaimer"`
	License    string             `json:"license"`
	Timestamp  int64              `json:"timestamp"`
	Base       string             `json:"base"`
	Rates      map[string]float64 `json:"rates"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	rates := make(map[string]float64, len(s.rates))
	for k, v := range s.rates {
		rates[k.String()] = float64(v)
	}
	return json.Marshal(snapshotJSON{
		Disclaimer: s.disclaimer,
		License:    s.license,
		Timestamp:  s.timestamp.Unix(),
		Base:       s.base.String(),
		Rates:      rates,
	})
}

// UnmarshalJSON decodes the Open Exchange Rates layout, validating it with NewSnapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	snapshot, err := SnapshotFromWire(raw.Disclaimer, raw.License, raw.Timestamp, raw.Base, raw.Rates)
	if err != nil {
		return err
	}
	*s = *snapshot
	return nil
}

// SnapshotFromWire builds a Snapshot from untyped input, reporting every bad code or rate
// as a field error. timestamp is in unix seconds.
func SnapshotFromWire(disclaimer, license string, timestamp int64, base string, rates map[string]float64) (*Snapshot, error) {
	verr := &ValidationError{}

	baseCode, err := ParseCode(base)
	if err != nil {
		verr.Add("base", err.Error())
	}

	if timestamp <= 0 {
		verr.Add("timestamp", "must be a positive unix time")
	}

	keys := make([]string, 0, len(rates))
	for k := range rates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	typed := make(Rates, len(rates))
	for _, k := range keys {
		code, err := ParseCode(k)
		if err != nil {
			verr.Add("rates."+k, err.Error())
			continue
		}
		if _, dup := typed[code]; dup {
			verr.Add("rates."+k, "duplicate currency code")
			continue
		}
		typed[code] = Rate(rates[k])
	}

	if len(rates) == 0 {
		verr.Add("rates", "must not be empty")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return NewSnapshot(disclaimer, license, time.Unix(timestamp, 0), baseCode, typed)
}

func sortedCodes(rates Rates) []CurrencyCode {
	codes := make([]CurrencyCode, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].code < codes[j].code })
	return codes
}
