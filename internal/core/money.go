// Package core provides money parsing and handling utilities.
//
// This file contains the fixed-point currency type used by every financial
// field of the ledger. Amounts carry two decimal places and at most twelve
// significant digits, matching the DECIMAL(12,2) storage layout.
package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	moneyPlaces    = 2
	moneyMaxDigits = 12
)

// maxMoney is the first magnitude that no longer fits in DECIMAL(12,2).
var maxMoney = decimal.New(1, moneyMaxDigits-moneyPlaces)

var moneyType = reflect.TypeOf(Money{})

// Money is a currency amount. The zero value prints as 0.00 but counts as
// missing: Validate rejects it until a value is parsed, scanned or computed.
type Money struct {
	decimal.Decimal
	present bool
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d, present: true}
}

// ParseMoney parses a decimal string such as "150.00" or "25".
//
// Both dot and comma separators are accepted. The value is not rounded:
// inputs with more than two fractional digits fail Validate. Errors carry no
// field name; callers know which field they were parsing.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, errors.New("empty value")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("not a decimal number: %q", s)
	}
	return NewMoney(d), nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// IsSet reports whether the amount was given.
func (m Money) IsSet() bool {
	return m.present
}

// Validate checks the amount was given and fits DECIMAL(12,2). Negative
// amounts are allowed.
func (m Money) Validate(field string) error {
	if !m.present {
		return invalid(field, "required")
	}
	if !m.Decimal.Equal(m.Decimal.Round(moneyPlaces)) {
		return invalid(field, "more than 2 decimal places")
	}
	if m.Decimal.Abs().GreaterThanOrEqual(maxMoney) {
		return invalid(field, fmt.Sprintf("more than %d digits", moneyMaxDigits))
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return NewMoney(m.Decimal.Add(o.Decimal))
}

func (m Money) Sub(o Money) Money {
	return NewMoney(m.Decimal.Sub(o.Decimal))
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// String formats the amount with exactly two decimals, e.g. "50.00".
func (m Money) String() string {
	return m.Decimal.StringFixed(moneyPlaces)
}

// MarshalJSON encodes the amount as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number. null and ""
// leave the amount unset. A malformed amount is reported as a
// *json.UnmarshalTypeError so the decoder names the offending field.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return &json.UnmarshalTypeError{Value: fmt.Sprintf("amount %q", raw), Type: moneyType}
	}
	*m = parsed
	return nil
}

// AmountFieldError converts a decoding failure on a Money field into a
// ValidationError for that field. Other errors are returned unchanged.
func AmountFieldError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Type == moneyType {
		field := typeErr.Field
		if field == "" {
			field = "amount"
		}
		return invalid(field, "not a decimal number")
	}
	return err
}

// Value stores the amount as fixed-point text so SQLite never rounds it.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads text, blob or numeric columns.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

// SumMoney adds amounts exactly. An empty input sums to zero.
func SumMoney(amounts ...Money) Money {
	total := NewMoney(decimal.Zero)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
