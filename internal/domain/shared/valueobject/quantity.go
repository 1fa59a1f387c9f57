package valueobject

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// QuantityScale is the number of fractional digits every Quantity carries
const QuantityScale int32 = 2

// Epsilon is the smallest representable difference between two quantities
var Epsilon = decimal.New(1, -QuantityScale)

// MaxQuantity is the largest amount a DECIMAL(10,2) column can hold
var MaxQuantity = decimal.RequireFromString("99999999.99")

// ErrNegativeQuantity is returned when a quantity would drop below zero
var ErrNegativeQuantity = errors.New("quantity cannot be negative")

// Quantity is a non-negative fixed-point amount of sample material.
// Every constructor and arithmetic result is rounded half-up to two
// decimals, so equality never depends on binary float representation.
// It is immutable - all operations return new Quantity instances
type Quantity struct {
	value decimal.Decimal
}

// NewQuantity creates a Quantity from a decimal, rounding to two places
func NewQuantity(value decimal.Decimal) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, ErrNegativeQuantity
	}
	return Quantity{value: round(value)}, nil
}

// NewQuantityFromString parses a decimal string such as "12.50"
func NewQuantityFromString(value string) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity string: %w", err)
	}
	return NewQuantity(d)
}

// NewQuantityFromInt creates a Quantity from a whole number
func NewQuantityFromInt(value int64) (Quantity, error) {
	return NewQuantity(decimal.NewFromInt(value))
}

// MustQuantity parses a decimal string and panics on error.
// Intended for constants and tests.
func MustQuantity(value string) Quantity {
	q, err := NewQuantityFromString(value)
	if err != nil {
		panic(err)
	}
	return q
}

// ZeroQuantity returns a zero quantity
func ZeroQuantity() Quantity {
	return Quantity{value: decimal.Zero}
}

// SumQuantities adds all quantities together
func SumQuantities(quantities ...Quantity) Quantity {
	total := decimal.Zero
	for _, q := range quantities {
		total = total.Add(q.value)
	}
	return Quantity{value: round(total)}
}

// HasValidScale reports whether d needs no rounding to fit the quantity scale
func HasValidScale(d decimal.Decimal) bool {
	return d.Equal(round(d))
}

// InStorageRange reports whether d is non-negative and no larger than MaxQuantity
func InStorageRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(MaxQuantity)
}

func round(d decimal.Decimal) decimal.Decimal {
	// Round is half away from zero, which is half-up for non-negative values.
	return d.Round(QuantityScale)
}

// Amount returns the decimal value
func (q Quantity) Amount() decimal.Decimal {
	return q.value
}

// IsZero returns true if the quantity is zero
func (q Quantity) IsZero() bool {
	return q.value.IsZero()
}

// ExceedsMax reports whether the quantity is too large to be stored
func (q Quantity) ExceedsMax() bool {
	return q.value.GreaterThan(MaxQuantity)
}

// IsPositive returns true if the quantity is greater than zero
func (q Quantity) IsPositive() bool {
	return q.value.IsPositive()
}

// Add returns the sum of both quantities
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{value: round(q.value.Add(other.value))}
}

// Sub returns q - other, failing when the result would be negative
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	result := q.value.Sub(other.value)
	if result.IsNegative() {
		return Quantity{}, ErrNegativeQuantity
	}
	return Quantity{value: round(result)}, nil
}

// SubFloorZero returns max(0, q - other)
func (q Quantity) SubFloorZero(other Quantity) Quantity {
	result := q.value.Sub(other.value)
	if result.IsNegative() {
		return ZeroQuantity()
	}
	return Quantity{value: round(result)}
}

// Min returns the smaller of both quantities
func (q Quantity) Min(other Quantity) Quantity {
	if other.value.LessThan(q.value) {
		return other
	}
	return q
}

// Cmp compares q and other and returns -1, 0 or +1
func (q Quantity) Cmp(other Quantity) int {
	return q.value.Cmp(other.value)
}

// Equals returns true if both quantities hold the same value
func (q Quantity) Equals(other Quantity) bool {
	return q.value.Equal(other.value)
}

// ApproxEqual reports whether the quantities differ by less than Epsilon
func (q Quantity) ApproxEqual(other Quantity) bool {
	return q.value.Sub(other.value).Abs().LessThan(Epsilon)
}

// LessThan returns true if this quantity is less than the other
func (q Quantity) LessThan(other Quantity) bool {
	return q.value.LessThan(other.value)
}

// GreaterThan returns true if this quantity is greater than the other
func (q Quantity) GreaterThan(other Quantity) bool {
	return q.value.GreaterThan(other.value)
}

// GreaterThanOrEqual returns true if this quantity is greater than or equal to the other
func (q Quantity) GreaterThanOrEqual(other Quantity) bool {
	return q.value.GreaterThanOrEqual(other.value)
}

// String returns the value with exactly two decimals, e.g. "30.00"
func (q Quantity) String() string {
	return q.value.StringFixed(QuantityScale)
}

// MarshalJSON encodes the quantity as a fixed-point string
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
// Negative values are rejected to keep the non-negative invariant.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		q.value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	parsed, err := NewQuantity(d)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (q Quantity) Value() (driver.Value, error) {
	return q.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
// Numeric columns arrive as strings from postgres and as int64/float64 from sqlite.
func (q *Quantity) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		if value == nil {
			q.value = decimal.Zero
			return nil
		}
		return fmt.Errorf("cannot scan %T into Quantity: %w", value, err)
	}
	q.value = round(d)
	return nil
}
