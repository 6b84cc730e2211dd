package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits (paise) every Money carries.
const Scale = 2

var (
	hundred = decimal.NewFromInt(100)

	ErrInvalidAmount = errors.New("invalid amount")
)

// Money is a fixed-precision rupee amount. The zero value is ₹0.00.
//
// Arithmetic never loses paise; rounding happens only where a caller asks
// for it (Round, RoundRupee, Percent).
type Money struct {
	d decimal.Decimal
}

func Zero() Money {
	return Money{}
}

func FromInt(rupees int64) Money {
	return Money{d: decimal.NewFromInt(rupees)}
}

// FromDecimal converts d, rounding half away from zero to paise.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// Parse reads a plain decimal string such as "1180.40". More than two
// fractional digits is rejected rather than silently rounded.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromExact(d)
}

// MustParse is Parse for literals; it panics on bad input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func fromExact(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(Scale)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), Scale)
	}
	return Money{d: d}, nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// Times multiplies by a whole quantity.
func (m Money) Times(qty int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))}
}

// Percent returns round(m * pct / 100) to paise.
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{d: m.d.Mul(pct).Div(hundred).Round(Scale)}
}

// Half returns round(m / 2) to paise. Callers splitting an amount should
// take the other share as m.Sub(m.Half()) so both parts sum back to m.
func (m Money) Half() Money {
	return Money{d: m.d.Div(decimal.NewFromInt(2)).Round(Scale)}
}

func (m Money) Round() Money { return Money{d: m.d.Round(Scale)} }

// RoundRupee rounds half away from zero to a whole rupee.
func (m Money) RoundRupee() Money { return Money{d: m.d.Round(0)} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Decimal() decimal.Decimal { return m.d }

// Rupees and Paise split the absolute value into its whole and fractional
// parts, e.g. 1180.40 -> 1180, 40.
func (m Money) Rupees() int64 {
	return m.d.Abs().Truncate(0).IntPart()
}

func (m Money) Paise() int64 {
	abs := m.d.Abs().Round(Scale)
	return abs.Sub(abs.Truncate(0)).Mul(hundred).IntPart()
}

// String formats with exactly two decimals.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// MarshalJSON encodes as a quoted fixed-point string so clients never see
// binary-float artefacts.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either "12.50" or 12.5.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	parsed, err := fromExact(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(value interface{}) error {
	if v, ok := value.(Money); ok {
		*m = v.Round()
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.d = d.Round(Scale)
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Sum adds a list of amounts.
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
