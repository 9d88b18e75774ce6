// Package money implements the fixed-point amount used for every price and bid.
package money

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Places is the number of fractional digits kept for every amount (cents).
const Places int32 = 2

const (
	maxExponent = 18
	// Decimal128 holds 34 significant digits, two of them are cents.
	maxIntegerDigits = 32
)

var (
	ErrInvalid   = errors.New("invalid amount")
	ErrPrecision = errors.New("amount has more than 2 decimal places")
)

// Money is a decimal amount with cent precision. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

func New(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(Places)}
}

// Parse reads a decimal string such as "1200" or "1200.50". Amounts finer than a cent are
// rejected instead of rounded. Exponents are bounded before any rounding so "1e-20000000" is
// refused without building a huge coefficient.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, errors.Wrapf(ErrInvalid, "parse %q: %v", s, err)
	}
	switch exp := d.Exponent(); {
	case exp < -maxExponent:
		return Money{}, errors.Wrapf(ErrPrecision, "parse %q: exponent %d", s, exp)
	case exp > maxExponent:
		return Money{}, errors.Wrapf(ErrInvalid, "parse %q: exponent %d", s, exp)
	case d.NumDigits()+int(exp) > maxIntegerDigits:
		return Money{}, errors.Wrapf(ErrInvalid, "parse %q: more than %d integer digits", s, maxIntegerDigits)
	}
	if !d.Equal(d.Round(Places)) {
		return Money{}, errors.Wrapf(ErrPrecision, "parse %q", s)
	}
	return Money{d: d.Round(Places)}, nil
}

func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulRate multiplies by a dimensionless rate and rounds to cents.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{d: m.d.Mul(rate).Round(Places)}
}

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) LessThanOrEqual(o Money) bool { return m.d.LessThanOrEqual(o.d) }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsZero() bool { return m.d.IsZero() }

// Cents returns the amount in the smallest currency unit.
func (m Money) Cents() int64 { return m.d.Shift(Places).IntPart() }

func (m Money) String() string { return m.d.StringFixed(Places) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted strings and bare JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalBSONValue stores amounts as Decimal128 so mongo compares and sorts them numerically.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.String())
	if err != nil {
		return 0, nil, errors.Wrapf(err, "error converting %s to Decimal128", m.String())
	}
	return bsontype.Decimal128, bsoncore.AppendDecimal128(nil, d128), nil
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Decimal128:
		d128, _, ok := bsoncore.ReadDecimal128(data)
		if !ok {
			return errors.Wrap(ErrInvalid, "truncated Decimal128")
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return errors.Wrapf(ErrInvalid, "decode Decimal128 %s: %v", d128.String(), err)
		}
		*m = FromDecimal(d)
		return nil
	case bsontype.String:
		s, _, ok := bsoncore.ReadString(data)
		if !ok {
			return errors.Wrap(ErrInvalid, "truncated string")
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case bsontype.Null:
		*m = Money{}
		return nil
	}
	return errors.Wrapf(ErrInvalid, "cannot decode BSON type %s into Money", t)
}
