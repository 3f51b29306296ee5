package strategy

import (
	"errors"
	"strings"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/order"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Common parameter names.
const (
	ParamSymbol        = "symbol"
	ParamQuantity      = "quantity"
	ParamStockQuantity = "stock_quantity"
	ParamOrderType     = "order_type"
	ParamPrice         = "price"
	ParamDuration      = "duration"
	ParamSession       = "session"
)

// Params carries the named inputs of a build request. Values may be strings,
// numbers, decimals or times; getters coerce them.
type Params map[string]any

func (p Params) has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// String returns the trimmed value of key, or "" when absent.
func (p Params) String(key string) string {
	if !p.has(key) {
		return ""
	}
	return strings.TrimSpace(cast.ToString(p[key]))
}

// RequireString fails with MissingParameter when key is absent.
func (p Params) RequireString(key string) (string, error) {
	s := p.String(key)
	if s == "" {
		return "", apierr.Missing(key)
	}
	return s, nil
}

// PositiveInt reads a required whole number greater than zero.
func (p Params) PositiveInt(key string) (int, error) {
	if !p.has(key) {
		return 0, apierr.Missing(key)
	}
	n, err := cast.ToIntE(p[key])
	if err != nil {
		return 0, &apierr.ValidationError{Kind: apierr.MissingParameter, Field: key, Value: cast.ToString(p[key]), Msg: "not an integer"}
	}
	if n <= 0 {
		return 0, apierr.Invalid(key, cast.ToString(p[key]), "must be positive")
	}
	return n, nil
}

// Decimal reads a required decimal value.
func (p Params) Decimal(key string) (decimal.Decimal, error) {
	if !p.has(key) {
		return decimal.Zero, apierr.Missing(key)
	}
	d, err := toDecimal(p[key])
	if err != nil {
		return decimal.Zero, &apierr.ValidationError{Kind: apierr.MissingParameter, Field: key, Value: cast.ToString(p[key]), Msg: "not a number"}
	}
	return d, nil
}

// OptionalDecimal returns nil when key is absent.
func (p Params) OptionalDecimal(key string) (*decimal.Decimal, error) {
	if !p.has(key) {
		return nil, nil
	}
	d, err := p.Decimal(key)
	if err != nil {
		return nil, apierr.Invalid(key, cast.ToString(p[key]), "not a number")
	}
	return &d, nil
}

// Expiration reads a required expiration date.
func (p Params) Expiration(key string) (time.Time, error) {
	if !p.has(key) {
		return time.Time{}, apierr.Missing(key)
	}
	switch v := p[key].(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	default:
		if t, err := order.ParseExpiration(cast.ToString(v)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &apierr.ValidationError{Kind: apierr.MissingParameter, Field: key, Value: cast.ToString(p[key]), Msg: "expected YYYY-MM-DD"}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x != nil {
			return *x, nil
		}
		return decimal.Zero, errors.New("nil decimal")
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}
