package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const expirationLayout = "060102"

// OptionSymbol renders "{underlying} {strike} {C|P}".
func OptionSymbol(underlying string, strike decimal.Decimal, right Right) string {
	return fmt.Sprintf("%s %s %s", strings.ToUpper(strings.TrimSpace(underlying)), strike.String(), right)
}

// DatedOptionSymbol renders "{underlying} {strike} {YYMMDD} {C|P}" for legs
// whose expiration differs within one order.
func DatedOptionSymbol(underlying string, strike decimal.Decimal, expiration time.Time, right Right) string {
	return fmt.Sprintf("%s %s %s %s", strings.ToUpper(strings.TrimSpace(underlying)), strike.String(), expiration.Format(expirationLayout), right)
}

// ParseExpiration accepts 2006-01-02, 20060102 or 060102.
func ParseExpiration(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "20060102", expirationLayout} {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized expiration %q", s)
}
