package marketdata

import (
	"slices"
	"strconv"
	"strings"

	"schwab/internal/apierr"
)

var (
	quoteFields    = []string{"quote", "fundamental", "extended", "reference", "regular"}
	contractTypes  = []string{"ALL", "CALL", "PUT"}
	chainRanges    = []string{"ITM", "NTM", "OTM", "ATM", "SAK", "SBK", "SNK", "ALL"}
	chainStrategy  = []string{"SINGLE", "ANALYTICAL", "COVERED", "VERTICAL", "CALENDAR", "STRANGLE", "STRADDLE", "BUTTERFLY", "CONDOR", "DIAGONAL", "COLLAR", "ROLL"}
	moverIndexes   = []string{"$DJI", "$COMPX", "$SPX", "NYSE", "NASDAQ", "OTCBB", "INDEX_ALL", "EQUITY_ALL", "OPTION_ALL", "OPTION_PUT", "OPTION_CALL"}
	moverSorts     = []string{"VOLUME", "TRADES", "PERCENT_CHANGE_UP", "PERCENT_CHANGE_DOWN"}
	moverFrequency = []int{0, 1, 5, 10, 30, 60}
	markets        = []string{"equity", "option", "bond", "future", "forex"}
	projections    = []string{"symbol-search", "symbol-regex", "desc-search", "desc-regex", "search", "fundamental"}
)

var periods = map[string][]int{
	"day":   {1, 2, 3, 4, 5, 10},
	"month": {1, 2, 3, 6},
	"year":  {1, 2, 3, 5, 10, 15, 20},
	"ytd":   {1},
}

var frequencyTypes = map[string][]string{
	"day":   {"minute"},
	"month": {"weekly", "daily"},
	"year":  {"monthly", "daily", "weekly"},
	"ytd":   {"weekly", "daily"},
}

var frequencies = map[string][]int{
	"minute":  {1, 5, 10, 15, 30},
	"daily":   {1},
	"weekly":  {1},
	"monthly": {1},
}

func validateFields(fields []string) (string, error) {
	var keep []string
	for _, f := range fields {
		for _, part := range strings.Split(f, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !slices.Contains(quoteFields, part) {
				return "", apierr.Invalid("fields", part, "expected one of "+strings.Join(quoteFields, ", "))
			}
			keep = append(keep, part)
		}
	}
	return strings.Join(keep, ","), nil
}

// oneOf upper-cases v and checks it against allowed. Empty passes through.
func oneOf(field, v string, allowed []string) (string, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" || slices.Contains(allowed, v) {
		return v, nil
	}
	return "", apierr.Invalid(field, v, "expected one of "+strings.Join(allowed, ", "))
}

func validateHistory(periodType string, period int, frequencyType string, frequency int) error {
	if periodType == "" {
		if period != 0 || frequencyType != "" {
			return apierr.Missing("periodType")
		}
	} else {
		allowed, ok := periods[periodType]
		if !ok {
			return apierr.Invalid("periodType", periodType, "expected day, month, year or ytd")
		}
		if period != 0 && !slices.Contains(allowed, period) {
			return apierr.Invalid("period", strconv.Itoa(period), "not allowed for periodType "+periodType)
		}
		if frequencyType != "" && !slices.Contains(frequencyTypes[periodType], frequencyType) {
			return apierr.Invalid("frequencyType", frequencyType, "not allowed for periodType "+periodType)
		}
	}
	if frequency == 0 {
		return nil
	}
	if frequencyType == "" {
		return apierr.Missing("frequencyType")
	}
	allowed, ok := frequencies[frequencyType]
	if !ok {
		return apierr.Invalid("frequencyType", frequencyType, "unknown frequency type")
	}
	if !slices.Contains(allowed, frequency) {
		return apierr.Invalid("frequency", strconv.Itoa(frequency), "not allowed for frequencyType "+frequencyType)
	}
	return nil
}
