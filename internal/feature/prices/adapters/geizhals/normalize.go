package geizhals

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"pricewatch_backend/internal/feature/prices/usecase"
)

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.,]`)
	// dotThousands matches "1.234" and "12.345.678": dots used only for grouping.
	dotThousands = regexp.MustCompile(`^[1-9]\d{0,2}(\.\d{3})+$`)
	// commaThousands matches "1,234,567".
	commaThousands = regexp.MustCompile(`^[1-9]\d{0,2}(,\d{3}){2,}$`)
)

// NormalizePrice converts displayed price text such as "€ 1.234,56" into a
// number rounded to cents.
//
// Separator rules:
//   - both "." and "," present: the right-most one is the decimal separator
//   - only ",": decimal separator (unless it repeats in thousands groups)
//   - only ".": thousands separator when every group after it has three digits,
//     decimal separator otherwise
func NormalizePrice(text string) (float64, error) {
	s := nonPriceChars.ReplaceAllString(text, "")
	s = strings.Trim(s, ".,")
	if s == "" {
		return 0, fmt.Errorf("%w: no digits in %q", usecase.ErrPriceNotFound, text)
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if commaThousands.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0:
		if dotThousands.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: unparsable %q", usecase.ErrPriceNotFound, text)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: non-positive %q", usecase.ErrPriceNotFound, text)
	}
	f, _ := d.Float64()
	return f, nil
}
