package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexAmount is a monetary amount ingested from legacy records where the same
// field may arrive as a JSON number, a formatted string ("12,500.50"), null,
// or garbage. The normalization rule is applied once at the boundary: strip
// thousands separators and surrounding whitespace, parse as decimal, and fall
// back to zero on any failure. All arithmetic downstream sees a clean decimal.
type FlexAmount struct {
	decimal.Decimal
}

// NewFlexAmount wraps a decimal in a FlexAmount
func NewFlexAmount(d decimal.Decimal) FlexAmount {
	return FlexAmount{Decimal: d}
}

// FlexAmountFromString normalizes a raw string into a FlexAmount
func FlexAmountFromString(raw string) FlexAmount {
	return FlexAmount{Decimal: normalizeAmount(raw)}
}

// normalizeAmount applies the universal coercion rule
func normalizeAmount(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UnmarshalJSON accepts numbers, formatted strings and null
func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			f.Decimal = decimal.Zero
			return nil
		}
		f.Decimal = normalizeAmount(str)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.Decimal = decimal.Zero
		return nil
	}
	f.Decimal = d
	return nil
}

// MarshalJSON emits the amount as a JSON number string with 2dp stability
func (f FlexAmount) MarshalJSON() ([]byte, error) {
	return []byte(f.Decimal.String()), nil
}

// Scan implements sql.Scanner, tolerating the mixed column types legacy data
// was migrated with
func (f *FlexAmount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		f.Decimal = decimal.Zero
	case string:
		f.Decimal = normalizeAmount(v)
	case []byte:
		f.Decimal = normalizeAmount(string(v))
	case float64:
		f.Decimal = decimal.NewFromFloat(v)
	case int64:
		f.Decimal = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("cannot scan %T into FlexAmount", value)
	}
	return nil
}

// Value implements driver.Valuer
func (f FlexAmount) Value() (driver.Value, error) {
	return f.Decimal.String(), nil
}

// FlexString is a string field that legacy records sometimes carry as a JSON
// number (po_number is the usual offender). Comparisons between documents must
// coerce both sides to strings; this type does the coercion at ingestion.
type FlexString string

// UnmarshalJSON accepts strings, numbers and null
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(str))
		return nil
	}
	// Numeric form: render integers without an exponent or trailing zeros.
	if d, err := decimal.NewFromString(s); err == nil {
		*f = FlexString(d.String())
		return nil
	}
	*f = FlexString(s)
	return nil
}

// String returns the normalized string form
func (f FlexString) String() string {
	return string(f)
}

// NormalizeRef coerces any po_number-like value to its canonical string form
// so that "3041" and 3041 compare equal
func NormalizeRef(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case FlexString:
		return strings.TrimSpace(string(s))
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}

// Round2 rounds a derived monetary figure to two decimal places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundWhole rounds to whole currency units (used for statutory TCS)
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
