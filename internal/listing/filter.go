package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookingcrm/internal/domain"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Record is one row handed to the list views: an id plus scalar fields
// (string, integers, floats, bool, time.Time, decimal.Decimal).
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Get returns the field value and whether the record carries it at all.
func (r Record) Get(field string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Condition constrains one record field.
type Condition interface {
	// Empty conditions place no constraint on the record.
	Empty() bool
	Match(v any, ok bool) bool
	validate(key string) error
}

// Eq requires the field to equal Value exactly.
type Eq struct {
	Value any
}

func (c Eq) Empty() bool {
	if c.Value == nil {
		return true
	}
	s, isStr := c.Value.(string)
	return isStr && s == ""
}

func (c Eq) Match(v any, ok bool) bool {
	if !ok {
		return false
	}
	return equalValues(v, c.Value)
}

func (c Eq) validate(key string) error {
	if c.Value == nil || isScalar(c.Value) {
		return nil
	}
	return domain.ValidationError{Field: key, Msg: fmt.Sprintf("unsupported filter value %T", c.Value)}
}

// DateRange matches dates within [Start, End]. A nil bound is open. An End
// at midnight covers that whole calendar day.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (c DateRange) Empty() bool { return c.Start == nil && c.End == nil }

func (c DateRange) Match(v any, ok bool) bool {
	if !ok {
		return false
	}
	t, parsed := asTime(v)
	if !parsed {
		return false
	}
	if c.Start != nil && t.Before(*c.Start) {
		return false
	}
	if c.End != nil {
		end := *c.End
		if isMidnight(end) {
			return t.Before(end.AddDate(0, 0, 1))
		}
		if t.After(end) {
			return false
		}
	}
	return true
}

func (c DateRange) validate(key string) error {
	if c.Start != nil && c.End != nil && c.Start.After(*c.End) {
		return domain.ValidationError{Field: key, Msg: "start date is after end date"}
	}
	return nil
}

// Criteria maps a record field to its condition. Absent keys and empty
// conditions mean "no constraint".
type Criteria map[string]Condition

// Validate rejects malformed conditions.
func (c Criteria) Validate() error {
	for key, cond := range c {
		if strings.TrimSpace(key) == "" {
			return domain.ValidationError{Field: "filter", Msg: "empty filter key"}
		}
		if cond == nil {
			continue
		}
		if err := cond.validate(key); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether no condition constrains anything.
func (c Criteria) IsEmpty() bool {
	for _, cond := range c {
		if cond != nil && !cond.Empty() {
			return false
		}
	}
	return true
}

// Clone returns a copy that can be held after the caller mutates c.
func (c Criteria) Clone() Criteria {
	if c == nil {
		return Criteria{}
	}
	out := make(Criteria, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Matches evaluates the record against the criteria and the free-text search.
// searchFields lists the fields searched case-insensitively by substring.
func Matches(r Record, criteria Criteria, searchText string, searchFields []string) bool {
	if q := strings.ToLower(strings.TrimSpace(searchText)); q != "" {
		found := false
		for _, f := range searchFields {
			v, ok := r.Get(f)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(stringify(v)), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for key, cond := range criteria {
		if cond == nil || cond.Empty() {
			continue
		}
		v, ok := r.Get(key)
		if !cond.Match(v, ok) {
			return false
		}
	}
	return true
}

// Filter keeps the matching records in their original order.
func Filter(records []Record, criteria Criteria, searchText string, searchFields []string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, criteria, searchText, searchFields) {
			out = append(out, r)
		}
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		time.Time, decimal.Decimal:
		return true
	}
	return false
}

func equalValues(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	da, okA := asDecimal(a)
	db, okB := asDecimal(b)
	if okA && okB {
		return da.Equal(db)
	}
	return false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromUint64(uint64(n)), true
	case uint8:
		return decimal.NewFromUint64(uint64(n)), true
	case uint16:
		return decimal.NewFromUint64(uint64(n)), true
	case uint32:
		return decimal.NewFromUint64(uint64(n)), true
	case uint64:
		return decimal.NewFromUint64(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Decimal{}, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if parsed, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(dateLayout)
	default:
		return fmt.Sprint(v)
	}
}
