package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day. It marshals as "YYYY-MM-DD", also accepts
// RFC3339 timestamps on input(the hosted store returns those for
// timestamp-typed columns), and compares on the UTC day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)

	if t, err := time.Parse(dateLayout, value); err == nil {
		return Date{Time: t}, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %v", value, err)
	}

	return Date{Time: t}, nil
}

// UTCDayBounds returns [start, end) for the date's UTC day, used for
// day-range matching against timestamp-typed storage.
func (d Date) UTCDayBounds() (time.Time, time.Time) {
	t := d.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// SameDay reports whether both dates fall on the same UTC day.
func (d Date) SameDay(other Date) bool {
	start, end := d.UTCDayBounds()
	t := other.UTC()
	return !t.Before(start) && t.Before(end)
}

func (d Date) String() string {
	return d.UTC().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.UTC(), nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = Date{Time: v}
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}
