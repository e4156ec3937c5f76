package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format for every calendar date (yyyy-MM-dd).
const DateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Some backend payloads carry full timestamps; keep only the day.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is a stay from Start (check-in) to End (check-out).
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Validate rejects ranges that must never reach the network: missing dates
// and any end that is not strictly after the start.
func (r DateRange) Validate() error {
	fields := map[string]string{}
	if r.Start.IsZero() {
		fields["start_date"] = "start date is required"
	}
	if r.End.IsZero() {
		fields["end_date"] = "end date is required"
	}
	if len(fields) > 0 {
		return NewValidationError("date range", "start and end dates are required", fields)
	}
	if !r.End.After(r.Start.Time) {
		return NewValidationError("date range", "end date must be after start date", map[string]string{
			"end_date": "must be after start date",
		})
	}
	return nil
}

// Nights is the raw calendar difference in days; it can be zero or negative
// for malformed ranges.
func (r DateRange) Nights() int {
	return int(math.Floor(r.End.Sub(r.Start.Time).Hours() / 24))
}

// BillableNights never charges for fewer than one night.
func (r DateRange) BillableNights() int {
	if n := r.Nights(); n > 1 {
		return n
	}
	return 1
}
