package booking

import (
	"strings"
	"time"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

const DateLayout = "2006-01-02"

// Range is a stay from Start to End, both at UTC midnight.
type Range struct {
	Start time.Time
	End   time.Time
}

// NormalizeDay truncates t to midnight UTC of its UTC calendar day.
func NormalizeDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func NewRange(start, end time.Time) (Range, error) {
	r := Range{Start: NormalizeDay(start), End: NormalizeDay(end)}
	if !r.End.After(r.Start) {
		return Range{}, apperror.New(apperror.ErrValidation, "end date must be after start date")
	}
	return r, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperror.Wrap(apperror.ErrValidation, "invalid date "+s, err)
	}
	return t, nil
}

func ParseRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return NewRange(s, e)
}

// Overlaps uses closed intervals, matching the storage conflict query:
// a stay ending on the day another starts conflicts with it.
func (r Range) Overlaps(o Range) bool {
	return !r.Start.After(o.End) && !r.End.Before(o.Start)
}

func (r Range) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}
