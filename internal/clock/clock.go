package clock

import "time"

// DateLayout is the layout of daily progress keys
const DateLayout = "2006-01-02"

// Clock supplies the current time to the tracker
type Clock interface {
	Now() time.Time
	// Today returns the local calendar date as YYYY-MM-DD
	Today() string
}

// DateKey formats t as a local calendar date key
func DateKey(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// System reads the wall clock
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) Today() string { return DateKey(time.Now()) }

// Fixed always reports the same instant. Tests move it with Set and Advance.
type Fixed struct {
	t time.Time
}

// NewFixed returns a clock stopped at t
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time { return f.t }

// Today formats the fixed instant in its own location, so tests are
// independent of the machine time zone
func (f *Fixed) Today() string { return f.t.Format(DateLayout) }

// Set moves the clock to t
func (f *Fixed) Set(t time.Time) { f.t = t }

// AdvanceDays moves the clock by n calendar days
func (f *Fixed) AdvanceDays(n int) { f.t = f.t.AddDate(0, 0, n) }
