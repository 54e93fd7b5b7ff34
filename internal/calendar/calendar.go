package calendar

import (
	"time"

	"cloud.google.com/go/civil"

	"aerolease/internal/models"
)

// Snapshot is the storable state of a Calendar.
type Snapshot struct {
	View      Month     `json:"view"`
	Selection Selection `json:"selection"`
}

// Calendar is the per-session availability calendar. It owns the displayed
// month and the range selection; both change only through its methods.
// A Calendar is not safe for concurrent use.
type Calendar struct {
	rules    Rules
	now      func() time.Time
	loc      *time.Location
	aircraft *models.Aircraft

	view Month
	sel  Selection
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the zone "today" is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(c *Calendar) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// New creates an opened calendar.
func New(rules Rules, opts ...Option) *Calendar {
	c := &Calendar{
		rules: rules,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Open()
	return c
}

// Open clears the selection and shows the month of today, or of the
// earliest bookable date when that is still ahead.
func (c *Calendar) Open() {
	c.sel = Selection{}
	today := c.Today()
	if today.Before(c.rules.Earliest) {
		c.view = MonthOf(c.rules.Earliest)
		return
	}
	c.view = MonthOf(today)
}

// Reset discards the selection and keeps the view.
func (c *Calendar) Reset() {
	c.sel = Selection{}
}

// Restore loads a stored snapshot. Malformed selections are normalized.
func (c *Calendar) Restore(s Snapshot) {
	if s.View.Month >= time.January && s.View.Month <= time.December {
		c.view = s.View
	}
	c.sel = s.Selection.normalize()
}

// Snapshot captures the state for storage.
func (c *Calendar) Snapshot() Snapshot {
	return Snapshot{View: c.view, Selection: c.sel.Clone()}
}

// Today is the current civil date in the calendar's zone.
func (c *Calendar) Today() civil.Date {
	return Today(c.now(), c.loc)
}

// Rules returns the selection rules.
func (c *Calendar) Rules() Rules { return c.rules }

// View returns the displayed month.
func (c *Calendar) View() Month { return c.view }

// Selection returns a copy of the current selection.
func (c *Calendar) Selection() Selection { return c.sel.Clone() }

// Aircraft returns the selected aircraft, or nil.
func (c *Calendar) Aircraft() *models.Aircraft { return c.aircraft }

// SetAircraft changes the resource whose availability is shown. The date
// selection is kept; it is re-validated on submission.
func (c *Calendar) SetAircraft(a *models.Aircraft) {
	c.aircraft = a
}

// Render returns the grid of the displayed month.
func (c *Calendar) Render() Grid {
	return RenderMonth(c.rules, c.view, c.aircraft, c.sel, c.Today())
}

// Click applies a day click. Booked days are not clickable in the widget, so a
// click on one is refused here without touching the selection.
func (c *Calendar) Click(d civil.Date) error {
	if !d.Before(c.rules.Earliest) && c.aircraft.IsBooked(d) {
		return &DateConflictError{Date: d}
	}
	next, err := HandleDateClick(c.rules, d, c.sel, c.aircraft)
	c.sel = next
	return err
}

// Navigate moves the view by delta months.
func (c *Calendar) Navigate(delta int) {
	c.view = NavigateMonth(c.view, delta)
}

// Next shows the following month.
func (c *Calendar) Next() { c.Navigate(1) }

// Prev shows the preceding month.
func (c *Calendar) Prev() { c.Navigate(-1) }

// Validate runs the submission checks against the current selection.
func (c *Calendar) Validate() (int, error) {
	return ValidateRange(c.rules, c.aircraft, c.sel.Start, c.sel.End, c.Today())
}
