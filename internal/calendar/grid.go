package calendar

import (
	"time"

	"cloud.google.com/go/civil"

	"aerolease/internal/models"
)

// GridCells is the fixed cell count of a rendered month: six Sunday-first weeks.
const GridCells = 42

// Role marks a cell's part in the current selection.
type Role string

const (
	RoleNone       Role = "none"
	RoleRangeStart Role = "range_start"
	RoleRangeEnd   Role = "range_end"
	RoleInRange    Role = "in_range"
)

// DayCell is one renderable day of the grid.
type DayCell struct {
	Date     civil.Date `json:"date"`
	InMonth  bool       `json:"in_month"`
	Disabled bool       `json:"disabled"`
	Booked   bool       `json:"booked"`
	Today    bool       `json:"today"`
	Role     Role       `json:"role"`
}

// Selectable reports whether the widget should accept a click on the cell.
func (c DayCell) Selectable() bool {
	return !c.Disabled && !c.Booked
}

// Grid is a rendered month.
type Grid struct {
	Month Month     `json:"month"`
	Cells []DayCell `json:"cells"`
}

// Weeks splits the cells into rows of seven.
func (g Grid) Weeks() [][]DayCell {
	weeks := make([][]DayCell, 0, len(g.Cells)/7)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// RenderMonth computes the day grid for view. Leading and trailing cells from
// adjacent months pad the grid to GridCells and are never selectable.
// The result depends only on the arguments.
func RenderMonth(rules Rules, view Month, aircraft *models.Aircraft, sel Selection, today civil.Date) Grid {
	first := view.First()
	lead := int(first.In(time.UTC).Weekday())
	start := first.AddDays(-lead)

	cells := make([]DayCell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		d := start.AddDays(i)
		inMonth := view.Contains(d)

		cell := DayCell{
			Date:     d,
			InMonth:  inMonth,
			Disabled: !inMonth || d.Before(rules.Earliest),
			Today:    d == today,
			Role:     roleOf(d, sel),
		}
		if !cell.Disabled && aircraft != nil {
			cell.Booked = aircraft.IsBooked(d)
		}
		cells = append(cells, cell)
	}

	return Grid{Month: view, Cells: cells}
}

func roleOf(d civil.Date, sel Selection) Role {
	switch {
	case sel.Start != nil && d == *sel.Start:
		return RoleRangeStart
	case sel.End != nil && d == *sel.End:
		return RoleRangeEnd
	case sel.IsClosed() && sel.Start.Before(d) && d.Before(*sel.End):
		return RoleInRange
	}
	return RoleNone
}
