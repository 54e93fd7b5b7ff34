package booking

import (
	"fmt"
	"time"

	"aerolease/internal/calendar"
	"aerolease/internal/models"
)

const notSelected = "Not selected"

// Summary is the sidebar shown next to the wizard.
type Summary struct {
	Aircraft  string `json:"aircraft"`
	Dates     string `json:"dates"`
	Duration  string `json:"duration"`
	LeaseType string `json:"lease_type"`
	RequestID string `json:"request_id"`
}

// BuildSummary renders the summary texts.
func BuildSummary(aircraft *models.Aircraft, sel calendar.Selection, lease LeaseType, now time.Time) Summary {
	s := Summary{
		Aircraft:  notSelected,
		Dates:     notSelected,
		Duration:  "0 days",
		LeaseType: notSelected,
		RequestID: "--",
	}
	if aircraft != nil {
		s.Aircraft = aircraft.Name
		s.RequestID = PreviewID(aircraft.ID, now)
	}
	if sel.IsClosed() {
		s.Dates = calendar.FormatDate(*sel.Start) + " - " + calendar.FormatDate(*sel.End)
		s.Duration = fmt.Sprintf("%d days", sel.Duration())
	}
	if lease != "" {
		s.LeaseType = lease.Label()
	}
	return s
}
