package booking

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"aerolease/internal/calendar"
)

// RequestIDPrefix starts every request id.
const RequestIDPrefix = "9H-"

// Request is the payload handed to the submission sink.
type Request struct {
	RequestID      string     `json:"requestId"`
	Aircraft       string     `json:"aircraft"`
	AircraftName   string     `json:"aircraftName"`
	StartDate      civil.Date `json:"startDate"`
	EndDate        civil.Date `json:"endDate"`
	LeaseType      LeaseType  `json:"leaseType"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Company        string     `json:"company"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	MissionType    string     `json:"missionType"`
	AdditionalInfo string     `json:"additionalInfo"`
	SubmittedAt    time.Time  `json:"submittedAt"`
}

// NewRequestID derives a request id from the last 8 digits of the Unix millisecond time.
func NewRequestID(now time.Time) string {
	return RequestIDPrefix + lastDigits(now, 8)
}

// PreviewID is the provisional id shown in the summary before submission.
func PreviewID(aircraftID string, now time.Time) string {
	prefix := aircraftID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return prefix + "-" + lastDigits(now, 4)
}

func lastDigits(now time.Time, n int) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) <= n {
		return ms
	}
	return ms[len(ms)-n:]
}

// Duration is the inclusive lease length in days.
func (r *Request) Duration() int {
	return calendar.Duration(r.StartDate, r.EndDate)
}

// DateRange formats the leased period, e.g. "Jun 8, 2026 - Jun 10, 2026".
func (r *Request) DateRange() string {
	return calendar.FormatDate(r.StartDate) + " - " + calendar.FormatDate(r.EndDate)
}

// Subject is the mail subject used by the relay.
func (r *Request) Subject() string {
	return "New Aircraft Booking Request: " + r.RequestID
}

// AutoResponse is the confirmation text sent back to the customer.
func (r *Request) AutoResponse() string {
	return fmt.Sprintf("Thank you for your booking request (ID: %s). We have received your request for %s from %s to %s. "+
		"Our team will review availability and contact you within 24 hours.",
		r.RequestID, r.AircraftName, calendar.FormatDate(r.StartDate), calendar.FormatDate(r.EndDate))
}
