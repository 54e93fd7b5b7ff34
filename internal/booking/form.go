package booking

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Contact is the customer data of step 3.
type Contact struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	MissionType string `json:"mission_type"`
	Notes       string `json:"notes"`
}

// Form is the final submission.
type Form struct {
	LeaseType     string  `json:"lease_type"`
	Contact       Contact `json:"contact"`
	TermsAccepted bool    `json:"terms_accepted"`
}

// Normalize trims surrounding whitespace from all contact fields.
func (c Contact) Normalize() Contact {
	return Contact{
		FirstName:   strings.TrimSpace(c.FirstName),
		LastName:    strings.TrimSpace(c.LastName),
		Company:     strings.TrimSpace(c.Company),
		Phone:       strings.TrimSpace(c.Phone),
		Email:       strings.TrimSpace(c.Email),
		MissionType: strings.TrimSpace(c.MissionType),
		Notes:       strings.TrimSpace(c.Notes),
	}
}

// Validate checks required fields, then the email, then the terms box.
func (f Form) Validate() error {
	c := f.Contact.Normalize()
	if c.FirstName == "" || c.LastName == "" || c.Email == "" || c.Phone == "" {
		return ErrMissingContact
	}
	if !ValidEmail(c.Email) {
		return ErrInvalidEmail
	}
	if !f.TermsAccepted {
		return ErrTermsNotAccepted
	}
	return nil
}

// ValidEmail applies the loose local@domain.tld check.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
