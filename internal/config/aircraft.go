package config

import (
	"fmt"
	"os"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"

	"aerolease/internal/models"
)

// AircraftEntry represents a single leasable aircraft.
type AircraftEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	MinLease    int      `yaml:"min_lease"`
	MaxLease    int      `yaml:"max_lease"`
	BookedDates []string `yaml:"booked_dates"` // YYYY-MM-DD
}

// LeaseDefaults apply to entries without explicit bounds.
type LeaseDefaults struct {
	MinLease int `yaml:"min_lease"`
	MaxLease int `yaml:"max_lease"`
}

// AircraftConfig is the root of aircraft.yaml.
type AircraftConfig struct {
	Aircraft []AircraftEntry `yaml:"aircraft"`
	Defaults LeaseDefaults   `yaml:"defaults"`
}

// LoadAircraftConfig loads and validates the aircraft catalog from a YAML file.
func LoadAircraftConfig(path string) (*AircraftConfig, error) {
	if path == "" {
		path = "configs/aircraft.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aircraft config: %w", err)
	}

	return ParseAircraftConfig(data)
}

// ParseAircraftConfig decodes, validates and defaults aircraft YAML.
func ParseAircraftConfig(data []byte) (*AircraftConfig, error) {
	var cfg AircraftConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse aircraft config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate aircraft config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *AircraftConfig) Validate() error {
	if len(c.Aircraft) == 0 {
		return fmt.Errorf("no aircraft defined")
	}
	if c.Defaults.MinLease < 0 || c.Defaults.MaxLease < 0 {
		return fmt.Errorf("defaults: lease bounds cannot be negative")
	}

	ids := make(map[string]bool)

	for i, a := range c.Aircraft {
		if a.ID == "" {
			return fmt.Errorf("aircraft[%d]: id is required", i)
		}
		if ids[a.ID] {
			return fmt.Errorf("aircraft[%d]: duplicate id '%s'", i, a.ID)
		}
		ids[a.ID] = true

		if a.Name == "" {
			return fmt.Errorf("aircraft[%d]: name is required", i)
		}
		if a.MinLease < 0 {
			return fmt.Errorf("aircraft[%d]: min_lease cannot be negative", i)
		}
		if a.MaxLease < 0 {
			return fmt.Errorf("aircraft[%d]: max_lease cannot be negative", i)
		}
		if a.MinLease > 0 && a.MaxLease > 0 && a.MaxLease < a.MinLease {
			return fmt.Errorf("aircraft[%d]: max_lease %d is below min_lease %d", i, a.MaxLease, a.MinLease)
		}

		for j, d := range a.BookedDates {
			if _, err := civil.ParseDate(d); err != nil {
				return fmt.Errorf("aircraft[%d].booked_dates[%d]: invalid date format '%s', expected YYYY-MM-DD", i, j, d)
			}
		}
	}

	return nil
}

// applyDefaults fills lease bounds left at zero.
func (c *AircraftConfig) applyDefaults() {
	if c.Defaults.MinLease == 0 {
		c.Defaults.MinLease = 1
	}
	if c.Defaults.MaxLease == 0 {
		c.Defaults.MaxLease = 365
	}

	for i := range c.Aircraft {
		if c.Aircraft[i].MinLease == 0 {
			c.Aircraft[i].MinLease = c.Defaults.MinLease
		}
		if c.Aircraft[i].MaxLease == 0 {
			c.Aircraft[i].MaxLease = c.Defaults.MaxLease
		}
	}
}

// Catalog converts the configuration into the immutable domain catalog.
func (c *AircraftConfig) Catalog() (*models.Catalog, error) {
	list := make([]*models.Aircraft, 0, len(c.Aircraft))
	for i, e := range c.Aircraft {
		a, err := e.Model()
		if err != nil {
			return nil, fmt.Errorf("aircraft[%d]: %w", i, err)
		}
		list = append(list, a)
	}
	return models.NewCatalog(list...)
}

// Model converts one entry. Dates are assumed validated.
func (e AircraftEntry) Model() (*models.Aircraft, error) {
	dates := make([]civil.Date, 0, len(e.BookedDates))
	for _, s := range e.BookedDates {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("booked date '%s': %w", s, err)
		}
		dates = append(dates, d)
	}
	return models.NewAircraft(e.ID, e.Name, e.MinLease, e.MaxLease, dates)
}

// GetAircraftByID returns the entry with the given id.
func (c *AircraftConfig) GetAircraftByID(id string) *AircraftEntry {
	for i := range c.Aircraft {
		if c.Aircraft[i].ID == id {
			return &c.Aircraft[i]
		}
	}
	return nil
}

// String returns a summary of the configuration.
func (c *AircraftConfig) String() string {
	booked := 0
	for _, a := range c.Aircraft {
		booked += len(a.BookedDates)
	}
	return fmt.Sprintf("AircraftConfig: %d aircraft, %d booked dates", len(c.Aircraft), booked)
}
