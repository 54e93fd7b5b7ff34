package models

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: d}
}

func TestNewAircraft_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		min     int
		max     int
		booked  []civil.Date
		wantErr string
	}{
		{name: "missing id", id: "", min: 1, max: 10, wantErr: "aircraft id is required"},
		{name: "zero min lease", id: "A", min: 0, max: 10, wantErr: "min lease must be at least 1 day"},
		{name: "max below min", id: "A", min: 5, max: 4, wantErr: "max lease 4 is below min lease 5"},
		{name: "invalid date", id: "A", min: 1, max: 4, booked: []civil.Date{{Year: 2026, Month: 2, Day: 30}}, wantErr: "invalid booked date"},
		{name: "valid", id: "A", min: 3, max: 365, booked: []civil.Date{day(2026, 6, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAircraft(tt.id, "Twin Otter", tt.min, tt.max, tt.booked)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, a.ID)
		})
	}
}

func TestNewAircraft_DefaultsNameToID(t *testing.T) {
	a, err := NewAircraft("DHC6-400-MSN925", "", 3, 365, nil)
	require.NoError(t, err)
	assert.Equal(t, "DHC6-400-MSN925", a.Name)
}

func TestAircraft_BookedDates(t *testing.T) {
	a, err := NewAircraft("A", "A", 1, 10, []civil.Date{
		day(2026, 6, 12), day(2026, 6, 10), day(2026, 6, 12), day(2026, 6, 11),
	})
	require.NoError(t, err)

	assert.True(t, a.IsBooked(day(2026, 6, 10)))
	assert.False(t, a.IsBooked(day(2026, 6, 9)))
	assert.Equal(t, []civil.Date{day(2026, 6, 10), day(2026, 6, 11), day(2026, 6, 12)}, a.BookedDates())

	var missing *Aircraft
	assert.False(t, missing.IsBooked(day(2026, 6, 10)))
}

func TestAircraft_FirstBookedIn(t *testing.T) {
	a, err := NewAircraft("A", "A", 1, 10, []civil.Date{day(2026, 6, 15), day(2026, 6, 12)})
	require.NoError(t, err)

	got, ok := a.FirstBookedIn(day(2026, 6, 10), day(2026, 6, 20))
	assert.True(t, ok)
	assert.Equal(t, day(2026, 6, 12), got)

	got, ok = a.FirstBookedIn(day(2026, 6, 15), day(2026, 6, 15))
	assert.True(t, ok)
	assert.Equal(t, day(2026, 6, 15), got)

	_, ok = a.FirstBookedIn(day(2026, 6, 1), day(2026, 6, 11))
	assert.False(t, ok)
}

func TestCatalog(t *testing.T) {
	a, _ := NewAircraft("DHC6-400-MSN925", "Twin Otter MSN 925", 3, 365, nil)
	b, _ := NewAircraft("DHC6-400-MSN938", "Twin Otter MSN 938", 3, 365, nil)

	cat, err := NewCatalog(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []*Aircraft{a, b}, cat.List())

	got, ok := cat.Get("DHC6-400-MSN938")
	assert.True(t, ok)
	assert.Same(t, b, got)

	_, ok = cat.Get("unknown")
	assert.False(t, ok)

	_, err = NewCatalog(a, a)
	assert.ErrorContains(t, err, "duplicate id DHC6-400-MSN925")
}

func TestCatalogHolder(t *testing.T) {
	a, _ := NewAircraft("A", "A", 1, 2, nil)
	first, _ := NewCatalog(a)
	second, _ := NewCatalog()

	h := NewCatalogHolder(first)
	assert.Same(t, first, h.Catalog())

	h.Store(second)
	assert.Equal(t, 0, h.Catalog().Len())

	var nilCatalog *Catalog
	assert.Nil(t, nilCatalog.List())
	_, ok := nilCatalog.Get("A")
	assert.False(t, ok)
}
