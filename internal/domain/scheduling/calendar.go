// Package scheduling generates the canonical grid of bookable slot cells for
// a doctor over a horizon. Generation is a pure function over its inputs so
// repeated calls with the same horizon and overrides are byte-identical.
package scheduling

import (
	"fmt"
	"time"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// Defaults for the slot grid
const (
	DefaultHorizonDays  = 7
	DefaultDayStartHour = 9
	DefaultDayEndHour   = 17
	DefaultPatientLimit = 1
)

// Calendar produces slot grids. The zero value is not usable; construct with
// NewCalendar.
type Calendar struct {
	horizonDays  int
	dayStartHour int
	dayEndHour   int
}

// NewCalendar creates a calendar with the given grid policy. Out-of-range
// values fall back to the defaults.
func NewCalendar(horizonDays, dayStartHour, dayEndHour int) *Calendar {
	if horizonDays < 1 {
		horizonDays = DefaultHorizonDays
	}
	if dayStartHour < 0 || dayStartHour > 23 {
		dayStartHour = DefaultDayStartHour
	}
	if dayEndHour < dayStartHour || dayEndHour > 23 {
		dayEndHour = DefaultDayEndHour
	}
	return &Calendar{
		horizonDays:  horizonDays,
		dayStartHour: dayStartHour,
		dayEndHour:   dayEndHour,
	}
}

// HorizonDays returns the number of days the calendar covers
func (c *Calendar) HorizonDays() int {
	return c.horizonDays
}

// SlotsPerDay returns the number of hourly cells per day
func (c *Calendar) SlotsPerDay() int {
	return c.dayEndHour - c.dayStartHour + 1
}

// Generate returns one slot per (day, hour) cell starting at the calendar day
// of start. Cells matching an override's (date, time) key adopt the override's
// availability, capacity and booking fields; all others default to
// unavailable with a patient limit of one and no bookings.
func (c *Calendar) Generate(doctorID string, start time.Time, overrides []*entities.Slot) []*entities.Slot {
	byKey := make(map[entities.SlotKey]*entities.Slot, len(overrides))
	for _, o := range overrides {
		byKey[entities.SlotKey{DoctorID: doctorID, Date: o.Date, Time: o.Time}] = o
	}

	slots := make([]*entities.Slot, 0, c.horizonDays*c.SlotsPerDay())
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	for i := 0; i < c.horizonDays; i++ {
		date := day.AddDate(0, 0, i).Format(entities.DateLayout)

		for hour := c.dayStartHour; hour <= c.dayEndHour; hour++ {
			label := fmt.Sprintf("%02d:00", hour)
			key := entities.SlotKey{DoctorID: doctorID, Date: date, Time: label}

			if override, ok := byKey[key]; ok {
				slots = append(slots, &entities.Slot{
					DoctorID:        doctorID,
					Date:            date,
					Time:            label,
					IsAvailable:     override.IsAvailable,
					IsBooked:        override.IsBooked,
					PatientLimit:    override.PatientLimit,
					CurrentBookings: override.CurrentBookings,
					CreatedAt:       override.CreatedAt,
					UpdatedAt:       override.UpdatedAt,
				})
				continue
			}

			slots = append(slots, &entities.Slot{
				DoctorID:     doctorID,
				Date:         date,
				Time:         label,
				PatientLimit: DefaultPatientLimit,
			})
		}
	}

	return slots
}

// GenerateRange is Generate over an explicit [from, to] day range instead of
// the configured horizon. from and to are truncated to calendar days; an
// inverted range yields an empty grid.
func (c *Calendar) GenerateRange(doctorID string, from, to time.Time, overrides []*entities.Slot) []*entities.Slot {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if toDay.Before(fromDay) {
		return nil
	}

	days := int(toDay.Sub(fromDay).Hours()/24) + 1
	ranged := &Calendar{
		horizonDays:  days,
		dayStartHour: c.dayStartHour,
		dayEndHour:   c.dayEndHour,
	}
	return ranged.Generate(doctorID, fromDay, overrides)
}
