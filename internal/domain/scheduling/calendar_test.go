package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/scheduling"
)

func TestCalendar_Generate(t *testing.T) {
	start := time.Date(2024, 6, 1, 15, 42, 0, 0, time.UTC)

	t.Run("produces a gap-free grid with defaults", func(t *testing.T) {
		cal := scheduling.NewCalendar(7, 9, 17)
		slots := cal.Generate("doc-1", start, nil)

		require.Len(t, slots, 7*9)

		first := slots[0]
		assert.Equal(t, "doc-1", first.DoctorID)
		assert.Equal(t, "2024-06-01", first.Date)
		assert.Equal(t, "09:00", first.Time)
		assert.False(t, first.IsAvailable)
		assert.Equal(t, 1, first.PatientLimit)
		assert.Equal(t, 0, first.CurrentBookings)

		last := slots[len(slots)-1]
		assert.Equal(t, "2024-06-07", last.Date)
		assert.Equal(t, "17:00", last.Time)
	})

	t.Run("applies overrides by (date, time) key", func(t *testing.T) {
		cal := scheduling.NewCalendar(2, 9, 17)
		overrides := []*entities.Slot{
			{Date: "2024-06-02", Time: "10:00", IsAvailable: true, PatientLimit: 3, CurrentBookings: 2},
		}

		slots := cal.Generate("doc-1", start, overrides)

		var hit *entities.Slot
		for _, s := range slots {
			if s.Date == "2024-06-02" && s.Time == "10:00" {
				hit = s
			}
		}

		require.NotNil(t, hit)
		assert.True(t, hit.IsAvailable)
		assert.Equal(t, 3, hit.PatientLimit)
		assert.Equal(t, 2, hit.CurrentBookings)
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		cal := scheduling.NewCalendar(7, 9, 17)
		overrides := []*entities.Slot{
			{Date: "2024-06-03", Time: "11:00", IsAvailable: true, PatientLimit: 2},
		}

		a := cal.Generate("doc-1", start, overrides)
		b := cal.Generate("doc-1", start, overrides)

		require.Equal(t, len(a), len(b))
		for i := range a {
			assert.Equal(t, *a[i], *b[i])
		}
	})

	t.Run("falls back to defaults for out-of-range policy", func(t *testing.T) {
		cal := scheduling.NewCalendar(0, -1, 30)
		assert.Equal(t, scheduling.DefaultHorizonDays, cal.HorizonDays())
		assert.Equal(t, 9, cal.SlotsPerDay())
	})
}
