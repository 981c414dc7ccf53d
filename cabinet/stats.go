package cabinet

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/medhub/medhub-api/entities"
)

const (
	// ExpiringWindow is how far ahead Stats looks for expiring medicines
	ExpiringWindow = 30 * 24 * time.Hour

	// LowStockThreshold is the quantity at or below which a medicine is low on stock
	LowStockThreshold = 5
)

// Stats summarises a cabinet
type Stats struct {
	Total           int `json:"total"`
	Expired         int `json:"expired"`
	ExpiringSoon    int `json:"expiring_soon"`
	LowStock        int `json:"low_stock"`
	WithReminders   int `json:"with_reminders"`
	RemindersPerDay int `json:"reminders_per_day"`
}

// ComputeStats counts the cabinet as of now. Reminders of expired medicines
// are not counted in RemindersPerDay.
func ComputeStats(medicines []entities.Medicine, now time.Time) Stats {
	stats := Stats{Total: len(medicines)}
	for i := range medicines {
		m := &medicines[i]
		expired := m.IsExpired(now)
		switch {
		case expired:
			stats.Expired++
		case m.ExpiresWithin(now, ExpiringWindow):
			stats.ExpiringSoon++
		}
		if m.Quantity <= LowStockThreshold {
			stats.LowStock++
		}
		if len(m.ReminderTimes) > 0 {
			stats.WithReminders++
			if !expired {
				stats.RemindersPerDay += len(m.ReminderTimes)
			}
		}
	}
	return stats
}

// Reminder is one dose to take on a given day
type Reminder struct {
	Time       string    `json:"time"`
	MedicineID uuid.UUID `json:"medicine_id"`
	Name       string    `json:"name"`
	Dosage     string    `json:"dosage"`
}

// RemindersFor lists the reminder slots of the day, sorted by time then name.
// Medicines expired on that day are left out.
func RemindersFor(medicines []entities.Medicine, day time.Time) []Reminder {
	reminders := []Reminder{}
	for i := range medicines {
		m := &medicines[i]
		if m.IsExpired(day) {
			continue
		}
		for _, t := range m.ReminderTimes {
			reminders = append(reminders, Reminder{Time: t, MedicineID: m.ID, Name: m.Name, Dosage: m.Dosage})
		}
	}

	// HH:MM sorts lexically
	slices.SortStableFunc(reminders, func(a, b Reminder) int {
		return cmp.Or(cmp.Compare(a.Time, b.Time), cmp.Compare(a.Name, b.Name))
	})
	return reminders
}

// Names returns the medicine names of a cabinet, in cabinet order
func Names(medicines []entities.Medicine) []string {
	names := make([]string, len(medicines))
	for i, m := range medicines {
		names[i] = m.Name
	}
	return names
}
