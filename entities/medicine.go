package entities

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is an entry of a user's personal medicine cabinet
type Medicine struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Name          string     `json:"name"`
	GenericName   string     `json:"generic_name"`
	Dosage        string     `json:"dosage"`
	Frequency     string     `json:"frequency"`
	Quantity      int        `json:"quantity"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	ReminderTimes []string   `json:"reminder_times"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsExpired reports whether the medicine expired before the given day
func (m *Medicine) IsExpired(now time.Time) bool {
	if m.ExpiryDate == nil {
		return false
	}
	return m.ExpiryDate.Before(truncateDay(now))
}

// ExpiresWithin reports whether the medicine is still valid but expires in the next d
func (m *Medicine) ExpiresWithin(now time.Time, d time.Duration) bool {
	if m.ExpiryDate == nil || m.IsExpired(now) {
		return false
	}
	return !m.ExpiryDate.After(truncateDay(now).Add(d))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
