package domain

import "time"

// Export describes a contact snapshot written to object storage.
type Export struct {
	Key       string
	Location  string
	URL       string
	Count     int
	CreatedAt time.Time
}
