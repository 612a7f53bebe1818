package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLCities - the marketplace city dictionary changes very rarely
	TTLCities = 30 * 24 * time.Hour
)
