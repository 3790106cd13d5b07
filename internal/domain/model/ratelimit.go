package model

import "time"

// RateLimitSnapshot is advisory telemetry read from the provider's
// rate-limit response headers. It is best-effort: responses without the
// headers leave the previous snapshot untouched, and concurrent updates are
// last-write-wins.
type RateLimitSnapshot struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Known reports whether any response has populated the snapshot yet.
func (s RateLimitSnapshot) Known() bool {
	return s.Limit > 0
}
