package domain

import "time"

// PresenceState is the staleness bucket of a player record
type PresenceState string

const (
	PresenceActive  PresenceState = "active"
	PresenceHidden  PresenceState = "hidden"
	PresenceExpired PresenceState = "expired"
)

// PresencePolicy holds the two independent staleness thresholds
type PresencePolicy struct {
	ActiveTTL time.Duration
	ExpiryTTL time.Duration
}

// Classify places a record with the given lastUpdate into its bucket at now
func (p PresencePolicy) Classify(lastUpdate, now time.Time) PresenceState {
	age := now.Sub(lastUpdate)
	switch {
	case age < p.ActiveTTL:
		return PresenceActive
	case age < p.ExpiryTTL:
		return PresenceHidden
	default:
		return PresenceExpired
	}
}

// ActiveSince is the oldest lastUpdate still listed at now
func (p PresencePolicy) ActiveSince(now time.Time) time.Time {
	return now.Add(-p.ActiveTTL)
}

// ExpiredBefore is the cutoff below which records are swept
func (p PresencePolicy) ExpiredBefore(now time.Time) time.Time {
	return now.Add(-p.ExpiryTTL)
}
