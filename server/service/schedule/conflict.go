package schedule

import (
	"context"
	"time"
)

const (
	// Working-hours window for suggested slots, in local wall-clock hours.
	workdayStartHour = 9
	workdayEndHour   = 18

	// How far ahead the slot search walks before giving up.
	lookaheadDays = 7

	// Number of alternative start times collected.
	maxSuggestions = 3
)

// ConflictResolver proposes alternative start times when a requested slot
// collides with existing calendar entries.
type ConflictResolver struct {
	service   Service
	startHour int
	endHour   int
}

// NewConflictResolver creates a conflict resolver with the default
// 09:00–18:00 working-hours window.
func NewConflictResolver(service Service) *ConflictResolver {
	return &ConflictResolver{service: service, startHour: workdayStartHour, endHour: workdayEndHour}
}

// NewConflictResolverWithHours creates a conflict resolver with a custom
// working-hours window.
func NewConflictResolverWithHours(service Service, startHour, endHour int) *ConflictResolver {
	if startHour <= 0 || endHour <= startHour {
		return NewConflictResolver(service)
	}
	return &ConflictResolver{service: service, startHour: startHour, endHour: endHour}
}

// FindAlternativeSlots walks forward from preferredStart+1h through hourly
// slots strictly inside working hours, across up to lookaheadDays days, and
// returns up to maxSuggestions start times the conflict detector accepts.
// An empty result means no availability inside the lookahead window.
func (r *ConflictResolver) FindAlternativeSlots(ctx context.Context, ownerID int32, preferredStart time.Time, duration time.Duration, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	suggestions := []time.Time{}

	// A duration longer than the working-hours window can never fit; there
	// is no availability to suggest.
	window := time.Duration(r.endHour-r.startHour) * time.Hour
	if duration > window {
		return suggestions, nil
	}

	candidate := preferredStart.In(loc).Add(time.Hour).Truncate(time.Hour)
	deadline := preferredStart.In(loc).AddDate(0, 0, lookaheadDays)

	for candidate.Before(deadline) && len(suggestions) < maxSuggestions {
		candidate = r.clampToWorkingHours(candidate, duration, deadline)
		if !candidate.Before(deadline) {
			break
		}

		conflicts, err := r.service.CheckConflicts(ctx, ownerID, candidate, candidate.Add(duration), nil)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			suggestions = append(suggestions, candidate)
		}
		candidate = candidate.Add(time.Hour)
	}
	return suggestions, nil
}

// clampToWorkingHours moves a candidate forward to the next slot whose whole
// duration fits inside the working-hours window, advancing to the next day's
// window start when the slot would run past the end of the working day. The
// walk stops at the deadline so the search always terminates, even on days
// where the wall-clock window is shortened (DST transitions).
func (r *ConflictResolver) clampToWorkingHours(candidate time.Time, duration time.Duration, deadline time.Time) time.Time {
	for candidate.Before(deadline) {
		dayStart := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), r.startHour, 0, 0, 0, candidate.Location())
		dayEnd := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), r.endHour, 0, 0, 0, candidate.Location())

		if candidate.Before(dayStart) {
			candidate = dayStart
		}
		if !candidate.Add(duration).After(dayEnd) {
			return candidate
		}
		candidate = dayStart.AddDate(0, 0, 1)
	}
	return candidate
}
