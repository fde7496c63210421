// Package renewal holds the rule for choosing a new due-back date when a
// librarian renews a loan.
package renewal

import (
	"errors"
	"time"

	"github.com/locallibrary/catalog/internal/model"
)

const (
	// MaxAdvance is the furthest a renewal may push the due date.
	MaxAdvance = 4 * 7 * 24 * time.Hour

	// DefaultAdvance is the renewal period offered by default.
	DefaultAdvance = 3 * 7 * 24 * time.Hour

	maxAdvanceDays     = 28
	defaultAdvanceDays = 21
)

// HelpText describes the accepted range to the person entering a date.
const HelpText = "Enter a date between now and 4 weeks (default 3)."

// Error kinds, as surfaced to API clients.
const (
	KindDateInPast         = "DATE_IN_PAST"
	KindDateTooFarInFuture = "DATE_TOO_FAR_IN_FUTURE"
)

var (
	// ErrDateInPast indicates the proposed date is before today.
	ErrDateInPast = errors.New("Invalid date - renewal in past")
	// ErrDateTooFarInFuture indicates the proposed date is more than 4 weeks ahead.
	ErrDateTooFarInFuture = errors.New("Invalid date - renewal more than 4 weeks ahead")
)

// Validate checks proposed against today. Both are compared as calendar
// days; the accepted range is [today, today+28d], inclusive.
func Validate(proposed, today time.Time) error {
	p := model.DateOf(proposed)
	t := model.DateOf(today)

	if p.Before(t) {
		return ErrDateInPast
	}
	if p.After(t.AddDate(0, 0, maxAdvanceDays)) {
		return ErrDateTooFarInFuture
	}
	return nil
}

// ValidateRequest is Validate for a RenewalRequest.
func ValidateRequest(req model.RenewalRequest, today time.Time) error {
	return Validate(req.ProposedDate, today)
}

// ProposedDate returns the default renewal date for today.
func ProposedDate(today time.Time) time.Time {
	return model.DateOf(today).AddDate(0, 0, defaultAdvanceDays)
}

// LatestDate returns the last acceptable renewal date for today.
func LatestDate(today time.Time) time.Time {
	return model.DateOf(today).AddDate(0, 0, maxAdvanceDays)
}

// Kind maps a renewal error to its client-facing kind, or "" if err is not
// a renewal error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDateInPast):
		return KindDateInPast
	case errors.Is(err, ErrDateTooFarInFuture):
		return KindDateTooFarInFuture
	}
	return ""
}

// Clock returns today's date in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a Clock for loc. A nil now uses time.Now.
func NewClock(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

// Today returns the current calendar day in the clock's location.
func (c *Clock) Today() time.Time {
	return model.DateOf(c.now().In(c.loc))
}
