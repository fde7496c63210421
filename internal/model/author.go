// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Author represents a writer of one or more books.
type Author struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayName returns the author as "Last, First".
func (a *Author) DisplayName() string {
	first := strings.TrimSpace(a.FirstName)
	last := strings.TrimSpace(a.LastName)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return last + ", " + first
}

// IsLiving reports whether no date of death is recorded.
func (a *Author) IsLiving() bool {
	return a.DateOfDeath == nil
}
