package model

import "time"

// LoanStatus is the availability state of a physical copy.
type LoanStatus string

const (
	LoanStatusMaintenance LoanStatus = "m"
	LoanStatusOnLoan      LoanStatus = "o"
	LoanStatusAvailable   LoanStatus = "a"
	LoanStatusReserved    LoanStatus = "r"
)

// IsValid checks if the status is one of the known codes.
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusMaintenance, LoanStatusOnLoan, LoanStatusAvailable, LoanStatusReserved:
		return true
	}
	return false
}

// Label returns the human readable status.
func (s LoanStatus) Label() string {
	switch s {
	case LoanStatusMaintenance:
		return "Maintenance"
	case LoanStatusOnLoan:
		return "On loan"
	case LoanStatusAvailable:
		return "Available"
	case LoanStatusReserved:
		return "Reserved"
	}
	return "Unknown"
}

// BookInstance is a specific copy of a book that can be borrowed.
type BookInstance struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	Imprint    string     `json:"imprint"`
	DueBack    *time.Time `json:"due_back,omitempty"`
	BorrowerID *string    `json:"borrower_id,omitempty"`
	Status     LoanStatus `json:"status"`

	// Denormalised for loan listings.
	BookTitle string `json:"-"`
}

// IsOverdue reports whether the copy is past its due date on the given day.
func (bi *BookInstance) IsOverdue(today time.Time) bool {
	if bi.DueBack == nil {
		return false
	}
	return DateOf(today).After(DateOf(*bi.DueBack))
}

// IsOnLoan returns true if the copy is currently borrowed.
func (bi *BookInstance) IsOnLoan() bool {
	return bi.Status == LoanStatusOnLoan
}

// RenewalRequest carries the due date a librarian proposes for a loan.
type RenewalRequest struct {
	ProposedDate time.Time
}
