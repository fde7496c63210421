package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/renewal"
	"github.com/locallibrary/catalog/internal/repository"
)

// RenewalForm is what a librarian needs to renew a loan.
type RenewalForm struct {
	Instance     *model.BookInstance
	ProposedDate time.Time
	LatestDate   time.Time
	HelpText     string
}

// LoanService lists loans and renews them.
type LoanService struct {
	store    LoanStore
	clock    *renewal.Clock
	events   EventRecorder
	metrics  metrics.Recorder
	pageSize int
}

// NewLoanService creates a new LoanService. A nil clock uses UTC wall time.
func NewLoanService(store LoanStore, clock *renewal.Clock, events EventRecorder, recorder metrics.Recorder, pageSize int) *LoanService {
	if clock == nil {
		clock = renewal.NewClock(nil, nil)
	}
	if events == nil {
		events = noopEvents{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LoanService{
		store:    store,
		clock:    clock,
		events:   events,
		metrics:  recorder,
		pageSize: pageSize,
	}
}

// Today returns the library's current calendar day.
func (s *LoanService) Today() time.Time {
	return s.clock.Today()
}

// ListMyLoans returns one page of the borrower's current loans.
func (s *LoanService) ListMyLoans(ctx context.Context, borrowerID string, pageNumber int) (*Page[*model.BookInstance], error) {
	return s.listLoans(ctx, &borrowerID, pageNumber)
}

// ListAllLoans returns one page of every current loan.
func (s *LoanService) ListAllLoans(ctx context.Context, pageNumber int) (*Page[*model.BookInstance], error) {
	return s.listLoans(ctx, nil, pageNumber)
}

func (s *LoanService) listLoans(ctx context.Context, borrowerID *string, pageNumber int) (*Page[*model.BookInstance], error) {
	req, err := pageRequest(pageNumber, s.pageSize)
	if err != nil {
		return nil, err
	}

	loans, total, err := s.store.ListLoans(ctx, borrowerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return newPage(req, loans, total)
}

// RenewalForm loads a copy and the dates offered for its renewal.
func (s *LoanService) RenewalForm(ctx context.Context, instanceID string) (*RenewalForm, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	return &RenewalForm{
		Instance:     inst,
		ProposedDate: renewal.ProposedDate(today),
		LatestDate:   renewal.LatestDate(today),
		HelpText:     renewal.HelpText,
	}, nil
}

// Renew moves a copy's due date to proposed. The date must fall within the
// renewal window counted from today; renewal errors are returned as is.
func (s *LoanService) Renew(ctx context.Context, instanceID string, proposed time.Time, actorID string) (*model.BookInstance, error) {
	if err := renewal.ValidateRequest(model.RenewalRequest{ProposedDate: proposed}, s.clock.Today()); err != nil {
		switch {
		case errors.Is(err, renewal.ErrDateInPast):
			s.metrics.IncRenewal(metrics.RenewalDateInPast)
		case errors.Is(err, renewal.ErrDateTooFarInFuture):
			s.metrics.IncRenewal(metrics.RenewalTooFarInFuture)
		}
		return nil, err
	}

	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		if errors.Is(err, ErrInstanceNotFound) {
			s.metrics.IncRenewal(metrics.RenewalNotFound)
		}
		return nil, err
	}

	previous := model.FormatDate(inst.DueBack)
	dueBack := model.DateOf(proposed)
	if err := s.store.UpdateDueBack(ctx, inst.ID, dueBack); err != nil {
		if errors.Is(err, repository.ErrInstanceNotFound) {
			s.metrics.IncRenewal(metrics.RenewalNotFound)
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to renew book instance: %w", err)
	}
	inst.DueBack = &dueBack

	s.metrics.IncRenewal(metrics.RenewalAccepted)
	s.events.Record(model.EventInstanceRenewed, inst.ID, actorID, map[string]string{
		"book_id":           inst.BookID,
		"due_back":          model.FormatDate(inst.DueBack),
		"previous_due_back": previous,
	})
	return inst, nil
}

func (s *LoanService) getInstance(ctx context.Context, id string) (*model.BookInstance, error) {
	inst, err := s.store.GetBookInstance(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInstanceNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get book instance: %w", err)
	}
	return inst, nil
}
