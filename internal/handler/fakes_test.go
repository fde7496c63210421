package handler

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memLibrary is an in-memory author and loan store.
type memLibrary struct {
	mu        sync.Mutex
	authors   map[string]*model.Author
	instances map[string]*model.BookInstance
}

func newMemLibrary() *memLibrary {
	return &memLibrary{
		authors:   map[string]*model.Author{},
		instances: map[string]*model.BookInstance{},
	}
}

func window[T any](all []T, page repository.Page) []T {
	start := page.Offset()
	if start >= len(all) {
		return nil
	}
	end := min(start+page.Size, len(all))
	return all[start:end]
}

func (m *memLibrary) CreateAuthor(_ context.Context, a *model.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.authors[a.ID] = &cp
	return nil
}

func (m *memLibrary) GetAuthorByID(_ context.Context, id string) (*model.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.authors[id]
	if !ok {
		return nil, repository.ErrAuthorNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memLibrary) ListAuthors(_ context.Context, page repository.Page) ([]*model.Author, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*model.Author, 0, len(m.authors))
	for _, a := range m.authors {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastName < all[j].LastName })
	return window(all, page), int64(len(all)), nil
}

func (m *memLibrary) UpdateAuthor(_ context.Context, a *model.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.authors[a.ID]; !ok {
		return repository.ErrAuthorNotFound
	}
	cp := *a
	m.authors[a.ID] = &cp
	return nil
}

func (m *memLibrary) DeleteAuthor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.authors[id]; !ok {
		return repository.ErrAuthorNotFound
	}
	delete(m.authors, id)
	return nil
}

func (m *memLibrary) ListBooksByAuthor(context.Context, string) ([]*model.Book, error) {
	return nil, nil
}

func (m *memLibrary) GetBookInstance(_ context.Context, id string) (*model.BookInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bi, ok := m.instances[id]
	if !ok {
		return nil, repository.ErrInstanceNotFound
	}
	cp := *bi
	return &cp, nil
}

func (m *memLibrary) ListLoans(_ context.Context, borrowerID *string, page repository.Page) ([]*model.BookInstance, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.BookInstance
	for _, bi := range m.instances {
		if bi.Status != model.LoanStatusOnLoan {
			continue
		}
		if borrowerID != nil && (bi.BorrowerID == nil || *bi.BorrowerID != *borrowerID) {
			continue
		}
		all = append(all, bi)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DueBack.Before(*all[j].DueBack) })
	return window(all, page), int64(len(all)), nil
}

func (m *memLibrary) UpdateDueBack(_ context.Context, id string, dueBack time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bi, ok := m.instances[id]
	if !ok {
		return repository.ErrInstanceNotFound
	}
	bi.DueBack = &dueBack
	return nil
}

func (m *memLibrary) addLoan(id, borrower string, due time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[id] = &model.BookInstance{
		ID:         id,
		BookID:     "01HZX3K7M2J8Q4R6T9V0W1Y2Z3",
		BookTitle:  "Dune",
		Imprint:    "Ace, 1990",
		DueBack:    &due,
		BorrowerID: &borrower,
		Status:     model.LoanStatusOnLoan,
	}
}
