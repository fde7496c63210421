package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

// memStore is an in-memory implementation of the store interfaces.
type memStore struct {
	mu        sync.Mutex
	authors   map[string]*model.Author
	books     map[string]*model.Book
	instances map[string]*model.BookInstance
	genres    map[string]string
	summary   *model.CatalogSummary
	events    []*model.CatalogEvent

	summaryCalls int
	err          error
}

func newMemStore() *memStore {
	return &memStore{
		authors:   map[string]*model.Author{},
		books:     map[string]*model.Book{},
		instances: map[string]*model.BookInstance{},
		genres:    map[string]string{},
		summary:   &model.CatalogSummary{NumBooks: 3, NumAuthors: 2},
	}
}

func (m *memStore) CatalogSummary(_ context.Context, genreKeyword, titleKeyword string) (*model.CatalogSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls++
	if m.err != nil {
		return nil, m.err
	}
	s := *m.summary
	s.GenreKeyword = genreKeyword
	s.TitleKeyword = titleKeyword
	return &s, nil
}

func (m *memStore) CreateAuthor(_ context.Context, a *model.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *a
	m.authors[a.ID] = &cp
	return nil
}

func (m *memStore) GetAuthorByID(_ context.Context, id string) (*model.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.authors[id]
	if !ok {
		return nil, repository.ErrAuthorNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListAuthors(_ context.Context, page repository.Page) ([]*model.Author, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*model.Author, 0, len(m.authors))
	for _, a := range m.authors {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastName != all[j].LastName {
			return all[i].LastName < all[j].LastName
		}
		return all[i].FirstName < all[j].FirstName
	})
	return window(all, page), int64(len(all)), nil
}

func (m *memStore) UpdateAuthor(_ context.Context, a *model.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.authors[a.ID]; !ok {
		return repository.ErrAuthorNotFound
	}
	cp := *a
	m.authors[a.ID] = &cp
	return nil
}

func (m *memStore) DeleteAuthor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.authors[id]; !ok {
		return repository.ErrAuthorNotFound
	}
	for _, b := range m.books {
		if b.AuthorID != nil && *b.AuthorID == id {
			return repository.ErrAuthorHasBooks
		}
	}
	delete(m.authors, id)
	return nil
}

func (m *memStore) ListBooksByAuthor(_ context.Context, authorID string) ([]*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Book
	for _, b := range m.books {
		if b.AuthorID != nil && *b.AuthorID == authorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CreateBook(_ context.Context, b *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.books {
		if existing.ISBN == b.ISBN {
			return repository.ErrISBNExists
		}
	}
	if b.AuthorID != nil {
		if _, ok := m.authors[*b.AuthorID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	cp := *b
	m.books[b.ID] = &cp
	return nil
}

func (m *memStore) GetBookByID(_ context.Context, id string) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) ListBooks(_ context.Context, page repository.Page) ([]*model.Book, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*model.Book, 0, len(m.books))
	for _, b := range m.books {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	return window(all, page), int64(len(all)), nil
}

func (m *memStore) UpdateBook(_ context.Context, b *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; !ok {
		return repository.ErrBookNotFound
	}
	cp := *b
	m.books[b.ID] = &cp
	return nil
}

func (m *memStore) DeleteBook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return repository.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memStore) ListInstancesByBook(_ context.Context, bookID string) ([]*model.BookInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.BookInstance
	for _, inst := range m.instances {
		if inst.BookID == bookID {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *memStore) CreateBookInstance(_ context.Context, inst *model.BookInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[inst.BookID]; !ok {
		return repository.ErrInvalidReference
	}
	cp := *inst
	m.instances[inst.ID] = &cp
	return nil
}

func (m *memStore) GetBookInstance(_ context.Context, id string) (*model.BookInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return nil, repository.ErrInstanceNotFound
	}
	cp := *inst
	return &cp, nil
}

func (m *memStore) ListLoans(_ context.Context, borrowerID *string, page repository.Page) ([]*model.BookInstance, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.BookInstance
	for _, inst := range m.instances {
		if inst.Status != model.LoanStatusOnLoan {
			continue
		}
		if borrowerID != nil && (inst.BorrowerID == nil || *inst.BorrowerID != *borrowerID) {
			continue
		}
		all = append(all, inst)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DueBack.Before(*all[j].DueBack) })
	return window(all, page), int64(len(all)), nil
}

func (m *memStore) UpdateDueBack(_ context.Context, id string, dueBack time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return repository.ErrInstanceNotFound
	}
	d := model.DateOf(dueBack)
	inst.DueBack = &d
	return nil
}

func (m *memStore) CreateGenre(_ context.Context, g *model.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.genres {
		if name == g.Name {
			return repository.ErrNameExists
		}
	}
	m.genres[g.ID] = g.Name
	return nil
}

func (m *memStore) CreateLanguage(context.Context, *model.Language) error { return nil }

func (m *memStore) ListGenres(context.Context) ([]model.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Genre, 0, len(m.genres))
	for id, name := range m.genres {
		out = append(out, model.Genre{ID: id, Name: name})
	}
	return out, nil
}

func (m *memStore) ListLanguages(context.Context) ([]model.Language, error) {
	return []model.Language{}, nil
}

func (m *memStore) ListByEntity(_ context.Context, entityID string, limit int) ([]*model.CatalogEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CatalogEvent
	for _, e := range m.events {
		if e.EntityID == entityID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	var n int64
	for _, e := range m.events {
		if e.OccurredAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return n, nil
}

func window[T any](all []T, page repository.Page) []T {
	start := page.Offset()
	if start >= len(all) {
		return nil
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type recordedEvent struct {
	Type     model.EventType
	EntityID string
	ActorID  string
	Data     any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) Record(t model.EventType, entityID, actorID string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Type: t, EntityID: entityID, ActorID: actorID, Data: data})
}

func (f *fakeEvents) types() []model.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}
