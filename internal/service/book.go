package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

// BookInput is the full set of editable book fields.
type BookInput struct {
	Title      string   `json:"title" validate:"required,max=200"`
	AuthorID   string   `json:"author_id" validate:"omitempty,len=26"`
	Summary    string   `json:"summary" validate:"required,max=1000"`
	ISBN       string   `json:"isbn" validate:"required,len=13,number"`
	GenreIDs   []string `json:"genre_ids" validate:"omitempty,unique,dive,len=26"`
	LanguageID string   `json:"language_id" validate:"omitempty,len=26"`
}

// BookPatch carries the fields to change. Nil fields are left as they are;
// an empty author or language ID clears the reference.
type BookPatch struct {
	Title      *string   `json:"title"`
	AuthorID   *string   `json:"author_id"`
	Summary    *string   `json:"summary"`
	ISBN       *string   `json:"isbn"`
	GenreIDs   *[]string `json:"genre_ids"`
	LanguageID *string   `json:"language_id"`
}

// InstanceInput describes a new physical copy.
type InstanceInput struct {
	Imprint    string `json:"imprint" validate:"required,max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=m o a r"`
	DueBack    string `json:"due_back" validate:"omitempty,datetime=2006-01-02"`
	BorrowerID string `json:"borrower_id" validate:"omitempty,max=64"`
}

// BookDetail is a book together with its copies.
type BookDetail struct {
	Book      *model.Book
	Instances []*model.BookInstance
}

// BookService handles book business logic.
type BookService struct {
	store    BookStore
	fx       Effects
	pageSize int
}

// NewBookService creates a new BookService.
func NewBookService(store BookStore, fx Effects, pageSize int) *BookService {
	return &BookService{store: store, fx: fx.withDefaults(), pageSize: pageSize}
}

// CreateBook validates and stores a new book with its genre links.
func (s *BookService) CreateBook(ctx context.Context, in BookInput, actorID string) (*model.Book, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	book := &model.Book{
		ID:         ulid.Make().String(),
		Title:      in.Title,
		AuthorID:   optionalID(in.AuthorID),
		Summary:    in.Summary,
		ISBN:       in.ISBN,
		LanguageID: optionalID(in.LanguageID),
		GenreIDs:   nonNil(in.GenreIDs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, mapBookError(err)
	}

	s.fx.mutated(ctx, "book", "created", model.EventBookCreated, book.ID, actorID,
		map[string]string{"title": book.Title, "isbn": book.ISBN})
	return book, nil
}

// GetBook returns a book with its copies.
func (s *BookService) GetBook(ctx context.Context, id string) (*BookDetail, error) {
	book, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		return nil, mapBookError(err)
	}

	instances, err := s.store.ListInstancesByBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list book copies: %w", err)
	}
	return &BookDetail{Book: book, Instances: instances}, nil
}

// ListBooks returns one page of books.
func (s *BookService) ListBooks(ctx context.Context, pageNumber int) (*Page[*model.Book], error) {
	req, err := pageRequest(pageNumber, s.pageSize)
	if err != nil {
		return nil, err
	}

	books, total, err := s.store.ListBooks(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return newPage(req, books, total)
}

// UpdateBook applies a patch to an existing book.
func (s *BookService) UpdateBook(ctx context.Context, id string, patch BookPatch, actorID string) (*model.Book, error) {
	book, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		return nil, mapBookError(err)
	}

	in := BookInput{
		Title:      book.Title,
		AuthorID:   derefID(book.AuthorID),
		Summary:    book.Summary,
		ISBN:       book.ISBN,
		GenreIDs:   book.GenreIDs,
		LanguageID: derefID(book.LanguageID),
	}
	if patch.Title != nil {
		in.Title = *patch.Title
	}
	if patch.AuthorID != nil {
		in.AuthorID = *patch.AuthorID
	}
	if patch.Summary != nil {
		in.Summary = *patch.Summary
	}
	if patch.ISBN != nil {
		in.ISBN = *patch.ISBN
	}
	if patch.GenreIDs != nil {
		in.GenreIDs = *patch.GenreIDs
	}
	if patch.LanguageID != nil {
		in.LanguageID = *patch.LanguageID
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	book.Title = in.Title
	book.AuthorID = optionalID(in.AuthorID)
	book.Summary = in.Summary
	book.ISBN = in.ISBN
	book.GenreIDs = nonNil(in.GenreIDs)
	book.LanguageID = optionalID(in.LanguageID)

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, mapBookError(err)
	}

	s.fx.mutated(ctx, "book", "updated", model.EventBookUpdated, book.ID, actorID,
		map[string]string{"title": book.Title, "isbn": book.ISBN})
	return book, nil
}

// DeleteBook removes a book and its copies.
func (s *BookService) DeleteBook(ctx context.Context, id, actorID string) error {
	if err := s.store.DeleteBook(ctx, id); err != nil {
		return mapBookError(err)
	}

	s.fx.mutated(ctx, "book", "deleted", model.EventBookDeleted, id, actorID, nil)
	return nil
}

// AddInstance registers a new physical copy of a book.
func (s *BookService) AddInstance(ctx context.Context, bookID string, in InstanceInput, actorID string) (*model.BookInstance, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	status := model.LoanStatus(in.Status)
	if status == "" {
		status = model.LoanStatusMaintenance
	}
	inst := &model.BookInstance{
		ID:         uuid.NewString(),
		BookID:     bookID,
		Imprint:    in.Imprint,
		DueBack:    parseOptionalDate(in.DueBack),
		BorrowerID: optionalID(in.BorrowerID),
		Status:     status,
	}

	if err := s.store.CreateBookInstance(ctx, inst); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("failed to create book instance: %w", err)
	}

	s.fx.mutated(ctx, "book_instance", "created", model.EventInstanceCreated, inst.ID, actorID,
		map[string]string{"book_id": bookID, "imprint": inst.Imprint})
	return inst, nil
}

func mapBookError(err error) error {
	switch {
	case errors.Is(err, repository.ErrBookNotFound):
		return ErrBookNotFound
	case errors.Is(err, repository.ErrISBNExists):
		return ErrISBNExists
	case errors.Is(err, repository.ErrInvalidReference):
		return ErrInvalidReference
	}
	return fmt.Errorf("book store: %w", err)
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func derefID(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
