package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

// AuthorInput is the full set of editable author fields.
type AuthorInput struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath string `json:"date_of_death" validate:"omitempty,datetime=2006-01-02"`
}

// AuthorPatch carries the fields to change. Nil fields are left as they
// are; an empty date string clears the date.
type AuthorPatch struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
	DateOfDeath *string `json:"date_of_death"`
}

func (in AuthorInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.DateOfBirth != "" && in.DateOfDeath != "" && in.DateOfDeath < in.DateOfBirth {
		return fieldError("date_of_death", "after_birth")
	}
	return nil
}

// AuthorDetail is an author together with their books.
type AuthorDetail struct {
	Author *model.Author
	Books  []*model.Book
}

// AuthorService handles author business logic.
type AuthorService struct {
	store    AuthorStore
	fx       Effects
	pageSize int
}

// NewAuthorService creates a new AuthorService.
func NewAuthorService(store AuthorStore, fx Effects, pageSize int) *AuthorService {
	return &AuthorService{store: store, fx: fx.withDefaults(), pageSize: pageSize}
}

// CreateAuthor validates and stores a new author.
func (s *AuthorService) CreateAuthor(ctx context.Context, in AuthorInput, actorID string) (*model.Author, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	author := &model.Author{
		ID:          ulid.Make().String(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: parseOptionalDate(in.DateOfBirth),
		DateOfDeath: parseOptionalDate(in.DateOfDeath),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	s.fx.mutated(ctx, "author", "created", model.EventAuthorCreated, author.ID, actorID,
		map[string]string{"name": author.DisplayName()})
	return author, nil
}

// GetAuthor returns an author with their books.
func (s *AuthorService) GetAuthor(ctx context.Context, id string) (*AuthorDetail, error) {
	author, err := s.store.GetAuthorByID(ctx, id)
	if err != nil {
		return nil, mapAuthorError(err)
	}

	books, err := s.store.ListBooksByAuthor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list author books: %w", err)
	}
	return &AuthorDetail{Author: author, Books: books}, nil
}

// ListAuthors returns one page of authors.
func (s *AuthorService) ListAuthors(ctx context.Context, pageNumber int) (*Page[*model.Author], error) {
	req, err := pageRequest(pageNumber, s.pageSize)
	if err != nil {
		return nil, err
	}

	authors, total, err := s.store.ListAuthors(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return newPage(req, authors, total)
}

// UpdateAuthor applies a patch to an existing author.
func (s *AuthorService) UpdateAuthor(ctx context.Context, id string, patch AuthorPatch, actorID string) (*model.Author, error) {
	author, err := s.store.GetAuthorByID(ctx, id)
	if err != nil {
		return nil, mapAuthorError(err)
	}

	in := AuthorInput{
		FirstName:   author.FirstName,
		LastName:    author.LastName,
		DateOfBirth: model.FormatDate(author.DateOfBirth),
		DateOfDeath: model.FormatDate(author.DateOfDeath),
	}
	if patch.FirstName != nil {
		in.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		in.LastName = *patch.LastName
	}
	if patch.DateOfBirth != nil {
		in.DateOfBirth = *patch.DateOfBirth
	}
	if patch.DateOfDeath != nil {
		in.DateOfDeath = *patch.DateOfDeath
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	author.FirstName = in.FirstName
	author.LastName = in.LastName
	author.DateOfBirth = parseOptionalDate(in.DateOfBirth)
	author.DateOfDeath = parseOptionalDate(in.DateOfDeath)

	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, mapAuthorError(err)
	}

	s.fx.mutated(ctx, "author", "updated", model.EventAuthorUpdated, author.ID, actorID,
		map[string]string{"name": author.DisplayName()})
	return author, nil
}

// DeleteAuthor removes an author that has no books.
func (s *AuthorService) DeleteAuthor(ctx context.Context, id, actorID string) error {
	if err := s.store.DeleteAuthor(ctx, id); err != nil {
		return mapAuthorError(err)
	}

	s.fx.mutated(ctx, "author", "deleted", model.EventAuthorDeleted, id, actorID, nil)
	return nil
}

func mapAuthorError(err error) error {
	switch {
	case errors.Is(err, repository.ErrAuthorNotFound):
		return ErrAuthorNotFound
	case errors.Is(err, repository.ErrAuthorHasBooks):
		return ErrAuthorHasBooks
	}
	return fmt.Errorf("author store: %w", err)
}
