package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

// NameInput names a genre or language.
type NameInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

// TaxonomyService manages genres and languages.
type TaxonomyService struct {
	store TaxonomyStore
	fx    Effects
}

// NewTaxonomyService creates a new TaxonomyService.
func NewTaxonomyService(store TaxonomyStore, fx Effects) *TaxonomyService {
	return &TaxonomyService{store: store, fx: fx.withDefaults()}
}

// CreateGenre adds a genre.
func (s *TaxonomyService) CreateGenre(ctx context.Context, in NameInput, actorID string) (*model.Genre, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	genre := &model.Genre{ID: ulid.Make().String(), Name: in.Name}
	if err := s.store.CreateGenre(ctx, genre); err != nil {
		return nil, mapNameError("genre", err)
	}

	s.fx.mutated(ctx, "genre", "created", model.EventGenreCreated, genre.ID, actorID,
		map[string]string{"name": genre.Name})
	return genre, nil
}

// CreateLanguage adds a language.
func (s *TaxonomyService) CreateLanguage(ctx context.Context, in NameInput, actorID string) (*model.Language, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	lang := &model.Language{ID: ulid.Make().String(), Name: in.Name}
	if err := s.store.CreateLanguage(ctx, lang); err != nil {
		return nil, mapNameError("language", err)
	}

	s.fx.mutated(ctx, "language", "created", model.EventLanguageCreated, lang.ID, actorID,
		map[string]string{"name": lang.Name})
	return lang, nil
}

// ListGenres returns every genre ordered by name.
func (s *TaxonomyService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

// ListLanguages returns every language ordered by name.
func (s *TaxonomyService) ListLanguages(ctx context.Context) ([]model.Language, error) {
	langs, err := s.store.ListLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	return langs, nil
}

func mapNameError(kind string, err error) error {
	if errors.Is(err, repository.ErrNameExists) {
		return ErrNameExists
	}
	return fmt.Errorf("failed to create %s: %w", kind, err)
}
