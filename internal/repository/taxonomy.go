package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/locallibrary/catalog/internal/model"
)

// ErrNameExists is returned when a genre or language name is already taken.
var ErrNameExists = errors.New("name already exists")

// CreateGenre inserts a genre.
func (r *Repository) CreateGenre(ctx context.Context, genre *model.Genre) error {
	return r.createNamed(ctx, "genres", genre.ID, genre.Name)
}

// CreateLanguage inserts a language.
func (r *Repository) CreateLanguage(ctx context.Context, lang *model.Language) error {
	return r.createNamed(ctx, "languages", lang.ID, lang.Name)
}

// ListGenres returns all genres ordered by name.
func (r *Repository) ListGenres(ctx context.Context) ([]model.Genre, error) {
	var genres []model.Genre
	err := r.listNamed(ctx, "genres", func(id, name string) {
		genres = append(genres, model.Genre{ID: id, Name: name})
	})
	return genres, err
}

// ListLanguages returns all languages ordered by name.
func (r *Repository) ListLanguages(ctx context.Context) ([]model.Language, error) {
	var langs []model.Language
	err := r.listNamed(ctx, "languages", func(id, name string) {
		langs = append(langs, model.Language{ID: id, Name: name})
	})
	return langs, err
}

func (r *Repository) createNamed(ctx context.Context, table, id, name string) error {
	query, args, err := querySQL(dialect.Insert(table).
		Prepared(true).
		Rows(goqu.Record{"id": id, "name": name}))
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrNameExists
		}
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (r *Repository) listNamed(ctx context.Context, table string, fn func(id, name string)) error {
	query, args, err := querySQL(dialect.From(table).
		Prepared(true).
		Select("id", "name").
		Order(goqu.C("name").Asc()))
	if err != nil {
		return err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		fn(id, name)
	}
	return rows.Err()
}
