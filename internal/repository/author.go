package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/locallibrary/catalog/internal/model"
)

// Common errors for author repository operations.
var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrAuthorHasBooks = errors.New("author still has books")
)

var authorColumns = []any{"id", "first_name", "last_name", "date_of_birth", "date_of_death", "created_at", "updated_at"}

// CreateAuthor inserts a new author.
func (r *Repository) CreateAuthor(ctx context.Context, author *model.Author) error {
	query := `
		INSERT INTO authors (id, first_name, last_name, date_of_birth, date_of_death, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		author.ID,
		author.FirstName,
		author.LastName,
		author.DateOfBirth,
		author.DateOfDeath,
		author.CreatedAt,
		author.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}

	return nil
}

// GetAuthorByID retrieves an author by ID.
func (r *Repository) GetAuthorByID(ctx context.Context, id string) (*model.Author, error) {
	query, args, err := querySQL(dialect.From("authors").
		Prepared(true).
		Select(authorColumns...).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, err
	}

	author, err := scanAuthor(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return author, nil
}

// ListAuthors returns one page of authors ordered by last then first name,
// together with the total number of authors.
func (r *Repository) ListAuthors(ctx context.Context, page Page) ([]*model.Author, int64, error) {
	total, err := r.count(ctx, dialect.From("authors"))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	ds := dialect.From("authors").
		Prepared(true).
		Select(authorColumns...).
		Order(goqu.C("last_name").Asc(), goqu.C("first_name").Asc(), goqu.C("id").Asc())

	query, args, err := querySQL(page.apply(ds))
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := make([]*model.Author, 0, page.Size)
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating authors: %w", err)
	}

	return authors, total, nil
}

// UpdateAuthor overwrites an author's mutable fields.
func (r *Repository) UpdateAuthor(ctx context.Context, author *model.Author) error {
	query := `
		UPDATE authors
		SET first_name = $2, last_name = $3, date_of_birth = $4, date_of_death = $5, updated_at = $6
		WHERE id = $1
	`

	author.UpdatedAt = time.Now().UTC()
	result, err := r.pool.Exec(ctx, query,
		author.ID,
		author.FirstName,
		author.LastName,
		author.DateOfBirth,
		author.DateOfDeath,
		author.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update author: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// DeleteAuthor removes an author. Authors referenced by books cannot be removed.
func (r *Repository) DeleteAuthor(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAuthorHasBooks
		}
		return fmt.Errorf("failed to delete author: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// count runs SELECT COUNT(*) over ds.
func (r *Repository) count(ctx context.Context, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := querySQL(ds.Prepared(true).Select(goqu.COUNT(goqu.Star())))
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanAuthor(row pgx.Row) (*model.Author, error) {
	var a model.Author
	err := row.Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.DateOfBirth,
		&a.DateOfDeath,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
