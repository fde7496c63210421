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

// Common errors for book repository operations.
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrISBNExists       = errors.New("ISBN already exists")
	ErrInvalidReference = errors.New("referenced author, genre or language does not exist")
)

// bookListing selects a book with its author's name and language.
func bookListing() *goqu.SelectDataset {
	return dialect.From(goqu.T("books").As("b")).
		Prepared(true).
		LeftJoin(goqu.T("authors").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
		LeftJoin(goqu.T("languages").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("b.language_id")))).
		Select(
			"b.id", "b.title", "b.author_id", "b.summary", "b.isbn", "b.language_id",
			"b.created_at", "b.updated_at",
			goqu.COALESCE(goqu.I("a.first_name"), "").As("author_first_name"),
			goqu.COALESCE(goqu.I("a.last_name"), "").As("author_last_name"),
			goqu.COALESCE(goqu.I("l.name"), "").As("language_name"),
		)
}

// CreateBook inserts a book and its genre links in one transaction.
func (r *Repository) CreateBook(ctx context.Context, book *model.Book) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO books (id, title, author_id, summary, isbn, language_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query,
		book.ID,
		book.Title,
		book.AuthorID,
		book.Summary,
		book.ISBN,
		book.LanguageID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return mapBookWriteError("create", err)
	}

	if err := insertBookGenres(ctx, tx, book.ID, book.GenreIDs); err != nil {
		return mapBookWriteError("link genres for", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit book: %w", err)
	}
	return nil
}

// GetBookByID retrieves a book with its author, language and genres.
func (r *Repository) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
	query, args, err := querySQL(bookListing().Where(goqu.I("b.id").Eq(id)))
	if err != nil {
		return nil, err
	}

	book, err := scanBook(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	genres, err := r.genresForBook(ctx, id)
	if err != nil {
		return nil, err
	}
	book.Genres = genres
	book.GenreIDs = make([]string, 0, len(genres))
	for _, g := range genres {
		book.GenreIDs = append(book.GenreIDs, g.ID)
	}

	return book, nil
}

// ListBooks returns one page of books ordered by title, plus the total count.
func (r *Repository) ListBooks(ctx context.Context, page Page) ([]*model.Book, int64, error) {
	total, err := r.count(ctx, dialect.From("books"))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	ds := bookListing().Order(goqu.I("b.title").Asc(), goqu.I("b.id").Asc())
	books, err := r.queryBooks(ctx, page.apply(ds))
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ListBooksByAuthor returns every book by an author ordered by title.
func (r *Repository) ListBooksByAuthor(ctx context.Context, authorID string) ([]*model.Book, error) {
	ds := bookListing().
		Where(goqu.I("b.author_id").Eq(authorID)).
		Order(goqu.I("b.title").Asc())
	return r.queryBooks(ctx, ds)
}

// UpdateBook overwrites a book and replaces its genre links.
func (r *Repository) UpdateBook(ctx context.Context, book *model.Book) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		UPDATE books
		SET title = $2, author_id = $3, summary = $4, isbn = $5, language_id = $6, updated_at = $7
		WHERE id = $1
	`
	book.UpdatedAt = time.Now().UTC()
	result, err := tx.Exec(ctx, query,
		book.ID,
		book.Title,
		book.AuthorID,
		book.Summary,
		book.ISBN,
		book.LanguageID,
		book.UpdatedAt,
	)
	if err != nil {
		return mapBookWriteError("update", err)
	}
	if result.RowsAffected() == 0 {
		return ErrBookNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM book_genres WHERE book_id = $1`, book.ID); err != nil {
		return fmt.Errorf("failed to clear book genres: %w", err)
	}
	if err := insertBookGenres(ctx, tx, book.ID, book.GenreIDs); err != nil {
		return mapBookWriteError("link genres for", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit book: %w", err)
	}
	return nil
}

// DeleteBook removes a book together with its copies and genre links.
func (r *Repository) DeleteBook(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *Repository) queryBooks(ctx context.Context, ds *goqu.SelectDataset) ([]*model.Book, error) {
	query, args, err := querySQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}
	return books, nil
}

func (r *Repository) genresForBook(ctx context.Context, bookID string) ([]model.Genre, error) {
	query, args, err := querySQL(dialect.From(goqu.T("genres").As("g")).
		Prepared(true).
		Join(goqu.T("book_genres").As("bg"), goqu.On(goqu.I("bg.genre_id").Eq(goqu.I("g.id")))).
		Select("g.id", "g.name").
		Where(goqu.I("bg.book_id").Eq(bookID)).
		Order(goqu.I("g.name").Asc()))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get book genres: %w", err)
	}
	defer rows.Close()

	genres := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating genres: %w", err)
	}
	return genres, nil
}

func insertBookGenres(ctx context.Context, tx pgx.Tx, bookID string, genreIDs []string) error {
	if len(genreIDs) == 0 {
		return nil
	}

	rows := make([]any, 0, len(genreIDs))
	for _, genreID := range genreIDs {
		rows = append(rows, goqu.Record{"book_id": bookID, "genre_id": genreID})
	}

	query, args, err := querySQL(dialect.Insert("book_genres").
		Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoNothing()))
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, query, args...)
	return err
}

func mapBookWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return ErrISBNExists
	case isForeignKeyViolation(err):
		return ErrInvalidReference
	}
	return fmt.Errorf("failed to %s book: %w", op, err)
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var (
		b                   model.Book
		firstName, lastName string
		languageName        string
	)
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.AuthorID,
		&b.Summary,
		&b.ISBN,
		&b.LanguageID,
		&b.CreatedAt,
		&b.UpdatedAt,
		&firstName,
		&lastName,
		&languageName,
	)
	if err != nil {
		return nil, err
	}

	if b.AuthorID != nil {
		b.Author = &model.Author{ID: *b.AuthorID, FirstName: firstName, LastName: lastName}
	}
	if b.LanguageID != nil {
		b.Language = &model.Language{ID: *b.LanguageID, Name: languageName}
	}
	return &b, nil
}
