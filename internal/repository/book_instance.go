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

// ErrInstanceNotFound is returned when a book copy does not exist.
var ErrInstanceNotFound = errors.New("book instance not found")

func instanceListing() *goqu.SelectDataset {
	return dialect.From(goqu.T("book_instances").As("bi")).
		Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("bi.book_id")))).
		Select("bi.id", "bi.book_id", "bi.imprint", "bi.due_back", "bi.borrower_id", "bi.status", "b.title")
}

// CreateBookInstance inserts a physical copy of a book.
func (r *Repository) CreateBookInstance(ctx context.Context, inst *model.BookInstance) error {
	query := `
		INSERT INTO book_instances (id, book_id, imprint, due_back, borrower_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		inst.ID,
		inst.BookID,
		inst.Imprint,
		inst.DueBack,
		inst.BorrowerID,
		string(inst.Status),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create book instance: %w", err)
	}
	return nil
}

// GetBookInstance retrieves a copy with its book title.
func (r *Repository) GetBookInstance(ctx context.Context, id string) (*model.BookInstance, error) {
	query, args, err := querySQL(instanceListing().Where(goqu.I("bi.id").Eq(id)))
	if err != nil {
		return nil, err
	}

	inst, err := scanInstance(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get book instance: %w", err)
	}
	return inst, nil
}

// ListInstancesByBook returns every copy of a book.
func (r *Repository) ListInstancesByBook(ctx context.Context, bookID string) ([]*model.BookInstance, error) {
	ds := instanceListing().
		Where(goqu.I("bi.book_id").Eq(bookID)).
		Order(goqu.I("bi.status").Asc(), goqu.I("bi.imprint").Asc())
	return r.queryInstances(ctx, ds)
}

// ListLoans returns copies currently on loan ordered by due date. A non-nil
// borrowerID restricts the listing to that borrower.
func (r *Repository) ListLoans(ctx context.Context, borrowerID *string, page Page) ([]*model.BookInstance, int64, error) {
	where := goqu.Ex{"bi.status": string(model.LoanStatusOnLoan)}
	if borrowerID != nil {
		where["bi.borrower_id"] = *borrowerID
	}

	total, err := r.count(ctx, dialect.From(goqu.T("book_instances").As("bi")).Where(where))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count loans: %w", err)
	}

	ds := instanceListing().
		Where(where).
		Order(goqu.I("bi.due_back").Asc().NullsLast(), goqu.I("bi.id").Asc())

	loans, err := r.queryInstances(ctx, page.apply(ds))
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// UpdateDueBack sets a copy's due-back date.
func (r *Repository) UpdateDueBack(ctx context.Context, id string, dueBack time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE book_instances SET due_back = $2 WHERE id = $1`,
		id, model.DateOf(dueBack),
	)
	if err != nil {
		return fmt.Errorf("failed to update due date: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

func (r *Repository) queryInstances(ctx context.Context, ds *goqu.SelectDataset) ([]*model.BookInstance, error) {
	query, args, err := querySQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list book instances: %w", err)
	}
	defer rows.Close()

	instances := []*model.BookInstance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book instance: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book instances: %w", err)
	}
	return instances, nil
}

func scanInstance(row pgx.Row) (*model.BookInstance, error) {
	var (
		inst   model.BookInstance
		status string
	)
	err := row.Scan(
		&inst.ID,
		&inst.BookID,
		&inst.Imprint,
		&inst.DueBack,
		&inst.BorrowerID,
		&status,
		&inst.BookTitle,
	)
	if err != nil {
		return nil, err
	}
	inst.Status = model.LoanStatus(status)
	return &inst, nil
}
