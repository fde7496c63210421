package repository

import (
	"context"
	"fmt"

	"github.com/locallibrary/catalog/internal/model"
)

// CatalogSummary counts books, copies and authors. Genre and title keyword
// counts are case-insensitive substring matches.
func (r *Repository) CatalogSummary(ctx context.Context, genreKeyword, titleKeyword string) (*model.CatalogSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM book_instances),
			(SELECT COUNT(*) FROM book_instances WHERE status = 'a'),
			(SELECT COUNT(*) FROM authors),
			(SELECT COUNT(*) FROM genres WHERE name ILIKE '%' || $1 || '%'),
			(SELECT COUNT(*) FROM books WHERE title ILIKE '%' || $2 || '%')
	`

	s := model.CatalogSummary{GenreKeyword: genreKeyword, TitleKeyword: titleKeyword}
	err := r.pool.QueryRow(ctx, query, escapeLike(genreKeyword), escapeLike(titleKeyword)).Scan(
		&s.NumBooks,
		&s.NumInstances,
		&s.NumInstancesAvailable,
		&s.NumAuthors,
		&s.NumGenresMatching,
		&s.NumBooksMatching,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog summary: %w", err)
	}
	return &s, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
