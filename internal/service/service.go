// Package service provides business logic for the catalog.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

// Service errors.
var (
	ErrAuthorNotFound   = errors.New("author not found")
	ErrAuthorHasBooks   = errors.New("author still has books")
	ErrBookNotFound     = errors.New("book not found")
	ErrISBNExists       = errors.New("ISBN already exists")
	ErrInvalidReference = errors.New("referenced author, genre or language does not exist")
	ErrInstanceNotFound = errors.New("book instance not found")
	ErrNameExists       = errors.New("name already exists")
	ErrPageNotFound     = errors.New("page not found")
)

// SummaryStore computes catalog counts.
type SummaryStore interface {
	CatalogSummary(ctx context.Context, genreKeyword, titleKeyword string) (*model.CatalogSummary, error)
}

// AuthorStore persists authors.
type AuthorStore interface {
	CreateAuthor(ctx context.Context, author *model.Author) error
	GetAuthorByID(ctx context.Context, id string) (*model.Author, error)
	ListAuthors(ctx context.Context, page repository.Page) ([]*model.Author, int64, error)
	UpdateAuthor(ctx context.Context, author *model.Author) error
	DeleteAuthor(ctx context.Context, id string) error
	ListBooksByAuthor(ctx context.Context, authorID string) ([]*model.Book, error)
}

// BookStore persists books and their copies.
type BookStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context, page repository.Page) ([]*model.Book, int64, error)
	UpdateBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, id string) error
	ListInstancesByBook(ctx context.Context, bookID string) ([]*model.BookInstance, error)
	CreateBookInstance(ctx context.Context, inst *model.BookInstance) error
}

// LoanStore reads and renews loans.
type LoanStore interface {
	GetBookInstance(ctx context.Context, id string) (*model.BookInstance, error)
	ListLoans(ctx context.Context, borrowerID *string, page repository.Page) ([]*model.BookInstance, int64, error)
	UpdateDueBack(ctx context.Context, id string, dueBack time.Time) error
}

// TaxonomyStore persists genres and languages.
type TaxonomyStore interface {
	CreateGenre(ctx context.Context, genre *model.Genre) error
	CreateLanguage(ctx context.Context, lang *model.Language) error
	ListGenres(ctx context.Context) ([]model.Genre, error)
	ListLanguages(ctx context.Context) ([]model.Language, error)
}

// SummaryCache caches the catalog summary.
type SummaryCache interface {
	GetSummary(ctx context.Context) (*model.CatalogSummary, error)
	SetSummary(ctx context.Context, s *model.CatalogSummary) error
	InvalidateSummary(ctx context.Context) error
}

// VisitCounter counts visits per session.
type VisitCounter interface {
	IncrementVisits(ctx context.Context, sessionID string) (int64, error)
}

// EventRecorder publishes catalog activity.
type EventRecorder interface {
	Record(eventType model.EventType, entityID, actorID string, data any)
}

type noopEvents struct{}

func (noopEvents) Record(model.EventType, string, string, any) {}

// Effects bundles what happens after a successful catalog mutation.
type Effects struct {
	Cache   SummaryCache
	Events  EventRecorder
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

func (fx Effects) withDefaults() Effects {
	if fx.Events == nil {
		fx.Events = noopEvents{}
	}
	if fx.Metrics == nil {
		fx.Metrics = metrics.NewNoop()
	}
	if fx.Logger == nil {
		fx.Logger = slog.Default()
	}
	return fx
}

// mutated records a catalog change: metrics, activity event and summary
// invalidation. Cache failures are logged and otherwise ignored.
func (fx Effects) mutated(ctx context.Context, entity, action string, eventType model.EventType, entityID, actorID string, data any) {
	fx.Metrics.IncCatalogMutation(entity, action)
	fx.Events.Record(eventType, entityID, actorID, data)

	if fx.Cache == nil {
		return
	}
	if err := fx.Cache.InvalidateSummary(ctx); err != nil {
		fx.Logger.Warn("failed to invalidate catalog summary",
			"entity", entity,
			"action", action,
			"error", err,
		)
	}
}
