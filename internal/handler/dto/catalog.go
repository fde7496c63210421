package dto

import (
	"encoding/json"
	"time"

	"github.com/locallibrary/catalog/internal/model"
)

// PageResponse is the envelope for numbered listings.
type PageResponse[T any] struct {
	Items       []T   `json:"items"`
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	NumPages    int   `json:"num_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// AuthorResponse is an author as returned by the API.
type AuthorResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	DateOfDeath string    `json:"date_of_death,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthorDetailResponse adds the author's books.
type AuthorDetailResponse struct {
	AuthorResponse
	Books []BookSummaryResponse `json:"books"`
}

// BookSummaryResponse is a book in a listing.
type BookSummaryResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	AuthorID string `json:"author_id,omitempty"`
	Author   string `json:"author,omitempty"`
}

// BookResponse is a full book.
type BookResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AuthorID   string    `json:"author_id,omitempty"`
	Author     string    `json:"author,omitempty"`
	Summary    string    `json:"summary"`
	ISBN       string    `json:"isbn"`
	GenreIDs   []string  `json:"genre_ids"`
	Genres     []string  `json:"genres"`
	LanguageID string    `json:"language_id,omitempty"`
	Language   string    `json:"language,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookDetailResponse adds the book's copies.
type BookDetailResponse struct {
	BookResponse
	Instances []InstanceResponse `json:"instances"`
}

// InstanceResponse is a physical copy.
type InstanceResponse struct {
	ID          string `json:"id"`
	BookID      string `json:"book_id"`
	BookTitle   string `json:"book_title,omitempty"`
	Imprint     string `json:"imprint"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	DueBack     string `json:"due_back,omitempty"`
	BorrowerID  string `json:"borrower_id,omitempty"`
	IsOverdue   bool   `json:"is_overdue"`
}

// RenewRequest is the body of a renewal.
type RenewRequest struct {
	DueBack string `json:"due_back"`
}

// RenewalFormResponse is what a client needs to prompt for a renewal date.
type RenewalFormResponse struct {
	Instance     InstanceResponse `json:"instance"`
	ProposedDate string           `json:"proposed_date"`
	LatestDate   string           `json:"latest_date"`
	HelpText     string           `json:"help_text"`
}

// NamedResponse is a genre or language.
type NamedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventResponse is a persisted catalog event.
type EventResponse struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ToAuthorResponse converts a model.Author.
func ToAuthorResponse(a *model.Author) AuthorResponse {
	return AuthorResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		DisplayName: a.DisplayName(),
		DateOfBirth: model.FormatDate(a.DateOfBirth),
		DateOfDeath: model.FormatDate(a.DateOfDeath),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ToBookSummary converts a model.Book for listings.
func ToBookSummary(b *model.Book) BookSummaryResponse {
	out := BookSummaryResponse{ID: b.ID, Title: b.Title}
	if b.AuthorID != nil {
		out.AuthorID = *b.AuthorID
	}
	if b.Author != nil {
		out.Author = b.Author.DisplayName()
	}
	return out
}

// ToBookResponse converts a model.Book.
func ToBookResponse(b *model.Book) BookResponse {
	out := BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Summary:   b.Summary,
		ISBN:      b.ISBN,
		GenreIDs:  b.GenreIDs,
		Genres:    b.GenreNames(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if out.GenreIDs == nil {
		out.GenreIDs = []string{}
	}
	if b.AuthorID != nil {
		out.AuthorID = *b.AuthorID
	}
	if b.Author != nil {
		out.Author = b.Author.DisplayName()
	}
	if b.LanguageID != nil {
		out.LanguageID = *b.LanguageID
	}
	if b.Language != nil {
		out.Language = b.Language.Name
	}
	return out
}

// ToInstanceResponse converts a model.BookInstance. today decides is_overdue.
func ToInstanceResponse(bi *model.BookInstance, today time.Time) InstanceResponse {
	out := InstanceResponse{
		ID:          bi.ID,
		BookID:      bi.BookID,
		BookTitle:   bi.BookTitle,
		Imprint:     bi.Imprint,
		Status:      string(bi.Status),
		StatusLabel: bi.Status.Label(),
		DueBack:     model.FormatDate(bi.DueBack),
		IsOverdue:   bi.IsOverdue(today),
	}
	if bi.BorrowerID != nil {
		out.BorrowerID = *bi.BorrowerID
	}
	return out
}

// ToInstanceResponses converts a slice of copies.
func ToInstanceResponses(in []*model.BookInstance, today time.Time) []InstanceResponse {
	out := make([]InstanceResponse, 0, len(in))
	for _, bi := range in {
		out = append(out, ToInstanceResponse(bi, today))
	}
	return out
}

// ToEventResponse converts a model.CatalogEvent.
func ToEventResponse(e *model.CatalogEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		EventType:  string(e.EventType),
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
	}
}
