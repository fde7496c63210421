package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/model"
)

func strPtr(s string) *string { return &s }

func TestAuthorService_CreateValidation(t *testing.T) {
	svc := NewAuthorService(newMemStore(), Effects{}, 2)

	tests := []struct {
		name  string
		in    AuthorInput
		field string
		rule  string
	}{
		{"missing first name", AuthorInput{LastName: "Herbert"}, "first_name", "required"},
		{"missing last name", AuthorInput{FirstName: "Frank"}, "last_name", "required"},
		{"bad birth date", AuthorInput{FirstName: "Frank", LastName: "Herbert", DateOfBirth: "1920-13-40"}, "date_of_birth", "datetime"},
		{"death before birth", AuthorInput{FirstName: "Frank", LastName: "Herbert", DateOfBirth: "1920-10-08", DateOfDeath: "1900-01-01"}, "date_of_death", "after_birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAuthor(context.Background(), tt.in, "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.rule, verr.Fields[0].Rule)
		})
	}
}

func TestAuthorService_CreateRecordsEvent(t *testing.T) {
	events := &fakeEvents{}
	rec := metrics.NewInMemory()
	svc := NewAuthorService(newMemStore(), Effects{Events: events, Metrics: rec}, 2)

	author, err := svc.CreateAuthor(context.Background(), AuthorInput{
		FirstName:   "Frank",
		LastName:    "Herbert",
		DateOfBirth: "1920-10-08",
		DateOfDeath: "1986-02-11",
	}, "user-1")
	require.NoError(t, err)

	assert.Len(t, author.ID, 26)
	assert.Equal(t, "1920-10-08", model.FormatDate(author.DateOfBirth))
	assert.Equal(t, "1986-02-11", model.FormatDate(author.DateOfDeath))
	require.Len(t, events.events, 1)
	assert.Equal(t, model.EventAuthorCreated, events.events[0].Type)
	assert.Equal(t, "user-1", events.events[0].ActorID)
	assert.Equal(t, uint64(1), rec.Snapshot().CatalogMutations["author:created"])
}

func TestAuthorService_ListPagination(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthorService(newMemStore(), Effects{}, 2)

	empty, err := svc.ListAuthors(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.NumPages())

	for _, last := range []string{"Christie", "Austen", "Borges"} {
		_, err := svc.CreateAuthor(ctx, AuthorInput{FirstName: "A", LastName: last}, "")
		require.NoError(t, err)
	}

	page1, err := svc.ListAuthors(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	assert.Equal(t, "Austen", page1.Items[0].LastName)
	assert.Equal(t, 2, page1.NumPages())
	assert.True(t, page1.HasNext())
	assert.False(t, page1.HasPrevious())

	page2, err := svc.ListAuthors(ctx, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.Equal(t, "Christie", page2.Items[0].LastName)
	assert.False(t, page2.HasNext())

	_, err = svc.ListAuthors(ctx, 3)
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = svc.ListAuthors(ctx, 0)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestAuthorService_UpdatePatch(t *testing.T) {
	ctx := context.Background()
	events := &fakeEvents{}
	svc := NewAuthorService(newMemStore(), Effects{Events: events}, 2)

	author, err := svc.CreateAuthor(ctx, AuthorInput{FirstName: "Frank", LastName: "Herbert", DateOfDeath: "1986-02-11"}, "")
	require.NoError(t, err)

	updated, err := svc.UpdateAuthor(ctx, author.ID, AuthorPatch{
		FirstName:   strPtr("Franklin"),
		DateOfDeath: strPtr(""),
	}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "Franklin", updated.FirstName)
	assert.Equal(t, "Herbert", updated.LastName)
	assert.Nil(t, updated.DateOfDeath)

	_, err = svc.UpdateAuthor(ctx, author.ID, AuthorPatch{LastName: strPtr("")}, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UpdateAuthor(ctx, "missing", AuthorPatch{}, "")
	assert.ErrorIs(t, err, ErrAuthorNotFound)

	assert.Equal(t, []model.EventType{model.EventAuthorCreated, model.EventAuthorUpdated}, events.types())
}

func TestAuthorService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	authors := NewAuthorService(store, Effects{}, 2)
	books := NewBookService(store, Effects{}, 10)

	author, err := authors.CreateAuthor(ctx, AuthorInput{FirstName: "Frank", LastName: "Herbert"}, "")
	require.NoError(t, err)
	book, err := books.CreateBook(ctx, BookInput{
		Title:    "Dune",
		AuthorID: author.ID,
		Summary:  "Desert planet.",
		ISBN:     "9780441172719",
	}, "")
	require.NoError(t, err)

	detail, err := authors.GetAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, detail.Books, 1)
	assert.Equal(t, book.ID, detail.Books[0].ID)

	assert.ErrorIs(t, authors.DeleteAuthor(ctx, author.ID, ""), ErrAuthorHasBooks)

	require.NoError(t, books.DeleteBook(ctx, book.ID, ""))
	require.NoError(t, authors.DeleteAuthor(ctx, author.ID, ""))

	_, err = authors.GetAuthor(ctx, author.ID)
	assert.ErrorIs(t, err, ErrAuthorNotFound)
	assert.ErrorIs(t, authors.DeleteAuthor(ctx, author.ID, ""), ErrAuthorNotFound)
}
