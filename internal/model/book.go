package model

import "time"

// ISBNLength is the number of characters in an ISBN-13.
const ISBNLength = 13

// Genre is a book category such as "Science Fiction".
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Language is the natural language a book is written in.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Book is a title in the catalog, independent of any physical copy.
type Book struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AuthorID   *string   `json:"author_id,omitempty"`
	Summary    string    `json:"summary"`
	ISBN       string    `json:"isbn"`
	LanguageID *string   `json:"language_id,omitempty"`
	GenreIDs   []string  `json:"genre_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Populated on detail reads only.
	Author   *Author   `json:"-"`
	Genres   []Genre   `json:"-"`
	Language *Language `json:"-"`
}

// GenreNames returns the names of the book's genres in stored order.
func (b *Book) GenreNames() []string {
	names := make([]string, 0, len(b.Genres))
	for _, g := range b.Genres {
		names = append(names, g.Name)
	}
	return names
}
