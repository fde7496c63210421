package model

// CatalogSummary is the home page snapshot of the collection.
type CatalogSummary struct {
	NumBooks              int64  `json:"num_books"`
	NumInstances          int64  `json:"num_instances"`
	NumInstancesAvailable int64  `json:"num_instances_available"`
	NumAuthors            int64  `json:"num_authors"`
	NumGenresMatching     int64  `json:"num_genres_matching"`
	NumBooksMatching      int64  `json:"num_books_matching"`
	GenreKeyword          string `json:"genre_keyword"`
	TitleKeyword          string `json:"title_keyword"`
}
