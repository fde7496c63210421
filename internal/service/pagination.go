package service

import "github.com/locallibrary/catalog/internal/repository"

// Page is one page of a numbered listing.
type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int64
}

// NumPages returns the page count. An empty listing still has one page.
func (p *Page[T]) NumPages() int {
	if p.Total == 0 || p.Size <= 0 {
		return 1
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages()
}

// HasPrevious reports whether an earlier page exists.
func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

// pageRequest normalises a requested page number. Numbers below one are
// rejected the same way as numbers past the end.
func pageRequest(number, size int) (repository.Page, error) {
	if number < 1 {
		return repository.Page{}, ErrPageNotFound
	}
	return repository.Page{Number: number, Size: size}, nil
}

// newPage builds the page, rejecting numbers beyond the last page.
func newPage[T any](req repository.Page, items []T, total int64) (*Page[T], error) {
	p := &Page[T]{Items: items, Number: req.Number, Size: req.Size, Total: total}
	if p.Number > p.NumPages() {
		return nil, ErrPageNotFound
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p, nil
}
