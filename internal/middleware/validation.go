package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/locallibrary/catalog/internal/handler/dto"
)

// IDKind is the format of an entity identifier.
type IDKind int

const (
	// ULIDKind identifies authors, books, genres, languages and keys.
	ULIDKind IDKind = iota
	// UUIDKind identifies book instances.
	UUIDKind
)

// ValidID reports whether id is well formed for kind.
func ValidID(kind IDKind, id string) bool {
	switch kind {
	case ULIDKind:
		_, err := ulid.ParseStrict(id)
		return err == nil
	case UUIDKind:
		_, err := uuid.Parse(id)
		return err == nil && len(id) == 36
	}
	return false
}

// ValidatePathID answers 404 when the chi URL parameter param is not a
// well-formed ID of kind, so malformed IDs never reach the database.
func ValidatePathID(param string, kind IDKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ValidID(kind, chi.URLParam(r, param)) {
				writeError(w, http.StatusNotFound, dto.CodeNotFound, "resource not found")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
