package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		name string
		kind IDKind
		id   string
		want bool
	}{
		{"ulid", ULIDKind, "01HZX3K7M2J8Q4R6T9V0W1Y2Z3", true},
		{"ulid lowercase", ULIDKind, "01hzx3k7m2j8q4r6t9v0w1y2z3", true},
		{"ulid too short", ULIDKind, "01HZX3K7M2", false},
		{"ulid bad alphabet", ULIDKind, "01HZX3K7M2J8Q4R6T9V0W1Y2ZU", false},
		{"ulid empty", ULIDKind, "", false},
		{"uuid", UUIDKind, "5f0c2a8e-3d41-4f6b-9c2e-7a1b8d9e0f12", true},
		{"uuid without hyphens", UUIDKind, "5f0c2a8e3d414f6b9c2e7a1b8d9e0f12", false},
		{"uuid with braces", UUIDKind, "{5f0c2a8e-3d41-4f6b-9c2e-7a1b8d9e0f12}", false},
		{"uuid is not a ulid", ULIDKind, "5f0c2a8e-3d41-4f6b-9c2e-7a1b8d9e0f12", false},
		{"unknown kind", IDKind(42), "01HZX3K7M2J8Q4R6T9V0W1Y2Z3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidID(tt.kind, tt.id); got != tt.want {
				t.Errorf("ValidID(%v, %q) = %v, want %v", tt.kind, tt.id, got, tt.want)
			}
		})
	}
}

func TestValidatePathID(t *testing.T) {
	r := chi.NewRouter()
	r.With(ValidatePathID("id", ULIDKind)).Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(ValidatePathID("id", UUIDKind)).Get("/book-instances/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		path string
		want int
	}{
		{"/books/01HZX3K7M2J8Q4R6T9V0W1Y2Z3", http.StatusOK},
		{"/books/not-a-book", http.StatusNotFound},
		{"/book-instances/5f0c2a8e-3d41-4f6b-9c2e-7a1b8d9e0f12", http.StatusOK},
		{"/book-instances/01HZX3K7M2J8Q4R6T9V0W1Y2Z3", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}
