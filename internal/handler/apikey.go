package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

// KeyRepository stores API keys.
type KeyRepository interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// APIKeyHandler handles API key management endpoints. Only administrators
// reach it, so keys may be issued to and managed for any user.
type APIKeyHandler struct {
	logger *slog.Logger
	keys   KeyRepository
	env    string
}

// NewAPIKeyHandler creates a new APIKeyHandler. env selects the key
// environment marker (live or test).
func NewAPIKeyHandler(logger *slog.Logger, keys KeyRepository, env string) *APIKeyHandler {
	return &APIKeyHandler{logger: logger, keys: keys, env: env}
}

// CreateAPIKey handles POST /api/v1/api-keys.
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.APIKeyCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	for _, scope := range req.Scopes {
		if !slices.Contains(model.ValidScopes, scope) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error:  "Invalid scope: " + scope + ". Valid scopes: " + strings.Join(model.ValidScopes, ", "),
				Code:   dto.CodeValidationFailed,
				Fields: []dto.FieldError{{Field: "scopes", Rule: "oneof"}},
			})
			return
		}
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{model.ScopeRead}
	}

	userID := req.UserID
	if userID == "" {
		userID = auth.UserIDFromContext(ctx)
	}

	generated, err := auth.GenerateAPIKey(h.env)
	if err != nil {
		h.logger.Error("failed to generate API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to generate API key")
		return
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        userID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        req.Scopes,
		RateLimitTier: model.DefaultTierFor(req.Scopes),
		Name:          req.Name,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.keys.CreateAPIKey(ctx, key); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "User not found")
			return
		}
		h.logger.Error("failed to create API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to create API key")
		return
	}

	h.logger.Info("API key created",
		slog.String("key_id", key.ID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.String("user_id", key.UserID),
		slog.String("issued_by", auth.UserIDFromContext(ctx)),
	)

	writeJSON(w, http.StatusCreated, createResponse(key, generated.Plaintext))
}

// ListAPIKeys handles GET /api/v1/api-keys?user_id=. Without user_id the
// caller's own keys are listed.
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = auth.UserIDFromContext(ctx)
	}

	keys, err := h.keys.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list API keys", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to list API keys")
		return
	}

	out := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.ToResponse())
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": out})
}

// RevokeAPIKey handles DELETE /api/v1/api-keys/{key_id}.
func (h *APIKeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, ok := h.activeKey(w, r)
	if !ok {
		return
	}
	if key.ID == auth.KeyIDFromContext(ctx) {
		writeError(w, http.StatusConflict, dto.CodeConflict, "Cannot revoke the key used for this request")
		return
	}

	if err := h.keys.RevokeAPIKey(ctx, key.ID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			writeError(w, http.StatusNotFound, dto.CodeNotFound, "API key not found or already revoked")
			return
		}
		h.logger.Error("failed to revoke API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to revoke API key")
		return
	}

	h.logger.Info("API key revoked",
		slog.String("key_id", key.ID),
		slog.String("user_id", key.UserID),
		slog.String("revoked_by", auth.UserIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// RotateAPIKey handles POST /api/v1/api-keys/{key_id}/rotate. The new key
// keeps the old key's owner, scopes and tier.
func (h *APIKeyHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	oldKey, ok := h.activeKey(w, r)
	if !ok {
		return
	}

	generated, err := auth.GenerateAPIKey(h.env)
	if err != nil {
		h.logger.Error("failed to generate API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to generate API key")
		return
	}

	now := time.Now().UTC()
	newKey := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        oldKey.UserID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        oldKey.Scopes,
		RateLimitTier: oldKey.RateLimitTier,
		Name:          oldKey.Name,
		CreatedAt:     now,
	}

	// Create first so a failure never leaves the user without a key.
	if err := h.keys.CreateAPIKey(ctx, newKey); err != nil {
		h.logger.Error("failed to create rotated API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to rotate API key")
		return
	}
	if err := h.keys.RevokeAPIKey(ctx, oldKey.ID); err != nil {
		h.logger.Error("failed to revoke old API key during rotation", slog.String("error", err.Error()))
	}

	h.logger.Info("API key rotated",
		slog.String("old_key_id", oldKey.ID),
		slog.String("new_key_id", newKey.ID),
		slog.String("user_id", oldKey.UserID),
	)

	writeJSON(w, http.StatusCreated, model.APIKeyRotateResponse{
		OldKeyID:        oldKey.ID,
		OldKeyRevokedAt: now,
		NewKey:          createResponse(newKey, generated.Plaintext),
	})
}

// activeKey loads the unrevoked key named by the path. Unknown and revoked
// keys both answer 404.
func (h *APIKeyHandler) activeKey(w http.ResponseWriter, r *http.Request) (*model.APIKey, bool) {
	key, err := h.keys.GetAPIKeyByID(r.Context(), chi.URLParam(r, "key_id"))
	if err != nil {
		if !errors.Is(err, repository.ErrAPIKeyNotFound) {
			h.logger.Error("failed to load API key", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Failed to load API key")
			return nil, false
		}
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "API key not found or already revoked")
		return nil, false
	}
	if key.IsRevoked() {
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "API key not found or already revoked")
		return nil, false
	}
	return key, true
}

func createResponse(key *model.APIKey, plaintext string) model.APIKeyCreateResponse {
	return model.APIKeyCreateResponse{
		ID:            key.ID,
		Key:           plaintext,
		UserID:        key.UserID,
		Name:          key.Name,
		KeyPrefix:     key.KeyPrefix,
		Scopes:        key.Scopes,
		RateLimitTier: key.RateLimitTier,
		CreatedAt:     key.CreatedAt,
	}
}
