package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/service"
)

// LoanHandler lists loans and renews them.
type LoanHandler struct {
	svc    *service.LoanService
	logger *slog.Logger
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(svc *service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{svc: svc, logger: logger}
}

// Mine handles GET /api/v1/loans/mine.
func (h *LoanHandler) Mine(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListMyLoans(r.Context(), auth.UserIDFromContext(r.Context()), pageParam(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.loanPage(page))
}

// All handles GET /api/v1/loans.
func (h *LoanHandler) All(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListAllLoans(r.Context(), pageParam(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.loanPage(page))
}

func (h *LoanHandler) loanPage(page *service.Page[*model.BookInstance]) dto.PageResponse[dto.InstanceResponse] {
	today := h.svc.Today()
	return toPageResponse(page, func(bi *model.BookInstance) dto.InstanceResponse {
		return dto.ToInstanceResponse(bi, today)
	})
}

// RenewalForm handles GET /api/v1/book-instances/{id}/renew.
func (h *LoanHandler) RenewalForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.RenewalForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RenewalFormResponse{
		Instance:     dto.ToInstanceResponse(form.Instance, h.svc.Today()),
		ProposedDate: form.ProposedDate.Format(model.DateLayout),
		LatestDate:   form.LatestDate.Format(model.DateLayout),
		HelpText:     form.HelpText,
	})
}

// Renew handles POST /api/v1/book-instances/{id}/renew.
func (h *LoanHandler) Renew(w http.ResponseWriter, r *http.Request) {
	var req dto.RenewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	proposed, err := model.ParseDate(req.DueBack)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "due_back must be a date in YYYY-MM-DD format",
			Code:   dto.CodeValidationFailed,
			Fields: []dto.FieldError{{Field: "due_back", Rule: "datetime"}},
		})
		return
	}

	id := chi.URLParam(r, "id")
	inst, err := h.svc.Renew(r.Context(), id, proposed, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("book_instance_renewed",
		"instance_id", inst.ID,
		"due_back", model.FormatDate(inst.DueBack),
		"key_id", auth.KeyIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, dto.ToInstanceResponse(inst, h.svc.Today()))
}
