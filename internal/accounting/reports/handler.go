package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/httpx"
)

type Handler struct {
	generator *Generator
	logger    *slog.Logger
}

func NewHandler(logger *slog.Logger, generator *Generator) *Handler {
	return &Handler{logger: logger, generator: generator}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/income-statement", h.IncomeStatement)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Get("/", h.All)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	tb, err := h.generator.TrialBalance(r.Context(), scope)
	h.respond(w, "trial balance", tb, err)
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	is, err := h.generator.IncomeStatement(r.Context(), scope)
	h.respond(w, "income statement", is, err)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	bs, err := h.generator.BalanceSheet(r.Context(), scope)
	h.respond(w, "balance sheet", bs, err)
}

func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	st, err := h.generator.Generate(r.Context(), scope)
	h.respond(w, "statements", st, err)
}

func (h *Handler) respond(w http.ResponseWriter, report string, body any, err error) {
	if err != nil {
		h.logger.Error("generate report", slog.String("report", report), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, body)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (Scope, bool) {
	var scope Scope
	if raw := r.URL.Query().Get("period_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			shared.RespondError(w, shared.Invalid("period_id", "must be a positive integer"))
			return Scope{}, false
		}
		scope.PeriodID = id
	}
	from, err := httpx.DateQuery(r, "from")
	if err != nil {
		shared.RespondError(w, err)
		return Scope{}, false
	}
	to, err := httpx.DateQuery(r, "to")
	if err != nil {
		shared.RespondError(w, err)
		return Scope{}, false
	}
	if from != nil || to != nil {
		rng := DateRange{}
		if from != nil {
			rng.From = *from
		}
		if to != nil {
			rng.To = *to
		}
		scope.Range = &rng
	}
	return scope, true
}
