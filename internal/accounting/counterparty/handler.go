package counterparty

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Summary)
	r.Get("/{kind}/{name}", h.Ledger)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var filter *Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, ok := ParseKind(raw)
		if !ok {
			shared.RespondError(w, shared.Invalid("kind", "must be customer or supplier"))
			return
		}
		filter = &kind
	}
	rows, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.logger.Error("counterparty summary", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"counterparties": rows})
}

func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	kind, ok := ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		shared.RespondError(w, shared.Invalid("kind", "must be customer or supplier"))
		return
	}
	name := chi.URLParam(r, "name")
	from, to, err := httpx.DateWindow(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	rows, err := h.service.LedgerFor(r.Context(), kind, name, from, to)
	if err != nil {
		h.logger.Error("counterparty ledger", slog.String("name", name), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	resp := map[string]any{"kind": kind, "name": name, "rows": rows, "carried_forward": false}
	if n := len(rows); n > 0 {
		resp["balance"] = rows[n-1].Balance
	}
	httpx.JSON(w, http.StatusOK, resp)
}
