package opname

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/calendar"
	"github.com/kasirku/ledger/internal/platform/httpx"
)

var duplicateMapping = httpx.Mapping{Err: ErrDuplicateSubmission, Status: http.StatusConflict, Title: "Duplicate Submission"}

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/submissions", h.Submit)
	r.Get("/recap", h.Recap)
	r.Post("/items/{id}/adjust", h.Adjust)
}

type submitRequest struct {
	ItemID        string          `json:"item_id" validate:"required,max=64"`
	Actor         string          `json:"actor" validate:"required,max=80"`
	PhysicalCount decimal.Decimal `json:"physical_count"`
	Note          string          `json:"note" validate:"omitempty,max=255"`
}

type adjustRequest struct {
	Actor string `json:"actor" validate:"required,max=80"`
	From  string `json:"from" validate:"required,datetime=2006-01-02"`
	To    string `json:"to" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	sub, err := h.service.SubmitCount(r.Context(), SubmitInput{
		ItemID:        req.ItemID,
		Actor:         req.Actor,
		PhysicalCount: req.PhysicalCount,
		Note:          req.Note,
	})
	if err != nil {
		h.logger.Warn("submit stock count", slog.String("item_id", req.ItemID), slog.Any("error", err))
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"submission_id": sub.ID, "submission": sub})
}

func (h *Handler) Recap(w http.ResponseWriter, r *http.Request) {
	from, to, err := httpx.DateWindow(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if from == nil || to == nil {
		h.fail(w, shared.Invalid("from", "from and to required"))
		return
	}
	results, err := h.service.Recap(r.Context(), *from, *to)
	if err != nil {
		h.logger.Error("stock count recap", slog.Any("error", err))
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	var req adjustRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	from, _ := calendar.Parse(req.From)
	to, _ := calendar.Parse(req.To)
	result, posting, err := h.service.PostAdjustment(r.Context(), itemID, from, to.AddDate(0, 0, 1), req.Actor)
	if err != nil {
		h.logger.Warn("post stock adjustment", slog.String("item_id", itemID), slog.Any("error", err))
		h.fail(w, err)
		return
	}
	status := http.StatusCreated
	if posting == nil {
		status = http.StatusOK
	}
	httpx.JSON(w, status, map[string]any{"result": result, "posting": posting})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	shared.RespondErrorWith(w, err, duplicateMapping)
}
