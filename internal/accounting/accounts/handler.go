package accounts

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
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{code}", h.Get)
	r.Patch("/{code}", h.Update)
}

type createRequest struct {
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required,max=120"`
	Class      string `json:"class" validate:"required"`
	NormalSide string `json:"normal_side" validate:"omitempty,oneof=DEBIT CREDIT"`
}

type updateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	IsActive   *bool   `json:"is_active"`
	Class      *string `json:"class"`
	NormalSide *string `json:"normal_side" validate:"omitempty,oneof=DEBIT CREDIT"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	class, err := ParseClass(req.Class)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	acc, err := h.service.Create(r.Context(), CreateInput{
		Code:       req.Code,
		Name:       req.Name,
		Class:      class,
		NormalSide: NormalSide(req.NormalSide),
	})
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	h.logger.Info("account created", slog.String("code", acc.Code), slog.String("class", string(acc.Class)))
	httpx.JSON(w, http.StatusCreated, acc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	in := UpdateInput{Name: req.Name, IsActive: req.IsActive}
	if req.Class != nil {
		class, err := ParseClass(*req.Class)
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		in.Class = &class
	}
	if req.NormalSide != nil {
		side := NormalSide(*req.NormalSide)
		in.NormalSide = &side
	}
	acc, err := h.service.Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter *AccountClass
	if raw := r.URL.Query().Get("class"); raw != "" {
		class, err := ParseClass(raw)
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		filter = &class
	}
	accounts, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
}
