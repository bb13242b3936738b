package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

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

type saleRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Customer  string          `json:"customer" validate:"omitempty,max=120"`
	Timestamp *time.Time      `json:"timestamp"`
	Actor     string          `json:"actor" validate:"required,max=80"`
	SaleID    string          `json:"sale_id" validate:"omitempty,max=64"`
	Note      string          `json:"note" validate:"omitempty,max=255"`
}

type purchaseRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Supplier   string          `json:"supplier" validate:"omitempty,max=120"`
	Timestamp  *time.Time      `json:"timestamp"`
	Actor      string          `json:"actor" validate:"required,max=80"`
	Paid       bool            `json:"paid"`
	Expense    bool            `json:"expense"`
	PurchaseID string          `json:"purchase_id" validate:"omitempty,max=64"`
	Note       string          `json:"note" validate:"omitempty,max=255"`
}

type paymentRequest struct {
	Counterparty    string          `json:"counterparty" validate:"required,max=120"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number" validate:"required,max=64"`
	Timestamp       *time.Time      `json:"timestamp"`
	Actor           string          `json:"actor" validate:"required,max=80"`
	Note            string          `json:"note" validate:"omitempty,max=255"`
}

type journalLineRequest struct {
	Account      string          `json:"account" validate:"required"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Description  string          `json:"description" validate:"omitempty,max=255"`
	Counterparty string          `json:"counterparty" validate:"omitempty,max=120"`
}

type journalRequest struct {
	Lines       []journalLineRequest `json:"lines" validate:"required,min=2,dive"`
	Timestamp   *time.Time           `json:"timestamp"`
	Actor       string               `json:"actor" validate:"required,max=80"`
	Memo        string               `json:"memo" validate:"omitempty,max=255"`
	ReferenceID string               `json:"reference_id" validate:"omitempty,max=64"`
}

type reverseRequest struct {
	Actor     string     `json:"actor" validate:"required,max=80"`
	Memo      string     `json:"memo" validate:"omitempty,max=255"`
	Timestamp *time.Time `json:"timestamp"`
}

func (h *Handler) CashSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	h.record(w, r, CashSale{Amount: req.Amount, Timestamp: deref(req.Timestamp), Actor: req.Actor, SaleID: req.SaleID, Note: req.Note})
}

func (h *Handler) CreditSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	h.record(w, r, CreditSale{Amount: req.Amount, Customer: req.Customer, Timestamp: deref(req.Timestamp), Actor: req.Actor, SaleID: req.SaleID, Note: req.Note})
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	h.record(w, r, Purchase{
		Amount:     req.Amount,
		Supplier:   req.Supplier,
		Timestamp:  deref(req.Timestamp),
		Actor:      req.Actor,
		Paid:       req.Paid,
		Expense:    req.Expense,
		PurchaseID: req.PurchaseID,
		Note:       req.Note,
	})
}

func (h *Handler) CustomerPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	h.record(w, r, CustomerPayment{
		Customer:        req.Counterparty,
		Amount:          req.Amount,
		ReferenceNumber: req.ReferenceNumber,
		Timestamp:       deref(req.Timestamp),
		Actor:           req.Actor,
		Note:            req.Note,
	})
}

func (h *Handler) SupplierPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	h.record(w, r, SupplierPayment{
		Supplier:        req.Counterparty,
		Amount:          req.Amount,
		ReferenceNumber: req.ReferenceNumber,
		Timestamp:       deref(req.Timestamp),
		Actor:           req.Actor,
		Note:            req.Note,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	lines := make([]PostingLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, PostingLineInput{
			AccountCode:  l.Account,
			Debit:        l.Debit,
			Credit:       l.Credit,
			Description:  l.Description,
			Counterparty: l.Counterparty,
		})
	}
	h.record(w, r, ManualJournal{Lines: lines, Timestamp: deref(req.Timestamp), Actor: req.Actor, Memo: req.Memo, ReferenceID: req.ReferenceID})
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondError(w, shared.Invalid("id", "must be a uuid"))
		return
	}
	var req reverseRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	posting, err := h.service.ReverseJournal(r.Context(), ReverseInput{PostingID: id, Actor: req.Actor, Memo: req.Memo, Timestamp: deref(req.Timestamp)})
	if err != nil {
		h.logger.Warn("reverse posting", slog.String("posting_id", id.String()), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, posting)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondError(w, shared.Invalid("id", "must be a uuid"))
		return
	}
	posting, err := h.service.GetPosting(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posting)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := PostingFilter{ReferenceType: ReferenceType(r.URL.Query().Get("type")), Limit: 100}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			shared.RespondError(w, shared.Invalid("limit", "must be between 1 and 1000"))
			return
		}
		filter.Limit = n
	}
	postings, err := h.service.ListPostings(r.Context(), filter)
	if err != nil {
		h.logger.Error("list postings", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"postings": postings})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request, txn Transaction) {
	posting, err := h.service.Record(r.Context(), txn)
	if err != nil {
		h.logger.Warn("record transaction", slog.String("type", string(txn.referenceType())), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"posting_id": posting.ID,
		"number":     posting.Number,
		"posting":    posting,
	})
}

func deref(ts *time.Time) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return *ts
}
