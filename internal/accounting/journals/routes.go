package journals

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sales/cash", h.CashSale)
	r.Post("/sales/credit", h.CreditSale)
	r.Post("/purchases", h.Purchase)
	r.Post("/payments/customer", h.CustomerPayment)
	r.Post("/payments/supplier", h.SupplierPayment)
	r.Get("/journals", h.List)
	r.Post("/journals", h.Create)
	r.Get("/journals/{id}", h.Get)
	r.Post("/journals/{id}/reverse", h.Reverse)
}
