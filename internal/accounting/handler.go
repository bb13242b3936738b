// Package accounting mounts the ledger's HTTP surface.
package accounting

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/counterparty"
	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/periods"
	"github.com/kasirku/ledger/internal/accounting/reports"
)

// Handler groups the ledger sub-handlers under one route tree.
type Handler struct {
	Journals       *journals.Handler
	Counterparties *counterparty.Handler
	Reports        *reports.Handler
	Accounts       *accounts.Handler
	Periods        *periods.Handler
	// WriteLimit wraps every sub-route; typically app.WriteLimiter.
	WriteLimit func(http.Handler) http.Handler
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.WriteLimit != nil {
		r.Use(h.WriteLimit)
	}
	if h.Journals != nil {
		h.Journals.MountRoutes(r)
	}
	if h.Counterparties != nil {
		r.Route("/counterparties", h.Counterparties.MountRoutes)
	}
	if h.Reports != nil {
		r.Route("/reports", h.Reports.MountRoutes)
	}
	if h.Accounts != nil {
		r.Route("/accounts", h.Accounts.MountRoutes)
	}
	if h.Periods != nil {
		r.Route("/periods", h.Periods.MountRoutes)
	}
}
