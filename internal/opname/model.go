// Package opname pools physical stock counts (stok opname) and reconciles
// them against the system quantity.
package opname

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// ErrDuplicateSubmission rejects a second count by the same actor for the
// same item and day when one-per-actor-per-day is enabled.
var ErrDuplicateSubmission = errors.New("opname: actor already submitted a count for this item today")

// Direction classifies a variance.
type Direction string

const (
	DirectionSurplus  Direction = "SURPLUS"
	DirectionShortage Direction = "SHORTAGE"
	DirectionMatch    Direction = "MATCH"
)

// Submission is one physical count of one item by one actor.
type Submission struct {
	ID            uuid.UUID       `json:"id"`
	ItemID        string          `json:"item_id"`
	Actor         string          `json:"actor"`
	PhysicalCount decimal.Decimal `json:"physical_count"`
	Note          string          `json:"note,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// SubmitInput carries a new count.
type SubmitInput struct {
	ItemID        string
	Actor         string
	PhysicalCount decimal.Decimal
	Note          string
}

func (in *SubmitInput) Validate() error {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.Actor = strings.TrimSpace(in.Actor)
	if in.ItemID == "" {
		return shared.Invalid("item_id", "required")
	}
	if in.Actor == "" {
		return shared.Invalid("actor", "required")
	}
	if in.PhysicalCount.IsNegative() {
		return shared.Invalid("physical_count", "must not be negative")
	}
	return nil
}

// Item is the catalog view the reconciliation needs.
type Item struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	SystemQuantity decimal.Decimal `json:"system_quantity"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
}

// Result is the reconciliation of one item over a window.
type Result struct {
	ItemID           string          `json:"item_id"`
	ItemName         string          `json:"item_name"`
	SystemQuantity   decimal.Decimal `json:"system_quantity"`
	TotalSubmitted   decimal.Decimal `json:"total_submitted"`
	Variance         decimal.Decimal `json:"variance"`
	ReferencePrice   decimal.Decimal `json:"reference_price"`
	MonetaryValue    decimal.Decimal `json:"monetary_value"`
	Direction        Direction       `json:"direction"`
	ContributorCount int             `json:"contributor_count"`
	SubmissionCount  int             `json:"submission_count"`
	CatalogMissing   bool            `json:"catalog_missing,omitempty"`
}
