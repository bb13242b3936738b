package opname

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// Reconcile pools submissions per item and compares the total against the
// catalog. Every submission counts, including repeats by the same actor.
// Results are ordered by item id.
func Reconcile(items map[string]Item, submissions []Submission) []Result {
	type pool struct {
		total  decimal.Decimal
		actors map[string]struct{}
		count  int
	}
	pools := map[string]*pool{}
	for _, s := range submissions {
		p, ok := pools[s.ItemID]
		if !ok {
			p = &pool{total: decimal.Zero, actors: map[string]struct{}{}}
			pools[s.ItemID] = p
		}
		p.total = p.total.Add(s.PhysicalCount)
		p.actors[s.Actor] = struct{}{}
		p.count++
	}

	out := make([]Result, 0, len(pools))
	for id, p := range pools {
		item, ok := items[id]
		if !ok {
			item = Item{ID: id, Name: id, SystemQuantity: decimal.Zero, ReferencePrice: decimal.Zero}
		}
		variance := p.total.Sub(item.SystemQuantity)
		out = append(out, Result{
			ItemID:           id,
			ItemName:         item.Name,
			SystemQuantity:   item.SystemQuantity,
			TotalSubmitted:   p.total,
			Variance:         variance,
			ReferencePrice:   item.ReferencePrice,
			MonetaryValue:    shared.Round2(variance.Abs().Mul(item.ReferencePrice)),
			Direction:        direction(variance),
			ContributorCount: len(p.actors),
			SubmissionCount:  p.count,
			CatalogMissing:   !ok,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func direction(variance decimal.Decimal) Direction {
	switch variance.Sign() {
	case 1:
		return DirectionSurplus
	case -1:
		return DirectionShortage
	}
	return DirectionMatch
}
