package integration

import (
	"fmt"

	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/opname"
)

// varianceDirection maps a count outcome to the ledger's variance side.
// Counting more than the system holds is a gain.
func varianceDirection(d opname.Direction) (journals.VarianceDirection, error) {
	switch d {
	case opname.DirectionSurplus:
		return journals.VarianceGain, nil
	case opname.DirectionShortage:
		return journals.VarianceLoss, nil
	default:
		return "", shared.Invalid("direction", fmt.Sprintf("no ledger effect for %q", d))
	}
}
