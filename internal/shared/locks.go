package shared

import (
	"fmt"
	"strings"
)

// CounterpartyLockKey names the advisory lock serializing balance-bounded
// postings for one customer or supplier.
func CounterpartyLockKey(kind, name string) string {
	return fmt.Sprintf("ledger:counterparty:%s:%s", strings.ToUpper(kind), strings.TrimSpace(name))
}

// OpnameLockKey names the lock guarding submissions for one item on one day.
func OpnameLockKey(itemID, day string) string {
	return fmt.Sprintf("opname:%s:%s", itemID, day)
}
