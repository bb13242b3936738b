package mappings

import (
	"time"

	"github.com/kasirku/ledger/internal/accounting/accounts"
)

// Role names the part an account plays in a standard posting shape.
type Role string

const (
	RoleCash          Role = "cash"
	RoleReceivable    Role = "receivable"
	RolePayable       Role = "payable"
	RoleRevenue       Role = "revenue"
	RoleInventory     Role = "inventory"
	RoleExpense       Role = "expense"
	RoleStockVariance Role = "stock_variance"
)

// AccountMapping links a posting role to a ledger account code.
type AccountMapping struct {
	Role        Role
	AccountCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Defaults returns the role bindings for the default chart.
func Defaults() map[Role]string {
	return map[Role]string{
		RoleCash:          accounts.CodeCash,
		RoleReceivable:    accounts.CodeReceivable,
		RolePayable:       accounts.CodePayable,
		RoleRevenue:       accounts.CodeSalesRevenue,
		RoleInventory:     accounts.CodeInventory,
		RoleExpense:       accounts.CodeOperatingExp,
		RoleStockVariance: accounts.CodeStockVariance,
	}
}
