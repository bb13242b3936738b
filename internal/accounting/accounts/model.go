package accounts

import (
	"regexp"
	"strings"
	"time"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// AccountClass enumerates CoA categories.
type AccountClass string

const (
	ClassAsset     AccountClass = "ASSET"
	ClassLiability AccountClass = "LIABILITY"
	ClassEquity    AccountClass = "EQUITY"
	ClassRevenue   AccountClass = "REVENUE"
	ClassExpense   AccountClass = "EXPENSE"
)

// Valid reports whether c is one of the five classes.
func (c AccountClass) Valid() bool {
	switch c {
	case ClassAsset, ClassLiability, ClassEquity, ClassRevenue, ClassExpense:
		return true
	}
	return false
}

// ParseClass normalises user input such as "asset".
func ParseClass(raw string) (AccountClass, error) {
	c := AccountClass(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", shared.Invalid("class", "unknown account class "+raw)
	}
	return c, nil
}

// NormalSide is the side on which an account's balance increases.
type NormalSide string

const (
	SideDebit  NormalSide = "DEBIT"
	SideCredit NormalSide = "CREDIT"
)

// NaturalSide returns the conventional normal side for a class.
func NaturalSide(c AccountClass) NormalSide {
	switch c {
	case ClassAsset, ClassExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account models a chart of accounts node.
type Account struct {
	ID         int64        `json:"id"`
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Class      AccountClass `json:"class"`
	NormalSide NormalSide   `json:"normal_side"`
	IsActive   bool         `json:"is_active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// CreateInput registers a new account.
type CreateInput struct {
	Code       string
	Name       string
	Class      AccountClass
	NormalSide NormalSide
}

// UpdateInput changes an existing account. Nil fields are left untouched.
type UpdateInput struct {
	Name       *string
	IsActive   *bool
	Class      *AccountClass
	NormalSide *NormalSide
}

var codePattern = regexp.MustCompile(`^[1-9]-\d{4}$`)

// Validate checks code format and class.
func (in *CreateInput) Validate() error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if !codePattern.MatchString(in.Code) {
		return shared.Invalid("code", "must look like 1-1000")
	}
	if in.Name == "" {
		return shared.Invalid("name", "required")
	}
	if !in.Class.Valid() {
		return shared.Invalid("class", "unknown account class")
	}
	if in.NormalSide == "" {
		in.NormalSide = NaturalSide(in.Class)
	}
	if in.NormalSide != SideDebit && in.NormalSide != SideCredit {
		return shared.Invalid("normal_side", "must be DEBIT or CREDIT")
	}
	return nil
}

// Well-known codes of the default chart.
const (
	CodeCash          = "1-1000"
	CodeReceivable    = "1-1200"
	CodeInventory     = "1-1300"
	CodePayable       = "2-1000"
	CodeOwnerEquity   = "3-1000"
	CodeSalesRevenue  = "4-1000"
	CodeCOGS          = "5-1000"
	CodeOperatingExp  = "5-2000"
	CodeStockVariance = "5-9000"
)

// DefaultChart returns the chart seeded for a new store.
func DefaultChart() []Account {
	return []Account{
		{Code: CodeCash, Name: "Kas Umum", Class: ClassAsset, NormalSide: SideDebit, IsActive: true},
		{Code: CodeReceivable, Name: "Piutang Usaha", Class: ClassAsset, NormalSide: SideDebit, IsActive: true},
		{Code: CodeInventory, Name: "Persediaan Barang Dagang", Class: ClassAsset, NormalSide: SideDebit, IsActive: true},
		{Code: CodePayable, Name: "Hutang Usaha", Class: ClassLiability, NormalSide: SideCredit, IsActive: true},
		{Code: CodeOwnerEquity, Name: "Modal Pemilik", Class: ClassEquity, NormalSide: SideCredit, IsActive: true},
		{Code: CodeSalesRevenue, Name: "Penjualan", Class: ClassRevenue, NormalSide: SideCredit, IsActive: true},
		{Code: CodeCOGS, Name: "Harga Pokok Penjualan (HPP)", Class: ClassExpense, NormalSide: SideDebit, IsActive: true},
		{Code: CodeOperatingExp, Name: "Beban Operasional", Class: ClassExpense, NormalSide: SideDebit, IsActive: true},
		{Code: CodeStockVariance, Name: "Selisih Stok Opname", Class: ClassExpense, NormalSide: SideDebit, IsActive: true},
	}
}
