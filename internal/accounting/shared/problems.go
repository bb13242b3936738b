package shared

import (
	"net/http"

	"github.com/kasirku/ledger/internal/platform/httpx"
)

var problemMappings = []httpx.Mapping{
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrTooFewLines, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrUnbalanced, Status: http.StatusUnprocessableEntity, Title: "Unbalanced Posting"},
	{Err: ErrNoOutstandingBalance, Status: http.StatusUnprocessableEntity, Title: "No Outstanding Balance"},
	{Err: ErrAmountExceedsBalance, Status: http.StatusUnprocessableEntity, Title: "Amount Exceeds Balance"},
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Err: ErrMappingNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Err: ErrDuplicateReference, Status: http.StatusConflict, Title: "Duplicate Reference"},
	{Err: ErrDuplicateCode, Status: http.StatusConflict, Title: "Duplicate"},
	{Err: ErrAlreadyReversed, Status: http.StatusConflict, Title: "Already Reversed"},
	{Err: ErrAccountReferenced, Status: http.StatusConflict, Title: "Account In Use"},
	{Err: ErrConcurrencyConflict, Status: http.StatusConflict, Title: "Concurrent Update"},
	{Err: ErrPeriodClosed, Status: http.StatusConflict, Title: "Period Closed"},
	{Err: ErrPersistence, Status: http.StatusServiceUnavailable, Title: "Store Unavailable"},
}

// RespondError writes err as problem JSON using the accounting error taxonomy.
func RespondError(w http.ResponseWriter, err error) {
	httpx.RespondErrorWith(w, err, problemMappings...)
}

// RespondErrorWith lets callers add mappings ahead of the accounting ones.
func RespondErrorWith(w http.ResponseWriter, err error, extra ...httpx.Mapping) {
	httpx.RespondErrorWith(w, err, append(extra, problemMappings...)...)
}
