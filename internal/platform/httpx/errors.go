// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// Mapping binds a sentinel error to a problem status and title.
type Mapping struct {
	Err    error
	Status int
	Title  string
}

var defaultMappings = []Mapping{
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Err: ErrDuplicate, Status: http.StatusConflict, Title: "Duplicate"},
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	RespondErrorWith(w, err)
}

// RespondErrorWith checks the supplied mappings first, then the defaults.
// Server-side failures never leak their detail.
func RespondErrorWith(w http.ResponseWriter, err error, mappings ...Mapping) {
	for _, set := range [][]Mapping{mappings, defaultMappings} {
		for _, m := range set {
			if errors.Is(err, m.Err) {
				detail := err.Error()
				if m.Status >= http.StatusInternalServerError {
					detail = ""
				}
				Problem(w, m.Status, m.Title, detail)
				return
			}
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
