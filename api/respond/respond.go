// Package respond holds the JSON answer and error mapping helpers shared by
// the HTTP handler packages.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/configstore"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Status writes the legacy {"status": n} acknowledgment body.
func Status(w http.ResponseWriter, status int) {
	JSON(w, status, map[string]int{"status": status})
}

// Error maps domain errors onto HTTP status codes and writes a JSON error
// body.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		vErr *autorun.ValidationError
		cErr *autorun.ConflictError
		iErr *autorun.ConfigInconsistencyError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &iErr):
		status = http.StatusBadRequest
	case errors.As(err, &cErr):
		status = http.StatusConflict
	case errors.Is(err, autorun.ErrNotFound), errors.Is(err, configstore.ErrNotFound):
		status = http.StatusNotFound
	}
	JSON(w, status, map[string]string{"detail": err.Error()})
}
