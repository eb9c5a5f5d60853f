// Package admin exposes the registry's JSON API for OSCA operators: the
// dashboard, citizen registration and review, duplicate scans and resolution,
// cash-gift applications, stakeholders, and the audit trail.
package admin

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"eca-system/internal/matching"
	errs "eca-system/pkg/errors"
)

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("admin: encode response: %v", err)
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps error kinds onto HTTP statuses. Unknown errors become a
// 500 with a generic body; the cause goes to the log, not the client.
func respondError(w http.ResponseWriter, err error) {
	var invalid *matching.InvalidArgumentError
	var malformed *matching.MalformedRecordError

	switch {
	case errs.Is(err, errs.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errs.Is(err, errs.ErrValidation), errors.As(err, &invalid):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &malformed):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errs.Is(err, errs.ErrBiz):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		log.Printf("admin: internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// pageParams reads page/limit query parameters with sane bounds.
func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	return limit, (page - 1) * limit
}
