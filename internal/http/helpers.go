package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendboard/internal/core"
	"spendboard/internal/dashboard"
)

// Query parameters accepted by the view endpoints. Selection parameters may
// repeat: ?companies=Acme&companies=Beta.
const (
	paramCompanies  = "companies"
	paramSuppliers  = "suppliers"
	paramCountries  = "countries"
	paramCategories = "categories"
	paramYears      = "years"
	paramLevel      = "level"
	paramCategory   = "category"
	paramPlaceable  = "placeable"
	paramLimit      = "limit"
)

// maxImportsLimit caps GET /api/imports?limit=.
const maxImportsLimit = 100

// errLoadFailed is the body sent when the record set cannot be loaded.
const errLoadFailed = "failed to load data"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// parseQuery reads the selection and view options from the URL.
func parseQuery(values url.Values) (dashboard.Query, error) {
	var q dashboard.Query

	var years []int
	for _, raw := range params(values, paramYears) {
		if raw == "" {
			continue
		}
		y, err := strconv.Atoi(raw)
		if err != nil {
			return dashboard.Query{}, fmt.Errorf("invalid year %q", raw)
		}
		years = append(years, y)
	}

	q.Selection = q.Selection.
		WithCompanies(params(values, paramCompanies)...).
		WithSuppliers(params(values, paramSuppliers)...).
		WithCountries(params(values, paramCountries)...).
		WithCategories(params(values, paramCategories)...).
		WithYears(years...)

	if raw := strings.TrimSpace(values.Get(paramLevel)); raw != "" {
		level, err := core.ParseLevel(raw)
		if err != nil {
			return dashboard.Query{}, fmt.Errorf("invalid level %q", raw)
		}
		q.GeoLevel = level
	}
	q.HeatmapCategory = strings.TrimSpace(values.Get(paramCategory))
	return q, nil
}

// params returns the values of key, trimmed. An empty value is kept: it
// selects records where the field is missing.
func params(values url.Values, key string) []string {
	raw := values[key]
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// boolParam reads an optional boolean flag; absent or blank is false.
func boolParam(values url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

// limitParam reads ?limit=, defaulting to def and capped at max.
func limitParam(values url.Values, def, ceiling int) (int, error) {
	raw := strings.TrimSpace(values.Get(paramLimit))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(n, ceiling), nil
}
