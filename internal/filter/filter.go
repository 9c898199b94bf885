// Package filter narrows a record set by a FilterSelection and lists the
// values each filter dimension can take.
package filter

import (
	"slices"

	"spendboard/internal/core"
)

// Apply returns the records that satisfy every restricted dimension of sel.
// With nothing restricted the input slice itself is returned.
//
// A year restriction needs a parseable date: records without one are dropped
// while the restriction is active.
func Apply(records []core.SpendRecord, sel core.FilterSelection) []core.SpendRecord {
	if sel.IsEmpty() {
		return records
	}

	companies := toSet(sel.Companies)
	suppliers := toSet(sel.Suppliers)
	countries := toSet(sel.Countries)
	categories := toSet(sel.Categories)
	years := toSet(sel.Years)

	out := make([]core.SpendRecord, 0, len(records))
	for _, r := range records {
		if !admits(companies, r.Company) ||
			!admits(suppliers, r.Supplier) ||
			!admits(countries, r.Country) ||
			!admits(categories, r.Level1) {
			continue
		}
		if years != nil {
			y, ok := r.Year()
			if !ok || !admits(years, y) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Facets collects the distinct values of every dimension over records, which
// should be the unfiltered set. Companies keep the empty value; suppliers,
// countries and categories drop it. Years come from parseable dates only.
func Facets(records []core.SpendRecord) core.FacetOptions {
	companies := make(map[string]struct{})
	suppliers := make(map[string]struct{})
	countries := make(map[string]struct{})
	categories := make(map[string]struct{})
	years := make(map[int]struct{})

	addNonEmpty := func(set map[string]struct{}, v string) {
		if v != "" {
			set[v] = struct{}{}
		}
	}

	for _, r := range records {
		companies[r.Company] = struct{}{}
		addNonEmpty(suppliers, r.Supplier)
		addNonEmpty(countries, r.Country)
		addNonEmpty(categories, r.Level1)
		if y, ok := r.Year(); ok {
			years[y] = struct{}{}
		}
	}

	return core.FacetOptions{
		Companies:  sortedKeys(companies),
		Suppliers:  sortedKeys(suppliers),
		Countries:  sortedKeys(countries),
		Categories: sortedKeys(categories),
		Years:      sortedKeys(years),
	}
}

// toSet returns nil for an empty selection so callers can treat the
// dimension as unrestricted.
func toSet[T comparable](vals []T) map[T]struct{} {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}

func admits[T comparable](set map[T]struct{}, v T) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

func sortedKeys[T interface{ ~string | ~int }](set map[T]struct{}) []T {
	out := make([]T, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
