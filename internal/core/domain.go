package core

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const (
	Level1 Level = "level1"
	Level2 Level = "level2"
	Level3 Level = "level3"
)

type (
	// Level selects one tier of the category hierarchy, broadest first.
	Level string

	// SpendRecord is one canonical spend row. Fields the source did not carry
	// are left at their zero value; a record is never rejected.
	SpendRecord struct {
		Company  string  `json:"company"`
		Invoice  string  `json:"invoice"`
		PONumber string  `json:"poNumber"`
		Date     string  `json:"date"`
		Supplier string  `json:"supplier"`
		Country  string  `json:"country"`
		Level1   string  `json:"level1"`
		Level2   string  `json:"level2"`
		Level3   string  `json:"level3"`
		Amount   float64 `json:"amount"`
	}

	// FilterSelection holds the accepted values per filter dimension.
	// An empty slice means the dimension is unrestricted.
	FilterSelection struct {
		Companies  []string `json:"companies"`
		Suppliers  []string `json:"suppliers"`
		Countries  []string `json:"countries"`
		Categories []string `json:"categories"` // matched against Level1
		Years      []int    `json:"years"`
	}

	// FacetOptions lists the distinct selectable values of every dimension,
	// computed over the unfiltered record set.
	FacetOptions struct {
		Companies  []string `json:"companies"`
		Suppliers  []string `json:"suppliers"`
		Countries  []string `json:"countries"`
		Categories []string `json:"categories"`
		Years      []int    `json:"years"`
	}
)

// ParseLevel accepts "level2", "Level2" or "2".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "level1", "1":
		return Level1, nil
	case "level2", "2":
		return Level2, nil
	case "level3", "3":
		return Level3, nil
	}
	return "", fmt.Errorf("invalid category level %q", s)
}

// Of returns the record's category at level l. Unknown levels read Level1.
func (l Level) Of(r SpendRecord) string {
	switch l {
	case Level2:
		return r.Level2
	case Level3:
		return r.Level3
	default:
		return r.Level1
	}
}

func (l Level) String() string {
	return string(l)
}

// Year derives the calendar year from the record's date.
func (r SpendRecord) Year() (int, bool) {
	t, ok := ParseDate(r.Date)
	if !ok {
		return 0, false
	}
	return t.Year(), true
}

// IsEmpty reports whether no dimension is restricted.
func (s FilterSelection) IsEmpty() bool {
	return len(s.Companies) == 0 &&
		len(s.Suppliers) == 0 &&
		len(s.Countries) == 0 &&
		len(s.Categories) == 0 &&
		len(s.Years) == 0
}

// WithCompanies returns a copy of s restricted to the given companies.
func (s FilterSelection) WithCompanies(v ...string) FilterSelection {
	s.Companies = slices.Clone(v)
	return s
}

// WithSuppliers returns a copy of s restricted to the given suppliers.
func (s FilterSelection) WithSuppliers(v ...string) FilterSelection {
	s.Suppliers = slices.Clone(v)
	return s
}

// WithCountries returns a copy of s restricted to the given countries.
func (s FilterSelection) WithCountries(v ...string) FilterSelection {
	s.Countries = slices.Clone(v)
	return s
}

// WithCategories returns a copy of s restricted to the given Level1 categories.
func (s FilterSelection) WithCategories(v ...string) FilterSelection {
	s.Categories = slices.Clone(v)
	return s
}

// WithYears returns a copy of s restricted to the given years.
func (s FilterSelection) WithYears(v ...int) FilterSelection {
	s.Years = slices.Clone(v)
	return s
}

// Key is a canonical string form of the selection, independent of the order
// values were picked in. Distinct selections never share a key, whatever
// characters their values hold. Used as a memoization key.
func (s FilterSelection) Key() string {
	b, _ := json.Marshal(struct {
		Companies  []string `json:"c"`
		Suppliers  []string `json:"s"`
		Countries  []string `json:"n"`
		Categories []string `json:"l"`
		Years      []int    `json:"y"`
	}{
		Companies:  canonicalSet(s.Companies),
		Suppliers:  canonicalSet(s.Suppliers),
		Countries:  canonicalSet(s.Countries),
		Categories: canonicalSet(s.Categories),
		Years:      canonicalSet(s.Years),
	})
	return string(b)
}

// canonicalSet sorts and dedupes vals; empty input becomes nil.
func canonicalSet[T cmp.Ordered](vals []T) []T {
	if len(vals) == 0 {
		return nil
	}
	out := slices.Clone(vals)
	slices.Sort(out)
	return slices.Compact(out)
}
