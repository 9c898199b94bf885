package views

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"spendboard/internal/core"
)

// AllCategories selects every Level1 category in TemporalOptions.
const AllCategories = "All"

// WeeksPerMonth is the number of week-of-month columns; later days fold into
// the last one.
const WeeksPerMonth = 5

// TemporalOptions narrows the calendar views.
type TemporalOptions struct {
	// Category restricts the view to one Level1 category. "" and
	// AllCategories keep every record.
	Category string
}

func (o TemporalOptions) admits(r core.SpendRecord) bool {
	c := strings.TrimSpace(o.Category)
	return c == "" || c == AllCategories || r.Level1 == c
}

// WeekTotal is the spend in one week of a month.
type WeekTotal struct {
	Week  int     `json:"week"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// MonthBucket holds the weeks of one month that saw any spend.
type MonthBucket struct {
	Month string      `json:"month"`
	Total float64     `json:"total"`
	Weeks []WeekTotal `json:"weeks"`
}

// Temporal is spend bucketed by month and week of month.
type Temporal struct {
	Category string        `json:"category"`
	Months   []MonthBucket `json:"months"`
}

// WeekLabel names week w of a month.
func WeekLabel(w int) string {
	return fmt.Sprintf("Week %d", w)
}

// TemporalBuckets sums records into (month, week of month) cells. Months and
// weeks appear in first-seen order. Records whose date does not parse are
// left out.
func TemporalBuckets(records []core.SpendRecord, opts TemporalOptions) Temporal {
	byMonth := newTallies()
	for _, r := range records {
		if !opts.admits(r) {
			continue
		}
		t, ok := core.ParseDate(r.Date)
		if !ok {
			continue
		}
		byMonth.add(r.Amount, core.MonthLabel(t), WeekLabel(core.WeekOfMonth(t)))
	}

	out := Temporal{Category: opts.Category, Months: make([]MonthBucket, 0, byMonth.len())}
	for _, m := range byMonth.list {
		mb := MonthBucket{
			Month: m.name,
			Total: m.sum.Float64(),
			Weeks: make([]WeekTotal, 0, m.children.len()),
		}
		for _, w := range m.children.list {
			mb.Weeks = append(mb.Weeks, WeekTotal{
				Week:  weekNumber(w.name),
				Label: w.name,
				Total: w.sum.Float64(),
			})
		}
		out.Months = append(out.Months, mb)
	}
	return out
}

// Month returns the bucket labelled label.
func (t Temporal) Month(label string) (MonthBucket, bool) {
	for _, m := range t.Months {
		if m.Month == label {
			return m, true
		}
	}
	return MonthBucket{}, false
}

// Week returns the total of week w, 0 when the week had no spend.
func (m MonthBucket) Week(w int) float64 {
	for _, wt := range m.Weeks {
		if wt.Week == w {
			return wt.Total
		}
	}
	return 0
}

func weekNumber(label string) int {
	w, _ := strconv.Atoi(strings.TrimPrefix(label, "Week "))
	return w
}

// Heatmap is the dense month by week grid a heatmap renderer expects.
// Cells holds [monthIndex, weekIndex, value] triples for every month and week.
type Heatmap struct {
	Category string       `json:"category"`
	Months   []string     `json:"months"`
	Weeks    []string     `json:"weeks"`
	Cells    [][3]float64 `json:"cells"`
	Max      float64      `json:"max"`
}

// HeatmapGrid lays the temporal buckets out on a fixed grid. The month axis
// lists every month of the dated records in chronological order, regardless
// of the category restriction, so switching categories keeps the axis stable.
func HeatmapGrid(records []core.SpendRecord, opts TemporalOptions) Heatmap {
	months := chronologicalMonths(records)
	buckets := TemporalBuckets(records, opts)

	weeks := make([]string, WeeksPerMonth)
	for i := range weeks {
		weeks[i] = WeekLabel(i + 1)
	}

	hm := Heatmap{
		Category: opts.Category,
		Months:   months,
		Weeks:    weeks,
		Cells:    make([][3]float64, 0, len(months)*WeeksPerMonth),
	}
	for mi, label := range months {
		bucket, _ := buckets.Month(label)
		for wi := range weeks {
			v := bucket.Week(wi + 1)
			hm.Cells = append(hm.Cells, [3]float64{float64(mi), float64(wi), v})
			if v > hm.Max {
				hm.Max = v
			}
		}
	}
	return hm
}

func chronologicalMonths(records []core.SpendRecord) []string {
	type month struct {
		label string
		start time.Time
	}
	seen := make(map[string]struct{})
	var ms []month
	for _, r := range records {
		t, ok := core.ParseDate(r.Date)
		if !ok {
			continue
		}
		label := core.MonthLabel(t)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		ms = append(ms, month{label: label, start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)})
	}
	slices.SortFunc(ms, func(a, b month) int { return a.start.Compare(b.start) })

	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.label
	}
	return out
}
