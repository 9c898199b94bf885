package ingest

import (
	"strings"

	"spendboard/internal/core"
)

// Delimiter separates columns in delimited text payloads. Columns are read by
// position; quoting is not interpreted.
const Delimiter = ","

// Columns is the positional layout of delimited text and tabular sources.
var Columns = []string{
	"company", "invoice", "poNumber", "date", "supplier",
	"country", "level1", "level2", "level3", "amount",
}

// fieldKeys lists the object keys accepted for each canonical field, most
// specific first. The first entry is what spend exports emit; the second is
// the canonical JSON tag so normalized output reads back unchanged.
var fieldKeys = struct {
	company, invoice, po, date, supplier, country, l1, l2, l3, amount []string
}{
	company:  []string{"PortCo", "company", "Company"},
	invoice:  []string{"Invoice", "invoice"},
	po:       []string{"PONo", "poNumber", "PONumber", "PO"},
	date:     []string{"Date", "date"},
	supplier: []string{"Supplier", "supplier"},
	country:  []string{"Country", "country"},
	l1:       []string{"Level1", "level1"},
	l2:       []string{"Level2", "level2"},
	l3:       []string{"Level3", "level3"},
	amount:   []string{"Amount", "amount"},
}

// Parse decodes and normalizes a raw response body.
func Parse(body []byte) []core.SpendRecord {
	return Normalize(Decode(body))
}

// Normalize maps a resolved payload to canonical records. It never fails and
// returns an empty, non-nil slice when there is nothing to read.
func Normalize(p Payload) []core.SpendRecord {
	switch p.Kind {
	case KindNestedRows, KindRows:
		return fromObjects(p.Rows)
	case KindNestedText, KindText:
		return ParseText(p.Text)
	}
	return []core.SpendRecord{}
}

func fromObjects(rows []any) []core.SpendRecord {
	out := make([]core.SpendRecord, len(rows))
	for i, raw := range rows {
		switch row := raw.(type) {
		case core.SpendRecord:
			out[i] = row
		case map[string]any:
			out[i] = fromObject(row)
		}
	}
	return out
}

func fromObject(obj map[string]any) core.SpendRecord {
	if obj == nil {
		return core.SpendRecord{}
	}
	str := func(keys []string) string { return coerceString(lookup(obj, keys)) }
	return core.SpendRecord{
		Company:  str(fieldKeys.company),
		Invoice:  str(fieldKeys.invoice),
		PONumber: str(fieldKeys.po),
		Date:     str(fieldKeys.date),
		Supplier: str(fieldKeys.supplier),
		Country:  str(fieldKeys.country),
		Level1:   str(fieldKeys.l1),
		Level2:   str(fieldKeys.l2),
		Level3:   str(fieldKeys.l3),
		Amount:   coerceAmount(lookup(obj, fieldKeys.amount)),
	}
}

// lookup returns the first exact key match, then a case-insensitive match
// in keys order. Among object keys differing only by case the
// lexicographically smallest wins. A key holding null counts as absent.
func lookup(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	for _, want := range keys {
		best, found := "", false
		for k, v := range obj {
			if v == nil || !strings.EqualFold(k, want) {
				continue
			}
			if !found || k < best {
				best, found = k, true
			}
		}
		if found {
			return obj[best]
		}
	}
	return nil
}

// ParseText reads delimited text. The first line is a header and is
// discarded; every later line is one record, even when blank.
func ParseText(text string) []core.SpendRecord {
	text = strings.TrimSpace(text)
	if text == "" {
		return []core.SpendRecord{}
	}
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, strings.Split(line, Delimiter))
	}
	return FromColumns(rows)
}

// FromColumns maps positional rows (no header) to records. Short rows leave
// the missing fields at their defaults; extra columns are ignored.
func FromColumns(rows [][]string) []core.SpendRecord {
	out := make([]core.SpendRecord, len(rows))
	for i, cols := range rows {
		at := func(idx int) string {
			if idx < len(cols) {
				return strings.TrimSpace(cols[idx])
			}
			return ""
		}
		out[i] = core.SpendRecord{
			Company:  at(0),
			Invoice:  at(1),
			PONumber: at(2),
			Date:     at(3),
			Supplier: at(4),
			Country:  at(5),
			Level1:   at(6),
			Level2:   at(7),
			Level3:   at(8),
			Amount:   coerceAmount(at(9)),
		}
	}
	return out
}
