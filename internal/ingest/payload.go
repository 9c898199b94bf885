// Package ingest turns whatever a spend source hands back into canonical
// records.
//
// Sources answer with one of a few shapes: an object wrapping the rows in a
// "data" field (as an array of objects or as delimited text), a bare array of
// objects, or plain delimited text. Resolve inspects the structure once and
// tags the payload; Normalize maps each tagged shape to []core.SpendRecord.
// Nothing in this package returns an error: values that cannot be read
// degrade to the zero value of their field.
package ingest

import (
	"bytes"
	"encoding/json"

	"spendboard/internal/core"
)

// Kind tags the structural shape of a raw payload.
type Kind int

const (
	KindNone       Kind = iota // nothing usable
	KindNestedRows             // {"data": [{...}, ...]}
	KindNestedText             // {"data": "header\nrow..."}
	KindRows                   // [{...}, ...]
	KindText                   // "header\nrow..."
)

// DataField is the wrapper key sources nest their rows under.
const DataField = "data"

func (k Kind) String() string {
	switch k {
	case KindNestedRows:
		return "nested_rows"
	case KindNestedText:
		return "nested_text"
	case KindRows:
		return "rows"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Payload is a raw payload after shape resolution. Rows is set for the row
// kinds, Text for the text kinds.
type Payload struct {
	Kind Kind
	Rows []any
	Text string
}

// Resolve classifies a decoded JSON value (or a Go value of the same shape).
// Already canonical records, bare or under "data", resolve as rows and pass
// through Normalize unchanged.
func Resolve(v any) Payload {
	switch t := v.(type) {
	case map[string]any:
		switch data := t[DataField].(type) {
		case []any:
			return Payload{Kind: KindNestedRows, Rows: data}
		case []map[string]any:
			return Payload{Kind: KindNestedRows, Rows: objectsToAny(data)}
		case []core.SpendRecord:
			return Payload{Kind: KindNestedRows, Rows: objectsToAny(data)}
		case string:
			return Payload{Kind: KindNestedText, Text: data}
		}
	case []any:
		return Payload{Kind: KindRows, Rows: t}
	case []map[string]any:
		return Payload{Kind: KindRows, Rows: objectsToAny(t)}
	case []core.SpendRecord:
		return Payload{Kind: KindRows, Rows: objectsToAny(t)}
	case string:
		return Payload{Kind: KindText, Text: t}
	case []byte:
		return Payload{Kind: KindText, Text: string(t)}
	}
	return Payload{Kind: KindNone}
}

// Decode reads body as JSON when it is JSON and as delimited text otherwise.
func Decode(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{Kind: KindNone}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return Payload{Kind: KindText, Text: string(body)}
	}
	return Resolve(v)
}

func objectsToAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, m := range in {
		out[i] = m
	}
	return out
}
