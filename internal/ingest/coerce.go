package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// coerceString renders scalar JSON values as text. Missing values, null and
// nested objects or arrays become "".
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// coerceAmount reads a number out of v. Text is parsed leniently (leading
// number, rest ignored); anything that yields no finite number is 0.
func coerceAmount(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f = parseLeadingFloat(t.String())
	case string:
		f = parseLeadingFloat(t)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseLeadingFloat parses the longest prefix of s (after leading white
// space) that forms a decimal number: optional sign, digits with an optional
// fraction, optional exponent. "12.5 USD" is 12.5, "abc" is 0.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	digits := i - intStart
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		digits += j - i - 1
		if digits > 0 {
			i = j
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	// Out of range input yields ±Inf here, which coerceAmount drops.
	f, _ := strconv.ParseFloat(s[:i], 64)
	return f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
