package tel

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// helper is a pure, total function over its arguments. Helpers marked safe
// produce markup that must not be escaped on interpolation.
type helper struct {
	fn   func(args []interface{}) interface{}
	safe bool
}

// helpers is the closed registry. The set is fixed at startup; templates
// referencing any other name fail to parse.
var helpers = map[string]helper{
	"first":               {fn: helperFirst},
	"last":                {fn: helperLast},
	"substr":              {fn: helperSubstr},
	"year":                {fn: helperYear},
	"percentage":          {fn: helperPercentage},
	"translate_work_mode": {fn: helperTranslateWorkMode},
	"hasItems":            {fn: helperHasItems},
	"nl2br":               {fn: helperNl2br, safe: true},
	"preserveWhitespace":  {fn: helperPreserveWhitespace, safe: true},
}

var workModeLabels = map[string]string{
	"remote": "Télétravail",
	"onsite": "Sur site",
	"hybrid": "Hybride",
}

var yearPattern = regexp.MustCompile(`\d{4}`)

func argString(args []interface{}, i int) string {
	if i >= len(args) {
		return ""
	}
	return stringify(args[i])
}

func argNumber(args []interface{}, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch t := args[i].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func argInt(args []interface{}, i int) int {
	f, ok := argNumber(args, i)
	if !ok {
		return 0
	}
	return int(f)
}

// helperFirst returns the first n characters of the value.
func helperFirst(args []interface{}) interface{} {
	r := []rune(argString(args, 0))
	n := argInt(args, 1)
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	return string(r[:n])
}

// helperLast returns the last n characters of the value.
func helperLast(args []interface{}) interface{} {
	r := []rune(argString(args, 0))
	n := argInt(args, 1)
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	return string(r[len(r)-n:])
}

// helperSubstr slices the value from start, optionally limited to length.
func helperSubstr(args []interface{}) interface{} {
	r := []rune(argString(args, 0))
	start := argInt(args, 1)
	if start < 0 {
		start = 0
	}
	if start > len(r) {
		start = len(r)
	}
	if len(args) < 3 {
		return string(r[start:])
	}
	length := argInt(args, 2)
	if length < 0 {
		length = 0
	}
	if start+length > len(r) {
		length = len(r) - start
	}
	return string(r[start : start+length])
}

// helperYear extracts a 4-digit year from a date string, echoing the input
// unchanged when no year is found.
func helperYear(args []interface{}) interface{} {
	s := argString(args, 0)
	if m := yearPattern.FindString(s); m != "" {
		return m
	}
	return s
}

// helperPercentage scales a level to 0-100 against a maximum (default 5).
// Non-numeric input or a zero maximum yields 0.
func helperPercentage(args []interface{}) interface{} {
	level, ok := argNumber(args, 0)
	if !ok {
		return 0.0
	}
	max := 5.0
	if len(args) > 1 {
		m, ok := argNumber(args, 1)
		if !ok {
			return 0.0
		}
		max = m
	}
	if max == 0 {
		return 0.0
	}
	return (level / max) * 100
}

// helperTranslateWorkMode maps work-mode codes to display labels; unmapped
// values pass through unchanged.
func helperTranslateWorkMode(args []interface{}) interface{} {
	s := argString(args, 0)
	if label, ok := workModeLabels[s]; ok {
		return label
	}
	return s
}

// helperHasItems reports whether the value is a non-empty sequence.
func helperHasItems(args []interface{}) interface{} {
	if len(args) == 0 {
		return false
	}
	seq, ok := args[0].([]interface{})
	return ok && len(seq) > 0
}

// helperNl2br converts newlines to <br> tags. The text itself is escaped
// before the tags are inserted.
func helperNl2br(args []interface{}) interface{} {
	s := argString(args, 0)
	if s == "" {
		return ""
	}
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

// helperPreserveWhitespace wraps escaped text in a pre-wrap span so line
// breaks and indentation survive rendering.
func helperPreserveWhitespace(args []interface{}) interface{} {
	s := argString(args, 0)
	if s == "" {
		return ""
	}
	return `<span style="white-space: pre-wrap;">` + html.EscapeString(s) + `</span>`
}
