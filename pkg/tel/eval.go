package tel

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// Execute renders the template against the given document. Output is
// deterministic: the same (template, document) pair always produces
// byte-identical markup. Unresolvable paths render as empty strings.
func (t *Template) Execute(doc map[string]interface{}) (string, error) {
	var sb strings.Builder
	root := &scope{val: doc}
	for _, n := range t.nodes {
		n.render(&sb, root)
	}
	return sb.String(), nil
}

// scope is a linked lookup frame. Each #each iteration pushes the current
// element; lookups resolve element-local names first, then walk outward to
// the root document (element-local shadows outer).
type scope struct {
	val    interface{}
	parent *scope
}

func (n *textNode) render(sb *strings.Builder, sc *scope) {
	sb.WriteString(n.text)
}

func (n *interpNode) render(sb *strings.Builder, sc *scope) {
	sb.WriteString(html.EscapeString(stringify(lookup(sc, n.path))))
}

func (n *ifNode) render(sb *strings.Builder, sc *scope) {
	branch := n.els
	if truthy(lookup(sc, n.path)) {
		branch = n.then
	}
	for _, c := range branch {
		c.render(sb, sc)
	}
}

func (n *eachNode) render(sb *strings.Builder, sc *scope) {
	seq, ok := lookup(sc, n.path).([]interface{})
	if !ok {
		return
	}
	for _, item := range seq {
		inner := &scope{val: item, parent: sc}
		for _, c := range n.body {
			c.render(sb, inner)
		}
	}
}

func (n *helperNode) render(sb *strings.Builder, sc *scope) {
	args := make([]interface{}, len(n.args))
	for i, a := range n.args {
		if a.isLiteral {
			args[i] = a.literal
		} else {
			args[i] = lookup(sc, a.path)
		}
	}
	out := stringify(n.fn.fn(args))
	if !n.fn.safe {
		out = html.EscapeString(out)
	}
	sb.WriteString(out)
}

// lookup resolves a dotted path. The head segment is searched from the
// innermost scope outward unless the path is anchored with "this", which
// pins resolution to the current element. A miss at any step yields nil.
func lookup(sc *scope, path []string) interface{} {
	if len(path) == 0 {
		return nil
	}
	var base interface{}
	rest := path
	if path[0] == "this" {
		base = sc.val
		rest = path[1:]
	} else {
		found := false
		for s := sc; s != nil; s = s.parent {
			if m, ok := s.val.(map[string]interface{}); ok {
				if v, ok := m[path[0]]; ok {
					base = v
					found = true
					break
				}
			}
		}
		if !found {
			return nil
		}
		rest = path[1:]
	}
	for _, seg := range rest {
		m, ok := base.(map[string]interface{})
		if !ok {
			return nil
		}
		base = m[seg]
	}
	return base
}

// truthy implements the conditional test. Absent values, false, empty
// strings, empty sequences and numeric zero are falsy. The string "0" is
// truthy: strings are never inspected numerically. A present empty object
// is truthy.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// stringify renders a resolved value for interpolation. Whole-number
// floats print without a fractional part so JSON-decoded numbers render
// the way authors expect ("100", not "100.000000").
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
