// Package tel implements the template expression language embedded in
// CV template HTML: mustache-style interpolation, conditionals, loops and
// a fixed set of helper functions evaluated against a resume document.
//
// Templates are parsed once into an AST; Execute is a pure function of
// (template, document) and never mutates either.
package tel

import (
	"fmt"
	"strings"
)

// Template is a parsed, immutable program. Safe for concurrent Execute.
type Template struct {
	nodes []node
}

type node interface {
	render(sb *strings.Builder, sc *scope)
}

type textNode struct {
	text string
}

type interpNode struct {
	path []string
}

type ifNode struct {
	path []string
	then []node
	els  []node
}

type eachNode struct {
	path []string
	body []node
}

type helperNode struct {
	name string
	fn   helper
	args []argument
}

// argument is either a literal value or a path resolved at render time.
type argument struct {
	isLiteral bool
	literal   interface{}
	path      []string
}

// ParseError reports a malformed directive with its byte offset in the
// template source.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template parse error at offset %d: %s", e.Offset, e.Reason)
}
