package tel

import (
	"strconv"
	"strings"
)

// Parse compiles a template source string into an executable Template.
// Malformed nesting and references to unregistered helpers are rejected
// here, so a template that parses cannot fail at render time.
func Parse(src string) (*Template, error) {
	p := &parser{src: src}
	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes}, nil
}

type frameKind int

const (
	frameRoot frameKind = iota
	frameIf
	frameEach
)

type frame struct {
	kind   frameKind
	offset int
	path   []string
	nodes  []node
	els    []node
	inElse bool
}

func (f *frame) append(n node) {
	if f.inElse {
		f.els = append(f.els, n)
	} else {
		f.nodes = append(f.nodes, n)
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseNodes() ([]node, error) {
	stack := []*frame{{kind: frameRoot}}
	top := func() *frame { return stack[len(stack)-1] }

	for p.pos < len(p.src) {
		open := strings.Index(p.src[p.pos:], "{{")
		if open < 0 {
			top().append(&textNode{text: p.src[p.pos:]})
			break
		}
		if open > 0 {
			top().append(&textNode{text: p.src[p.pos : p.pos+open]})
		}
		tagStart := p.pos + open
		close := strings.Index(p.src[tagStart:], "}}")
		if close < 0 {
			return nil, &ParseError{Offset: tagStart, Reason: "unterminated directive"}
		}
		content := strings.TrimSpace(p.src[tagStart+2 : tagStart+close])
		p.pos = tagStart + close + 2

		switch {
		case content == "":
			return nil, &ParseError{Offset: tagStart, Reason: "empty directive"}

		case strings.HasPrefix(content, "#if"):
			path := strings.TrimSpace(strings.TrimPrefix(content, "#if"))
			if path == "" {
				return nil, &ParseError{Offset: tagStart, Reason: "#if requires a path"}
			}
			stack = append(stack, &frame{kind: frameIf, offset: tagStart, path: splitPath(path)})

		case content == "else":
			f := top()
			if f.kind != frameIf {
				return nil, &ParseError{Offset: tagStart, Reason: "else outside of #if"}
			}
			if f.inElse {
				return nil, &ParseError{Offset: tagStart, Reason: "duplicate else in #if"}
			}
			f.inElse = true

		case content == "/if":
			f := top()
			if f.kind != frameIf {
				return nil, &ParseError{Offset: tagStart, Reason: "/if without matching #if"}
			}
			stack = stack[:len(stack)-1]
			top().append(&ifNode{path: f.path, then: f.nodes, els: f.els})

		case strings.HasPrefix(content, "#each"):
			path := strings.TrimSpace(strings.TrimPrefix(content, "#each"))
			if path == "" {
				return nil, &ParseError{Offset: tagStart, Reason: "#each requires a path"}
			}
			stack = append(stack, &frame{kind: frameEach, offset: tagStart, path: splitPath(path)})

		case content == "/each":
			f := top()
			if f.kind != frameEach {
				return nil, &ParseError{Offset: tagStart, Reason: "/each without matching #each"}
			}
			stack = stack[:len(stack)-1]
			top().append(&eachNode{path: f.path, body: f.nodes})

		case strings.HasPrefix(content, "#") || strings.HasPrefix(content, "/"):
			return nil, &ParseError{Offset: tagStart, Reason: "unknown block directive " + strconv.Quote(content)}

		default:
			n, err := parseExpression(content, tagStart)
			if err != nil {
				return nil, err
			}
			top().append(n)
		}
	}

	if f := top(); f.kind != frameRoot {
		name := "#if"
		if f.kind == frameEach {
			name = "#each"
		}
		return nil, &ParseError{Offset: f.offset, Reason: "unclosed " + name + " block"}
	}
	return stack[0].nodes, nil
}

// parseExpression handles a non-block tag: either a plain path
// interpolation or a helper invocation with positional arguments.
func parseExpression(content string, offset int) (node, error) {
	tokens, err := scanTokens(content, offset)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 && !tokens[0].quoted {
		return &interpNode{path: splitPath(tokens[0].text)}, nil
	}
	name := tokens[0].text
	if tokens[0].quoted {
		return nil, &ParseError{Offset: offset, Reason: "helper name cannot be a string literal"}
	}
	fn, ok := helpers[name]
	if !ok {
		return nil, &ParseError{Offset: offset, Reason: "unregistered helper " + strconv.Quote(name)}
	}
	args := make([]argument, 0, len(tokens)-1)
	for _, tok := range tokens[1:] {
		args = append(args, parseArgument(tok))
	}
	return &helperNode{name: name, fn: fn, args: args}, nil
}

func parseArgument(tok token) argument {
	if tok.quoted {
		return argument{isLiteral: true, literal: tok.text}
	}
	if tok.text == "true" {
		return argument{isLiteral: true, literal: true}
	}
	if tok.text == "false" {
		return argument{isLiteral: true, literal: false}
	}
	if f, err := strconv.ParseFloat(tok.text, 64); err == nil {
		return argument{isLiteral: true, literal: f}
	}
	return argument{path: splitPath(tok.text)}
}

type token struct {
	text   string
	quoted bool
}

// scanTokens splits a directive body on whitespace, honoring single- and
// double-quoted string literals.
func scanTokens(content string, offset int) ([]token, error) {
	var out []token
	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(content[i+1:], c)
			if end < 0 {
				return nil, &ParseError{Offset: offset, Reason: "unterminated string literal"}
			}
			out = append(out, token{text: content[i+1 : i+1+end], quoted: true})
			i += end + 2
		default:
			j := i
			for j < len(content) && !isSpace(content[j]) {
				j++
			}
			out = append(out, token{text: content[i:j]})
			i = j
		}
	}
	if len(out) == 0 {
		return nil, &ParseError{Offset: offset, Reason: "empty directive"}
	}
	return out, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func splitPath(s string) []string {
	return strings.Split(s, ".")
}
