package sylva

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Query is a compiled set of structural patterns over trees of one
// language. Immutable after compilation; any number of concurrent
// QueryCursors may run it.
type Query struct {
	lang     *Language
	patterns []*pattern
	captures []string // all capture names, in first-appearance order
}

// pattern is one top-level pattern with its predicates.
type pattern struct {
	root  *patternNode
	preds []predicate
}

type quantifier uint8

const (
	quantOne quantifier = iota
	quantOpt
	quantStar
	quantPlus
)

// patternNode matches one tree node. Exactly one of the shape fields
// is meaningful: kind (possibly wildcard), literal, or alternatives.
type patternNode struct {
	kind         string // "" for literal/alternation; "_" wildcard
	anyKind      bool   // bare _ : matches anonymous nodes too
	literal      string // anonymous node, e.g. "+"
	isLiteral    bool
	alternatives []*patternNode

	field    string
	captures []string
	quant    quantifier
	anchored bool // must directly follow the previous sibling pattern

	children []*patternNode
}

// predicate is one post-match condition, e.g. (#eq? @name "main").
type predicate struct {
	name   string
	args   []predicateArg
	regex  *regexp.Regexp // pre-compiled for #match? and #not-match?
	offset int
}

type predicateArg struct {
	capture string // exclusive with literal
	literal string
	isStr   bool
}

// CompileQuery compiles pattern text against a language. Malformed
// patterns, unknown node kinds, unknown fields, and references to
// undefined captures are reported as a *QueryError carrying a byte
// offset into the pattern text.
func CompileQuery(lang *Language, text string) (*Query, error) {
	p := &queryParser{lang: lang, src: text}
	q := &Query{lang: lang}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		pat, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		q.patterns = append(q.patterns, pat)
	}
	if len(q.patterns) == 0 {
		return nil, queryErrorf(0, "empty query")
	}
	for _, pat := range q.patterns {
		collectCaptureNames(pat.root, &q.captures)
	}
	if err := q.checkPredicates(); err != nil {
		return nil, err
	}
	return q, nil
}

// PatternCount returns the number of top-level patterns.
func (q *Query) PatternCount() int { return len(q.patterns) }

// CaptureNames returns all capture names in first-appearance order.
func (q *Query) CaptureNames() []string { return q.captures }

func collectCaptureNames(n *patternNode, out *[]string) {
	if n == nil {
		return
	}
	for _, a := range n.alternatives {
		collectCaptureNames(a, out)
	}
	for _, c := range n.children {
		collectCaptureNames(c, out)
	}
	for _, c := range n.captures {
		if !containsStr(*out, c) {
			*out = append(*out, c)
		}
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// checkPredicates verifies each predicate's shape and that its capture
// arguments are bound by the enclosing pattern.
func (q *Query) checkPredicates() error {
	for _, pat := range q.patterns {
		var bound []string
		collectCaptureNames(pat.root, &bound)
		for i := range pat.preds {
			pr := &pat.preds[i]
			switch pr.name {
			case "eq?", "not-eq?":
				if len(pr.args) != 2 || !pr.args[0].isCapture() {
					return queryErrorf(pr.offset, "#%s expects a capture and one more argument", pr.name)
				}
			case "match?", "not-match?":
				if len(pr.args) != 2 || !pr.args[0].isCapture() || !pr.args[1].isStr {
					return queryErrorf(pr.offset, "#%s expects a capture and a regex string", pr.name)
				}
				re, err := regexp.Compile(pr.args[1].literal)
				if err != nil {
					return queryErrorf(pr.offset, "bad regex: %v", err)
				}
				pr.regex = re
			case "contains?", "not-contains?", "any-contains?", "any-not-contains?":
				if len(pr.args) != 2 || !pr.args[0].isCapture() || !pr.args[1].isStr {
					return queryErrorf(pr.offset, "#%s expects a capture and a string", pr.name)
				}
			case "any-of?", "not-any-of?":
				if len(pr.args) < 2 || !pr.args[0].isCapture() {
					return queryErrorf(pr.offset, "#%s expects a capture and at least one string", pr.name)
				}
				for _, a := range pr.args[1:] {
					if !a.isStr {
						return queryErrorf(pr.offset, "#%s arguments after the capture must be strings", pr.name)
					}
				}
			default:
				return queryErrorf(pr.offset, "unknown predicate #%s", pr.name)
			}
			for _, a := range pr.args {
				if a.isCapture() && !containsStr(bound, a.capture) {
					return queryErrorf(pr.offset, "predicate references undefined capture @%s", a.capture)
				}
			}
		}
	}
	return nil
}

func (a *predicateArg) isCapture() bool { return a.capture != "" }

// queryParser is a recursive-descent parser over pattern text.
type queryParser struct {
	lang *Language
	src  string
	pos  int
}

func (p *queryParser) eof() bool { return p.pos >= len(p.src) }

func (p *queryParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *queryParser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		if c == ';' {
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		p.pos++
	}
}

// parseTopLevel parses one pattern plus any predicates written inside
// it at the top level.
func (p *queryParser) parseTopLevel() (*pattern, error) {
	pat := &pattern{}
	node, err := p.parseChild(pat)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, queryErrorf(p.pos, "expected a pattern")
	}
	pat.root = node
	return pat, nil
}

// parseChild parses one child pattern (node, literal, wildcard, or
// alternation) with its field prefix, quantifier, and captures. It
// returns nil for predicates, which it records on pat instead.
func (p *queryParser) parseChild(pat *pattern) (*patternNode, error) {
	p.skipSpace()
	start := p.pos

	var node *patternNode
	switch c := p.peek(); {
	case c == '(':
		n, err := p.parseParen(pat)
		if err != nil {
			return nil, err
		}
		node = n
	case c == '[':
		n, err := p.parseAlternation(pat)
		if err != nil {
			return nil, err
		}
		node = n
	case c == '"':
		lit, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, ok := p.lang.KindID(lit); !ok {
			return nil, queryErrorf(start, "unknown token %q", lit)
		}
		node = &patternNode{literal: lit, isLiteral: true}
	case c == '_':
		p.pos++
		node = &patternNode{kind: "_", anyKind: true}
	case isIdentStart(c):
		name := p.parseIdent()
		// A bare identifier followed by ':' is a field prefix.
		p.skipSpace()
		if p.peek() == ':' {
			p.pos++
			child, err := p.parseChild(pat)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return nil, queryErrorf(p.pos, "field %q has no pattern", name)
			}
			if _, ok := p.lang.FieldID(name); !ok {
				return nil, queryErrorf(start, "unknown field %q", name)
			}
			child.field = name
			return child, nil
		}
		return nil, queryErrorf(start, "bare identifier %q; node kinds must be parenthesized", name)
	default:
		return nil, queryErrorf(p.pos, "unexpected character %q", string(c))
	}

	if node == nil {
		return nil, nil // predicate
	}

	// Postfix quantifier, then captures.
	switch p.peek() {
	case '?':
		node.quant = quantOpt
		p.pos++
	case '*':
		node.quant = quantStar
		p.pos++
	case '+':
		node.quant = quantPlus
		p.pos++
	}
	for {
		p.skipSpace()
		if p.peek() != '@' {
			break
		}
		p.pos++
		name := p.parseIdent()
		if name == "" {
			return nil, queryErrorf(p.pos, "expected capture name after @")
		}
		node.captures = append(node.captures, name)
	}
	return node, nil
}

// parseParen parses "(kind children...)", "(_)", or a predicate.
func (p *queryParser) parseParen(pat *pattern) (*patternNode, error) {
	open := p.pos
	p.pos++ // consume (
	p.skipSpace()

	if p.peek() == '#' {
		return nil, p.parsePredicate(pat, open)
	}

	// A paren followed by another pattern is a group: one pattern plus
	// its predicates, e.g. ((identifier) @id (#eq? @id "x")).
	if c := p.peek(); c == '(' || c == '[' || c == '"' {
		var inner *patternNode
		for {
			p.skipSpace()
			if p.eof() {
				return nil, queryErrorf(open, "unclosed (")
			}
			if p.peek() == ')' {
				p.pos++
				if inner == nil {
					return nil, queryErrorf(open, "empty group")
				}
				return inner, nil
			}
			child, err := p.parseChild(pat)
			if err != nil {
				return nil, err
			}
			if child != nil {
				if inner != nil {
					return nil, queryErrorf(open, "a group may hold one pattern plus predicates")
				}
				inner = child
			}
		}
	}

	node := &patternNode{}
	switch {
	case p.peek() == '_':
		p.pos++
		node.kind = "_"
	case isIdentStart(p.peek()):
		node.kind = p.parseIdent()
		if _, ok := p.lang.KindID(node.kind); !ok && node.kind != "ERROR" {
			return nil, queryErrorf(open+1, "unknown node kind %q", node.kind)
		}
	default:
		return nil, queryErrorf(p.pos, "expected node kind after (")
	}

	anchorNext := false
	for {
		p.skipSpace()
		switch {
		case p.eof():
			return nil, queryErrorf(open, "unclosed (")
		case p.peek() == ')':
			p.pos++
			return node, nil
		case p.peek() == '.':
			p.pos++
			anchorNext = true
		default:
			child, err := p.parseChild(pat)
			if err != nil {
				return nil, err
			}
			if child != nil {
				child.anchored = anchorNext
				node.children = append(node.children, child)
			}
			anchorNext = false
		}
	}
}

// parseAlternation parses "[ p1 p2 ... ]".
func (p *queryParser) parseAlternation(pat *pattern) (*patternNode, error) {
	open := p.pos
	p.pos++ // consume [
	node := &patternNode{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, queryErrorf(open, "unclosed [")
		}
		if p.peek() == ']' {
			p.pos++
			if len(node.alternatives) == 0 {
				return nil, queryErrorf(open, "empty alternation")
			}
			return node, nil
		}
		alt, err := p.parseChild(pat)
		if err != nil {
			return nil, err
		}
		if alt == nil {
			return nil, queryErrorf(open, "predicates are not allowed inside [ ]")
		}
		node.alternatives = append(node.alternatives, alt)
	}
}

// parsePredicate parses "(#name args... )" and records it on pat.
func (p *queryParser) parsePredicate(pat *pattern, open int) error {
	p.pos++ // consume #
	name := p.parseIdent()
	if p.peek() == '?' {
		name += "?"
		p.pos++
	}
	pr := predicate{name: name, offset: open}
	for {
		p.skipSpace()
		switch {
		case p.eof():
			return queryErrorf(open, "unclosed predicate")
		case p.peek() == ')':
			p.pos++
			pat.preds = append(pat.preds, pr)
			return nil
		case p.peek() == '@':
			p.pos++
			cap := p.parseIdent()
			if cap == "" {
				return queryErrorf(p.pos, "expected capture name after @")
			}
			pr.args = append(pr.args, predicateArg{capture: cap})
		case p.peek() == '"':
			s, err := p.parseString()
			if err != nil {
				return err
			}
			pr.args = append(pr.args, predicateArg{literal: s, isStr: true})
		default:
			return queryErrorf(p.pos, "unexpected character %q in predicate", string(p.peek()))
		}
	}
}

func (p *queryParser) parseString() (string, error) {
	open := p.pos
	p.pos++ // consume "
	var b strings.Builder
	for {
		if p.eof() {
			return "", queryErrorf(open, "unterminated string")
		}
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", queryErrorf(open, "unterminated string")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"':
				b.WriteByte(e)
			default:
				return "", queryErrorf(p.pos, "bad escape %q", string(e))
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *queryParser) parseIdent() string {
	start := p.pos
	for !p.eof() {
		r, sz := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += sz
	}
	return p.src[start:p.pos]
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
