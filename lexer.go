package sylva

import (
	"sort"
	"unicode/utf8"

	"github.com/sylva-dev/sylva/internal/grammar"
)

// token is one lexed unit, carrying the skipped content before it as
// padding so leaves preserve full source coverage arithmetic.
type token struct {
	sym         grammar.Symbol
	paddedStart position
	padding     length
	size        length
	extra       bool
	invalidByte bool // unrecognized input, to be wrapped in an ERROR leaf
}

func (t *token) contentStart() position {
	return t.paddedStart.advance(t.padding)
}

func (t *token) end() position {
	return t.paddedStart.advance(t.padding).advance(t.size)
}

// lexer drives the language's DFA over the source buffer. It tracks
// the absolute position in bytes and points (UTF-16 columns) and can
// be repositioned for incremental reuse and error recovery.
type lexer struct {
	lang    *Language
	source  []byte
	pos     position
	scanner ExternalScanner

	// advances counts rune consumptions for the parser's periodic
	// cancellation check.
	advances int

	// scratch accept snapshots, reused across calls.
	snaps []lexSnapshot
}

// lexSnapshot records an accepting DFA position during a scan.
type lexSnapshot struct {
	pos     position
	accepts []grammar.Symbol
}

func newLexer(lang *Language, source []byte) *lexer {
	l := &lexer{lang: lang, source: source}
	if lang.newScanner != nil {
		l.scanner = lang.newScanner()
	}
	return l
}

// resetTo repositions the lexer; the position must lie on a rune
// boundary (node boundaries always do).
func (l *lexer) resetTo(p position) {
	l.pos = p
}

// next lexes one token. valid is the sorted set of terminals the
// current parse state accepts; skip and extra tokens are always
// considered. Unrecognizable input yields a single-byte invalid token
// rather than an error, so lexing never halts.
func (l *lexer) next(valid []grammar.Symbol) token {
	paddedStart := l.pos

	for {
		contentStart := l.pos
		if int(l.pos.bytes) >= len(l.source) {
			return token{
				sym:         grammar.SymbolEnd,
				paddedStart: paddedStart,
				padding:     extentBetween(paddedStart, contentStart),
			}
		}

		if tok, ok := l.scanExternal(paddedStart, contentStart, valid); ok {
			return tok
		}

		sym, end, ok := l.scanDFA(contentStart, valid)
		if !ok {
			// Emit the offending byte sequence as a one-rune token.
			end := l.advanceRune(contentStart)
			l.pos = end
			return token{
				paddedStart: paddedStart,
				padding:     extentBetween(paddedStart, contentStart),
				size:        extentBetween(contentStart, end),
				invalidByte: true,
			}
		}

		td := l.lang.g.TokenDef(sym)
		l.pos = end
		if td.Skip {
			continue // folded into the next token's padding
		}
		return token{
			sym:         sym,
			paddedStart: paddedStart,
			padding:     extentBetween(paddedStart, contentStart),
			size:        extentBetween(contentStart, end),
			extra:       td.Extra,
		}
	}
}

// scanExternal consults the external scanner when the state expects an
// external token.
func (l *lexer) scanExternal(paddedStart, contentStart position, valid []grammar.Symbol) (token, bool) {
	if l.scanner == nil {
		return token{}, false
	}
	var names []string
	var syms []grammar.Symbol
	for _, sym := range valid {
		if td := l.lang.g.TokenDef(sym); td != nil && td.External {
			names = append(names, td.Name)
			syms = append(syms, sym)
		}
	}
	if len(names) == 0 {
		return token{}, false
	}
	name, byteLen, ok := l.scanner.Scan(l.source, int(contentStart.bytes), names)
	if !ok || byteLen <= 0 {
		return token{}, false
	}
	var sym grammar.Symbol
	for i, n := range names {
		if n == name {
			sym = syms[i]
			break
		}
	}
	if sym == 0 {
		return token{}, false
	}
	end := l.measureForward(contentStart, byteLen)
	l.pos = end
	return token{
		sym:         sym,
		paddedStart: paddedStart,
		padding:     extentBetween(paddedStart, contentStart),
		size:        extentBetween(contentStart, end),
	}, true
}

// scanDFA runs the DFA from start and picks the longest match whose
// token is usable here: valid in the parse state, or a skip/extra
// token. Shorter accepted prefixes are fallbacks when the longest
// match is not usable, which is what makes context-restricted tokens
// work.
func (l *lexer) scanDFA(start position, valid []grammar.Symbol) (grammar.Symbol, position, bool) {
	table := l.lang.g.Lex
	state := 0
	pos := start
	l.snaps = l.snaps[:0]

	for int(pos.bytes) < len(l.source) {
		r, sz := utf8.DecodeRune(l.source[pos.bytes:])
		if sz == 0 {
			break
		}
		next := table.Step(state, r)
		if next < 0 {
			break
		}
		state = next
		pos = l.advanceBy(pos, r, sz)
		l.advances++
		if len(table.States[state].Accepts) > 0 {
			l.snaps = append(l.snaps, lexSnapshot{pos: pos, accepts: table.States[state].Accepts})
		}
	}

	for i := len(l.snaps) - 1; i >= 0; i-- {
		for _, sym := range l.snaps[i].accepts {
			if l.usable(sym, valid) {
				return sym, l.snaps[i].pos, true
			}
		}
	}
	return 0, position{}, false
}

func (l *lexer) usable(sym grammar.Symbol, valid []grammar.Symbol) bool {
	if td := l.lang.g.TokenDef(sym); td != nil && (td.Skip || td.Extra) {
		return true
	}
	i := sort.Search(len(valid), func(i int) bool { return valid[i] >= sym })
	return i < len(valid) && valid[i] == sym
}

// advanceRune moves one rune forward from p.
func (l *lexer) advanceRune(p position) position {
	r, sz := utf8.DecodeRune(l.source[p.bytes:])
	if sz == 0 {
		return p
	}
	return l.advanceBy(p, r, sz)
}

// measureForward advances p across n source bytes, tracking points.
func (l *lexer) measureForward(p position, n int) position {
	end := int(p.bytes) + n
	if end > len(l.source) {
		end = len(l.source)
	}
	for int(p.bytes) < end {
		r, sz := utf8.DecodeRune(l.source[p.bytes:])
		if sz == 0 {
			break
		}
		p = l.advanceBy(p, r, sz)
		l.advances++
	}
	return p
}

func (l *lexer) advanceBy(p position, r rune, size int) position {
	p.bytes += uint32(size)
	if r == '\n' {
		p.point.Row++
		p.point.Column = 0
	} else {
		p.point.Column += utf16Width(r)
	}
	return p
}
