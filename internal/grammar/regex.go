package grammar

import (
	"fmt"
	"unicode/utf8"
)

// The token-pattern language is a small regex subset: literal runes,
// escapes, ".", character classes (ranges, negation), grouping,
// alternation, and the ? * + repetitions. Patterns are compiled to an
// NFA here and combined into a single DFA in lextable.go.

// runeRange is an inclusive rune interval.
type runeRange struct {
	lo, hi rune
}

const maxRune = utf8.MaxRune

// nfaState is one NFA state. Epsilon moves and range moves are kept
// separately; accept tagging happens at the token level.
type nfaState struct {
	epsilon []int
	ranges  []runeRange
	targets []int // parallel to ranges
}

type nfa struct {
	states []nfaState
	start  int
	accept int
}

func (n *nfa) newState() int {
	n.states = append(n.states, nfaState{})
	return len(n.states) - 1
}

func (n *nfa) addEpsilon(from, to int) {
	n.states[from].epsilon = append(n.states[from].epsilon, to)
}

func (n *nfa) addRange(from int, r runeRange, to int) {
	n.states[from].ranges = append(n.states[from].ranges, r)
	n.states[from].targets = append(n.states[from].targets, to)
}

// fragment is a partially built NFA with one entry and one exit state.
type fragment struct {
	start, end int
}

// patternParser is a recursive-descent parser for the pattern subset.
type patternParser struct {
	src []rune
	pos int
	n   *nfa
}

// compilePattern compiles one token pattern into an NFA.
func compilePattern(pattern string) (*nfa, error) {
	p := &patternParser{src: []rune(pattern), n: &nfa{}}
	if len(p.src) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	frag, err := p.alternation()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	p.n.start = frag.start
	p.n.accept = frag.end
	return p.n, nil
}

// compileLiteral compiles an exact string into an NFA.
func compileLiteral(lit string) *nfa {
	n := &nfa{}
	cur := n.newState()
	n.start = cur
	for _, r := range lit {
		next := n.newState()
		n.addRange(cur, runeRange{r, r}, next)
		cur = next
	}
	n.accept = cur
	return n
}

func (p *patternParser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *patternParser) next() (rune, bool) {
	r, ok := p.peek()
	if ok {
		p.pos++
	}
	return r, ok
}

func (p *patternParser) alternation() (fragment, error) {
	frag, err := p.concat()
	if err != nil {
		return frag, err
	}
	for {
		r, ok := p.peek()
		if !ok || r != '|' {
			return frag, nil
		}
		p.pos++
		right, err := p.concat()
		if err != nil {
			return frag, err
		}
		start := p.n.newState()
		end := p.n.newState()
		p.n.addEpsilon(start, frag.start)
		p.n.addEpsilon(start, right.start)
		p.n.addEpsilon(frag.end, end)
		p.n.addEpsilon(right.end, end)
		frag = fragment{start, end}
	}
}

func (p *patternParser) concat() (fragment, error) {
	start := p.n.newState()
	frag := fragment{start, start}
	for {
		r, ok := p.peek()
		if !ok || r == '|' || r == ')' {
			return frag, nil
		}
		atom, err := p.repeat()
		if err != nil {
			return frag, err
		}
		p.n.addEpsilon(frag.end, atom.start)
		frag.end = atom.end
	}
}

func (p *patternParser) repeat() (fragment, error) {
	frag, err := p.atom()
	if err != nil {
		return frag, err
	}
	for {
		r, ok := p.peek()
		if !ok {
			return frag, nil
		}
		switch r {
		case '*':
			p.pos++
			start := p.n.newState()
			end := p.n.newState()
			p.n.addEpsilon(start, frag.start)
			p.n.addEpsilon(start, end)
			p.n.addEpsilon(frag.end, frag.start)
			p.n.addEpsilon(frag.end, end)
			frag = fragment{start, end}
		case '+':
			p.pos++
			end := p.n.newState()
			p.n.addEpsilon(frag.end, frag.start)
			p.n.addEpsilon(frag.end, end)
			frag = fragment{frag.start, end}
		case '?':
			p.pos++
			start := p.n.newState()
			end := p.n.newState()
			p.n.addEpsilon(start, frag.start)
			p.n.addEpsilon(start, end)
			p.n.addEpsilon(frag.end, end)
			frag = fragment{start, end}
		default:
			return frag, nil
		}
	}
}

func (p *patternParser) atom() (fragment, error) {
	r, ok := p.next()
	if !ok {
		return fragment{}, fmt.Errorf("unexpected end of pattern")
	}
	switch r {
	case '(':
		frag, err := p.alternation()
		if err != nil {
			return frag, err
		}
		if c, ok := p.next(); !ok || c != ')' {
			return frag, fmt.Errorf("unclosed group")
		}
		return frag, nil
	case '[':
		ranges, err := p.charClass()
		if err != nil {
			return fragment{}, err
		}
		return p.rangesFragment(ranges), nil
	case '.':
		return p.rangesFragment([]runeRange{{0, '\n' - 1}, {'\n' + 1, maxRune}}), nil
	case '\\':
		ranges, err := p.escape()
		if err != nil {
			return fragment{}, err
		}
		return p.rangesFragment(ranges), nil
	case '*', '+', '?', ')', ']', '|':
		return fragment{}, fmt.Errorf("unexpected %q at offset %d", r, p.pos-1)
	default:
		return p.rangesFragment([]runeRange{{r, r}}), nil
	}
}

func (p *patternParser) rangesFragment(ranges []runeRange) fragment {
	start := p.n.newState()
	end := p.n.newState()
	for _, rr := range ranges {
		p.n.addRange(start, rr, end)
	}
	return fragment{start, end}
}

// escape handles the character after a backslash: class shorthands and
// literal escapes.
func (p *patternParser) escape() ([]runeRange, error) {
	r, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("trailing backslash")
	}
	switch r {
	case 'n':
		return []runeRange{{'\n', '\n'}}, nil
	case 't':
		return []runeRange{{'\t', '\t'}}, nil
	case 'r':
		return []runeRange{{'\r', '\r'}}, nil
	case 'd':
		return []runeRange{{'0', '9'}}, nil
	case 'w':
		return []runeRange{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}, nil
	case 's':
		return []runeRange{{'\t', '\r'}, {' ', ' '}}, nil
	default:
		return []runeRange{{r, r}}, nil
	}
}

// charClass parses the body of a [...] class; the leading '[' has been
// consumed.
func (p *patternParser) charClass() ([]runeRange, error) {
	var ranges []runeRange
	negate := false
	if r, ok := p.peek(); ok && r == '^' {
		negate = true
		p.pos++
	}
	for {
		r, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("unclosed character class")
		}
		if r == ']' {
			if len(ranges) == 0 {
				return nil, fmt.Errorf("empty character class")
			}
			if negate {
				return negateRanges(ranges), nil
			}
			return ranges, nil
		}
		var lo rune
		if r == '\\' {
			esc, err := p.escape()
			if err != nil {
				return nil, err
			}
			if len(esc) > 1 {
				// Shorthand class inside a class; no range syntax follows.
				ranges = append(ranges, esc...)
				continue
			}
			lo = esc[0].lo
		} else {
			lo = r
		}
		hi := lo
		if c, ok := p.peek(); ok && c == '-' {
			// A '-' right before ']' is a literal dash.
			if c2 := p.pos + 1; c2 < len(p.src) && p.src[c2] != ']' {
				p.pos++
				r2, _ := p.next()
				if r2 == '\\' {
					esc, err := p.escape()
					if err != nil {
						return nil, err
					}
					r2 = esc[0].lo
				}
				if r2 < lo {
					return nil, fmt.Errorf("inverted range %q-%q", lo, r2)
				}
				hi = r2
			}
		}
		ranges = append(ranges, runeRange{lo, hi})
	}
}

// negateRanges complements a set of inclusive ranges over the full rune
// space.
func negateRanges(ranges []runeRange) []runeRange {
	sorted := normalizeRanges(ranges)
	var out []runeRange
	var next rune
	for _, rr := range sorted {
		if rr.lo > next {
			out = append(out, runeRange{next, rr.lo - 1})
		}
		if rr.hi == maxRune {
			return out
		}
		if rr.hi+1 > next {
			next = rr.hi + 1
		}
	}
	out = append(out, runeRange{next, maxRune})
	return out
}

// normalizeRanges sorts and merges overlapping ranges.
func normalizeRanges(ranges []runeRange) []runeRange {
	out := make([]runeRange, len(ranges))
	copy(out, ranges)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].lo < out[j-1].lo; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	merged := out[:0]
	for _, rr := range out {
		if len(merged) > 0 && rr.lo <= merged[len(merged)-1].hi+1 {
			if rr.hi > merged[len(merged)-1].hi {
				merged[len(merged)-1].hi = rr.hi
			}
			continue
		}
		merged = append(merged, rr)
	}
	return merged
}
