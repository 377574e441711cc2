package grammar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LexTransition is one DFA edge over an inclusive rune range.
type LexTransition struct {
	Lo, Hi rune
	Next   int
}

// LexState is one state of the combined lexer DFA. Accepts lists the
// token symbols recognized at this state, best first (higher declared
// precedence, then earlier declaration).
type LexState struct {
	Transitions []LexTransition
	Accepts     []Symbol
}

// LexTable is the compiled lexer DFA for every internal token of a
// grammar. State 0 is the start state.
type LexTable struct {
	States []LexState
}

// Step returns the successor state for a rune, or -1.
func (t *LexTable) Step(state int, r rune) int {
	trs := t.States[state].Transitions
	i := sort.Search(len(trs), func(i int) bool { return trs[i].Hi >= r })
	if i < len(trs) && trs[i].Lo <= r {
		return trs[i].Next
	}
	return -1
}

// buildLexTable compiles every internal token's literal or pattern into
// one NFA, then determinizes the union into a DFA with rune-range
// transitions.
func buildLexTable(g *Grammar) (*LexTable, error) {
	combined := &nfa{}
	start := combined.newState()
	acceptSymbol := map[int]Symbol{}

	for i, tok := range g.Tokens {
		if tok.External {
			continue
		}
		var sub *nfa
		if tok.Literal != "" {
			sub = compileLiteral(tok.Literal)
		} else {
			var err error
			sub, err = compilePattern(tok.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: token %q: %v", ErrInvalidGrammar, tok.Name, err)
			}
		}
		base := len(combined.states)
		for _, st := range sub.states {
			ns := nfaState{}
			for _, e := range st.epsilon {
				ns.epsilon = append(ns.epsilon, e+base)
			}
			ns.ranges = append(ns.ranges, st.ranges...)
			for _, t := range st.targets {
				ns.targets = append(ns.targets, t+base)
			}
			combined.states = append(combined.states, ns)
		}
		combined.addEpsilon(start, sub.start+base)
		acceptSymbol[sub.accept+base] = Symbol(i + 1)
	}

	return determinize(g, combined, start, acceptSymbol)
}

// closure computes the epsilon closure of a sorted state set.
func closure(n *nfa, set []int) []int {
	seen := map[int]bool{}
	stack := append([]int(nil), set...)
	for _, s := range set {
		seen[s] = true
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.states[s].epsilon {
			if !seen[e] {
				seen[e] = true
				stack = append(stack, e)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

func setKey(set []int) string {
	var b strings.Builder
	for i, s := range set {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

// determinize runs the subset construction over rune ranges.
func determinize(g *Grammar, n *nfa, start int, acceptSymbol map[int]Symbol) (*LexTable, error) {
	table := &LexTable{}
	ids := map[string]int{}

	addState := func(set []int) int {
		key := setKey(set)
		if id, ok := ids[key]; ok {
			return id
		}
		id := len(table.States)
		ids[key] = id
		table.States = append(table.States, LexState{Accepts: acceptsOf(g, set, acceptSymbol)})
		return id
	}

	startSet := closure(n, []int{start})
	addState(startSet)
	worklist := [][]int{startSet}

	for len(worklist) > 0 {
		set := worklist[0]
		worklist = worklist[1:]
		id := ids[setKey(set)]

		// Split the rune space at every boundary of every outgoing range.
		var points []rune
		for _, s := range set {
			for _, rr := range n.states[s].ranges {
				points = append(points, rr.lo, rr.hi+1)
			}
		}
		if len(points) == 0 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
		points = dedupeRunes(points)

		var transitions []LexTransition
		for i := 0; i+1 <= len(points); i++ {
			lo := points[i]
			var hi rune
			if i+1 < len(points) {
				hi = points[i+1] - 1
			} else {
				break
			}
			var move []int
			for _, s := range set {
				st := &n.states[s]
				for ri, rr := range st.ranges {
					if rr.lo <= lo && lo <= rr.hi {
						move = append(move, st.targets[ri])
					}
				}
			}
			if len(move) == 0 {
				continue
			}
			sort.Ints(move)
			move = dedupeInts(move)
			next := closure(n, move)
			key := setKey(next)
			nid, known := ids[key]
			if !known {
				nid = addState(next)
				worklist = append(worklist, next)
			}
			// Merge with the previous transition when contiguous and
			// same target.
			if k := len(transitions); k > 0 && transitions[k-1].Next == nid && transitions[k-1].Hi+1 == lo {
				transitions[k-1].Hi = hi
			} else {
				transitions = append(transitions, LexTransition{Lo: lo, Hi: hi, Next: nid})
			}
		}
		table.States[id].Transitions = transitions
	}
	return table, nil
}

// acceptsOf collects the token symbols accepted by a DFA state, ordered
// by declared precedence (descending) then declaration order.
func acceptsOf(g *Grammar, set []int, acceptSymbol map[int]Symbol) []Symbol {
	var syms []Symbol
	for _, s := range set {
		if sym, ok := acceptSymbol[s]; ok {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		pi, pj := g.Tokens[syms[i]-1].Prec, g.Tokens[syms[j]-1].Prec
		if pi != pj {
			return pi > pj
		}
		return syms[i] < syms[j]
	})
	return dedupeSymbols(syms)
}

func dedupeRunes(in []rune) []rune {
	out := in[:0]
	for i, r := range in {
		if i == 0 || r != in[i-1] {
			out = append(out, r)
		}
	}
	return out
}

func dedupeInts(in []int) []int {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func dedupeSymbols(in []Symbol) []Symbol {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}
