package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrGrammarConflict is returned when the SLR construction hits a
// conflict that declared precedence/associativity does not resolve.
// This is a defect in the supplied grammar, reported at load time.
var ErrGrammarConflict = errors.New("grammar conflict")

// ActionType discriminates parser actions.
type ActionType uint8

const (
	ActionNone ActionType = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one entry of the parse action table.
type Action struct {
	Type       ActionType
	State      StateID // shift target
	Production int     // reduce production index
}

// ParseTable holds the SLR(1) action and goto tables plus, per state,
// the set of terminals the lexer should consider valid there.
type ParseTable struct {
	Actions []map[Symbol]Action
	Gotos   []map[Symbol]StateID

	// ValidTokens[s] lists the terminals with any action in state s, in
	// ascending symbol order. The lexer uses it to pick context-valid
	// tokens.
	ValidTokens [][]Symbol
}

// ActionFor returns the action for a terminal in a state.
func (t *ParseTable) ActionFor(state StateID, sym Symbol) (Action, bool) {
	a, ok := t.Actions[state][sym]
	return a, ok
}

// GotoFor returns the goto state for a nonterminal in a state.
func (t *ParseTable) GotoFor(state StateID, sym Symbol) (StateID, bool) {
	s, ok := t.Gotos[state][sym]
	return s, ok
}

// item is an LR(0) item: a production index and a dot position.
// Production index -1 is the augmented start production S' -> start.
type item struct {
	prod int
	dot  int
}

type itemSet []item

func (s itemSet) key() string {
	var b strings.Builder
	for i, it := range s {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(it.prod))
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(it.dot))
	}
	return b.String()
}

func sortItems(s itemSet) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].prod != s[j].prod {
			return s[i].prod < s[j].prod
		}
		return s[i].dot < s[j].dot
	})
}

// tableBuilder carries the intermediate sets of the SLR construction.
type tableBuilder struct {
	g        *Grammar
	nullable map[Symbol]bool
	first    map[Symbol]map[Symbol]bool
	follow   map[Symbol]map[Symbol]bool
}

// buildParseTable runs the SLR(1) construction: LR(0) item sets with
// FOLLOW-restricted reductions, conflicts resolved by declared
// precedence and associativity.
func buildParseTable(g *Grammar) (*ParseTable, error) {
	b := &tableBuilder{g: g}
	b.computeNullable()
	b.computeFirst()
	b.computeFollow()

	// Build the LR(0) collection.
	startSet := b.closure(itemSet{{prod: -1, dot: 0}})
	sets := []itemSet{startSet}
	ids := map[string]StateID{startSet.key(): 0}

	table := &ParseTable{
		Actions: []map[Symbol]Action{{}},
		Gotos:   []map[Symbol]StateID{{}},
	}

	for si := 0; si < len(sets); si++ {
		set := sets[si]

		// Group items by the symbol after the dot, in symbol order.
		bySym := map[Symbol]itemSet{}
		var order []Symbol
		for _, it := range set {
			sym, ok := b.symbolAfterDot(it)
			if !ok {
				continue
			}
			if _, seen := bySym[sym]; !seen {
				order = append(order, sym)
			}
			bySym[sym] = append(bySym[sym], item{prod: it.prod, dot: it.dot + 1})
		}
		sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

		for _, sym := range order {
			kernel := bySym[sym]
			next := b.closure(kernel)
			key := next.key()
			nid, known := ids[key]
			if !known {
				nid = StateID(len(sets))
				ids[key] = nid
				sets = append(sets, next)
				table.Actions = append(table.Actions, map[Symbol]Action{})
				table.Gotos = append(table.Gotos, map[Symbol]StateID{})
			}
			if g.IsTerminal(sym) {
				if err := b.addAction(table, StateID(si), sym,
					Action{Type: ActionShift, State: nid}); err != nil {
					return nil, err
				}
			} else {
				table.Gotos[si][sym] = nid
			}
		}

		// Reductions for completed items.
		for _, it := range set {
			if _, ok := b.symbolAfterDot(it); ok {
				continue
			}
			if it.prod == -1 {
				if err := b.addAction(table, StateID(si), SymbolEnd,
					Action{Type: ActionAccept}); err != nil {
					return nil, err
				}
				continue
			}
			head := g.Productions[it.prod].Head
			for _, la := range b.sortedFollow(head) {
				if err := b.addAction(table, StateID(si), la,
					Action{Type: ActionReduce, Production: it.prod}); err != nil {
					return nil, err
				}
			}
		}
	}

	table.ValidTokens = make([][]Symbol, len(table.Actions))
	for si, acts := range table.Actions {
		toks := make([]Symbol, 0, len(acts))
		for sym := range acts {
			toks = append(toks, sym)
		}
		sort.Slice(toks, func(i, j int) bool { return toks[i] < toks[j] })
		table.ValidTokens[si] = toks
	}
	return table, nil
}

func (b *tableBuilder) symbolAfterDot(it item) (Symbol, bool) {
	if it.prod == -1 {
		if it.dot == 0 {
			return b.g.Start, true
		}
		return 0, false
	}
	p := &b.g.Productions[it.prod]
	if it.dot < len(p.Symbols) {
		return p.Symbols[it.dot], true
	}
	return 0, false
}

// closure expands an item set with items for every nonterminal after a
// dot, and returns a canonically sorted set.
func (b *tableBuilder) closure(kernel itemSet) itemSet {
	set := append(itemSet(nil), kernel...)
	seen := map[item]bool{}
	for _, it := range set {
		seen[it] = true
	}
	for i := 0; i < len(set); i++ {
		sym, ok := b.symbolAfterDot(set[i])
		if !ok || b.g.IsTerminal(sym) {
			continue
		}
		for pi := range b.g.Productions {
			if b.g.Productions[pi].Head != sym {
				continue
			}
			it := item{prod: pi, dot: 0}
			if !seen[it] {
				seen[it] = true
				set = append(set, it)
			}
		}
	}
	sortItems(set)
	return set
}

// addAction installs an action, resolving conflicts by precedence.
func (b *tableBuilder) addAction(t *ParseTable, state StateID, sym Symbol, act Action) error {
	existing, ok := t.Actions[state][sym]
	if !ok {
		t.Actions[state][sym] = act
		return nil
	}
	if existing == act {
		return nil
	}
	resolved, err := b.resolve(state, sym, existing, act)
	if err != nil {
		return err
	}
	t.Actions[state][sym] = resolved
	return nil
}

func (b *tableBuilder) resolve(state StateID, sym Symbol, a, c Action) (Action, error) {
	// Normalize so that shift, if present, is first.
	if a.Type == ActionReduce && c.Type == ActionShift {
		a, c = c, a
	}
	switch {
	case a.Type == ActionShift && c.Type == ActionReduce:
		tokPrec := 0
		if td := b.g.TokenDef(sym); td != nil {
			tokPrec = td.Prec
		}
		prod := &b.g.Productions[c.Production]
		switch {
		case prod.Prec > tokPrec:
			return c, nil
		case prod.Prec < tokPrec:
			return a, nil
		case prod.Assoc == AssocLeft:
			return c, nil
		case prod.Assoc == AssocRight:
			return a, nil
		}
		return Action{}, fmt.Errorf(
			"%w: shift/reduce on %q in state %d (rule %q)", ErrGrammarConflict,
			b.g.SymbolName(sym), state, b.g.SymbolName(prod.Head))
	case a.Type == ActionReduce && c.Type == ActionReduce:
		pa, pc := &b.g.Productions[a.Production], &b.g.Productions[c.Production]
		switch {
		case pa.Prec > pc.Prec:
			return a, nil
		case pc.Prec > pa.Prec:
			return c, nil
		}
		return Action{}, fmt.Errorf(
			"%w: reduce/reduce on %q in state %d (rules %q, %q)", ErrGrammarConflict,
			b.g.SymbolName(sym), state, b.g.SymbolName(pa.Head), b.g.SymbolName(pc.Head))
	default:
		return Action{}, fmt.Errorf(
			"%w: conflicting actions on %q in state %d", ErrGrammarConflict,
			b.g.SymbolName(sym), state)
	}
}

func (b *tableBuilder) computeNullable() {
	b.nullable = map[Symbol]bool{}
	for changed := true; changed; {
		changed = false
		for i := range b.g.Productions {
			p := &b.g.Productions[i]
			if b.nullable[p.Head] {
				continue
			}
			all := true
			for _, s := range p.Symbols {
				if !b.nullable[s] {
					all = false
					break
				}
			}
			if all {
				b.nullable[p.Head] = true
				changed = true
			}
		}
	}
}

func (b *tableBuilder) computeFirst() {
	b.first = map[Symbol]map[Symbol]bool{}
	add := func(s Symbol) map[Symbol]bool {
		m, ok := b.first[s]
		if !ok {
			m = map[Symbol]bool{}
			b.first[s] = m
		}
		return m
	}
	for s := Symbol(1); int(s) <= len(b.g.Tokens); s++ {
		add(s)[s] = true
	}
	for changed := true; changed; {
		changed = false
		for i := range b.g.Productions {
			p := &b.g.Productions[i]
			dst := add(p.Head)
			for _, s := range p.Symbols {
				for f := range add(s) {
					if !dst[f] {
						dst[f] = true
						changed = true
					}
				}
				if !b.nullable[s] {
					break
				}
			}
		}
	}
}

func (b *tableBuilder) computeFollow() {
	b.follow = map[Symbol]map[Symbol]bool{}
	add := func(s Symbol) map[Symbol]bool {
		m, ok := b.follow[s]
		if !ok {
			m = map[Symbol]bool{}
			b.follow[s] = m
		}
		return m
	}
	add(b.g.Start)[SymbolEnd] = true
	for changed := true; changed; {
		changed = false
		for i := range b.g.Productions {
			p := &b.g.Productions[i]
			for j, s := range p.Symbols {
				if b.g.IsTerminal(s) {
					continue
				}
				dst := add(s)
				// FIRST of what follows s.
				tailNullable := true
				for _, s2 := range p.Symbols[j+1:] {
					for f := range b.first[s2] {
						if !dst[f] {
							dst[f] = true
							changed = true
						}
					}
					if !b.nullable[s2] {
						tailNullable = false
						break
					}
				}
				if tailNullable {
					for f := range add(p.Head) {
						if !dst[f] {
							dst[f] = true
							changed = true
						}
					}
				}
			}
		}
	}
}

func (b *tableBuilder) sortedFollow(s Symbol) []Symbol {
	set := b.follow[s]
	out := make([]Symbol, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
