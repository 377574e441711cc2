package sylva

import (
	"context"
	"fmt"

	"github.com/sylva-dev/sylva/internal/grammar"
)

// cancelCheckInterval is how many lexer rune advances pass between
// context cancellation checks during a parse.
const cancelCheckInterval = 1024

// maxMissingInsertions bounds how many zero-width MISSING tokens error
// recovery may fabricate in one parse.
const maxMissingInsertions = 32

// Parser is a table-driven shift/reduce parsing engine for one
// Language. A Parser is cheap and reusable but not safe for concurrent
// use; use a ParserPool to share parsers across goroutines.
type Parser struct {
	lang *Language
}

// NewParser returns a parser for the given language.
func NewParser(lang *Language) *Parser {
	return &Parser{lang: lang}
}

// SetLanguage switches the parser to a different language.
func (p *Parser) SetLanguage(lang *Language) { p.lang = lang }

// Language returns the parser's current language.
func (p *Parser) Language() *Language { return p.lang }

// Parse parses source from scratch, or incrementally against oldTree
// when one is given (oldTree must carry the edits describing how its
// source became this source; see Tree.WithEdit).
func (p *Parser) Parse(source []byte, oldTree *Tree) (*Tree, error) {
	return p.ParseCtx(context.Background(), source, oldTree)
}

// ParseWithEdits applies edits to oldTree and reparses in one step.
func (p *Parser) ParseWithEdits(ctx context.Context, source []byte, oldTree *Tree, edits []Edit) (*Tree, error) {
	if oldTree != nil {
		for _, e := range edits {
			var err error
			oldTree, err = oldTree.WithEdit(e)
			if err != nil {
				return nil, err
			}
		}
	}
	return p.ParseCtx(ctx, source, oldTree)
}

// stackFrame pairs a parser state with the subtree that carried the
// automaton into that state. Extra tokens and ERROR nodes ride the
// stack as uncounted frames: they keep the surrounding state and are
// folded into whatever node encloses them at reduce time.
type stackFrame struct {
	state     grammar.StateID
	node      *subtree
	uncounted bool
}

// parseRun is the per-call state of one parse.
type parseRun struct {
	p         *Parser
	g         *grammar.Grammar
	lx        *lexer
	stack     []stackFrame
	reuse     *reuseCursor
	lookahead token
	haveLA    bool

	missingBudget int
	lastCheck     int
}

// ParseCtx parses source, checking ctx at bounded intervals; a
// cancelled parse discards all partial results. The returned tree
// always spans the entire source, possibly containing ERROR nodes;
// malformed input is never a failure.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, oldTree *Tree) (*Tree, error) {
	if p.lang == nil {
		return nil, ErrNoLanguage
	}
	run := &parseRun{
		p:             p,
		g:             p.lang.g,
		lx:            newLexer(p.lang, source),
		stack:         []stackFrame{{state: 0}},
		missingBudget: maxMissingInsertions,
	}
	if oldTree != nil && oldTree.lang == p.lang {
		run.reuse = newReuseCursor(oldTree.root)
	}
	root, err := run.parse(ctx)
	if err != nil {
		return nil, err
	}
	return &Tree{lang: p.lang, root: root, source: source}, nil
}

func (r *parseRun) state() grammar.StateID {
	return r.stack[len(r.stack)-1].state
}

func (r *parseRun) parse(ctx context.Context) (*subtree, error) {
	reducesSinceShift := 0
	for {
		if r.lx.advances-r.lastCheck >= cancelCheckInterval {
			r.lastCheck = r.lx.advances
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		state := r.state()

		// Try splicing a subtree from the old tree before consuming the
		// next token. An already-lexed lookahead is simply un-lexed when
		// a larger subtree covers it.
		if r.reuse != nil {
			at := r.lx.pos.bytes
			if r.haveLA {
				at = r.lookahead.paddedStart.bytes
			}
			if r.trySpliceReuse(state, at) {
				r.haveLA = false
				reducesSinceShift = 0
				continue
			}
		}

		if !r.haveLA {
			r.lookahead = r.lx.next(r.g.Parse.ValidTokens[state])
			r.haveLA = true
		}

		la := r.lookahead

		if la.extra {
			leaf := newLeaf(la.sym, r.g.SymbolNamed(la.sym), la.padding, la.size, state)
			leaf.flags |= flagExtra
			r.stack = append(r.stack, stackFrame{state: state, node: leaf, uncounted: true})
			r.haveLA = false
			reducesSinceShift = 0
			continue
		}

		var act grammar.Action
		var ok bool
		if !la.invalidByte {
			act, ok = r.g.Parse.ActionFor(state, la.sym)
		}
		// A reduce cascade that never consumes input means the tables
		// are stuck in a unit-production cycle; treat it as an error so
		// the parse still terminates.
		if ok && act.Type == grammar.ActionReduce &&
			reducesSinceShift > len(r.stack)+len(r.g.Productions)+8 {
			ok = false
		}
		if !ok {
			if done := r.recover(); done {
				return r.buildRoot(), nil
			}
			reducesSinceShift = 0
			continue
		}

		switch act.Type {
		case grammar.ActionShift:
			leaf := newLeaf(la.sym, r.g.SymbolNamed(la.sym), la.padding, la.size, state)
			r.stack = append(r.stack, stackFrame{state: act.State, node: leaf})
			r.haveLA = false
			reducesSinceShift = 0

		case grammar.ActionReduce:
			r.reduce(act.Production)
			reducesSinceShift++

		case grammar.ActionAccept:
			return r.buildRoot(), nil

		default:
			return nil, fmt.Errorf("internal: bad action in state %d", state)
		}
	}
}

// reduce pops the production's frames, splices hidden nodes, resolves
// fields, and pushes the new node through the goto table.
func (r *parseRun) reduce(prodIndex int) {
	prod := &r.g.Productions[prodIndex]
	want := len(prod.Symbols)

	var popped []stackFrame
	counted := 0
	for counted < want {
		fr := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		popped = append(popped, fr)
		if !fr.uncounted {
			counted++
		}
	}
	// popped is in reverse order; walk it back to front, tracking the
	// production slot of each counted frame and splicing hidden nodes.
	var children []*subtree
	var fields []grammar.FieldID
	slotIdx := 0
	for i := len(popped) - 1; i >= 0; i-- {
		fr := popped[i]
		if fr.uncounted {
			children = append(children, fr.node)
			fields = append(fields, 0)
			continue
		}
		f := prod.Fields[slotIdx]
		slotIdx++
		n := fr.node
		if !r.g.IsTerminal(n.kind) && r.g.SymbolHidden(n.kind) {
			for ci, c := range n.children {
				children = append(children, c)
				cf := grammar.FieldID(0)
				if n.fields != nil {
					cf = n.fields[ci]
				}
				if cf == 0 && f != 0 {
					cf = f
				}
				fields = append(fields, cf)
			}
			continue
		}
		children = append(children, n)
		fields = append(fields, f)
	}

	state := r.state()
	node := newInterior(prod.Head, uint16(prodIndex+1), r.g.SymbolNamed(prod.Head), children, state)
	node.fields = compactFields(fields)

	next, ok := r.g.Parse.GotoFor(state, prod.Head)
	if !ok {
		// No goto can only happen for recovery-corrupted stacks; keep
		// the state so the parse still makes progress.
		next = state
	}
	r.stack = append(r.stack, stackFrame{state: next, node: node})
}

// compactFields returns nil when no child carries a field.
func compactFields(fields []grammar.FieldID) []grammar.FieldID {
	for _, f := range fields {
		if f != 0 {
			out := make([]grammar.FieldID, len(fields))
			copy(out, fields)
			return out
		}
	}
	return nil
}

// trySpliceReuse feeds a reusable subtree from the old tree to the
// automaton instead of re-lexing its bytes. A subtree qualifies when
// it starts exactly at the lexer position, was not invalidated by any
// edit, holds no errors, began in the current parse state, and, for an
// interior node, the leaf that follows it was not invalidated either
// (that leaf was the lookahead for the node's closing reductions; a
// terminal splice is a plain shift with no lookahead dependency).
func (r *parseRun) trySpliceReuse(state grammar.StateID, at uint32) bool {
	for {
		cand, start := r.reuse.candidateAt(at)
		if cand == nil {
			return false
		}
		if cand.changed() || cand.hasError() || cand.missing() {
			// The node itself is invalid; its children may be intact.
			if !r.breakDown() {
				return false
			}
			continue
		}
		if !r.g.IsTerminal(cand.kind) {
			if next := r.reuse.peekNextLeaf(); next != nil && next.changed() {
				if !r.breakDown() {
					return false
				}
				continue
			}
		}
		if cand.parseState != state && !cand.extra() {
			// Reductions still pending on the stack may yet bring the
			// automaton to the state the candidate needs; keep the
			// candidate for the retry after they run.
			return false
		}
		next, ok := r.spliceState(state, cand)
		if !ok {
			return false
		}
		r.stack = append(r.stack, stackFrame{state: next, node: cand, uncounted: cand.extra()})
		r.lx.resetTo(start.advance(cand.total()))
		r.reuse.skip()
		return true
	}
}

// breakDown moves the reuse cursor into the current candidate's
// children, or past it when it has none, and reports whether any
// candidates remain.
func (r *parseRun) breakDown() bool {
	if !r.reuse.descend() {
		r.reuse.skip()
	}
	return !r.reuse.exhausted()
}

// spliceState returns the state entered after feeding s to the
// automaton as one pre-built node.
func (r *parseRun) spliceState(state grammar.StateID, s *subtree) (grammar.StateID, bool) {
	if s.extra() {
		return state, true
	}
	if r.g.IsTerminal(s.kind) {
		act, ok := r.g.Parse.ActionFor(state, s.kind)
		if !ok || act.Type != grammar.ActionShift {
			return 0, false
		}
		return act.State, true
	}
	return r.g.Parse.GotoFor(state, s.kind)
}

// recover is entered when no action exists for the lookahead. It
// discards tokens and unwinds stack frames into an ERROR node: for
// each count of discarded tokens, stack states are searched from the
// innermost outward, and the first state with a valid action on the
// remaining lookahead wins. At end of input it first tries to insert
// zero-width MISSING tokens that let the parse finish. recover reports
// true when the parse is complete and buildRoot should run.
func (r *parseRun) recover() bool {
	var discarded []*subtree

	for {
		la := r.lookahead

		if !la.invalidByte && la.sym == grammar.SymbolEnd {
			if len(discarded) == 0 && r.insertMissing() {
				return false
			}
			// Fold everything unfinished into an ERROR and stop.
			r.wrapRemaining(discarded)
			return true
		}

		if !la.invalidByte {
			for i := len(r.stack) - 1; i >= 0; i-- {
				if _, ok := r.g.Parse.ActionFor(r.stack[i].state, la.sym); ok {
					r.unwindTo(i, discarded)
					return false
				}
			}
		}

		// Discard the lookahead and keep searching.
		named := !la.invalidByte && r.g.SymbolNamed(la.sym)
		var leaf *subtree
		if la.invalidByte {
			leaf = newErrorLeaf(false, la.padding, la.size, r.state())
		} else {
			leaf = newLeaf(la.sym, named, la.padding, la.size, r.state())
		}
		discarded = append(discarded, leaf)
		r.lookahead = r.lx.next(allTerminals(r.g))
		r.haveLA = true
	}
}

// insertMissing fabricates a zero-width token that lets parsing finish
// at end of input. Candidate terminals are ranked by how many further
// insertions they would need to reach an accepting parse, found by a
// bounded dry run of the tables, so the closing token a human forgot
// wins over tokens that merely keep the parse alive. The lowest
// symbol id breaks ties for determinism.
func (r *parseRun) insertMissing() bool {
	if r.missingBudget <= 0 {
		return false
	}
	state := r.state()
	maxDepth := r.missingBudget - 1
	if maxDepth > 4 {
		maxDepth = 4
	}
	states := r.simStates()
	for depth := 0; depth <= maxDepth; depth++ {
		for _, sym := range r.g.Parse.ValidTokens[state] {
			if sym == grammar.SymbolEnd {
				continue
			}
			act, ok := r.g.Parse.ActionFor(state, sym)
			if !ok || act.Type != grammar.ActionShift {
				continue
			}
			if r.canFinish(append(append([]grammar.StateID(nil), states...), act.State), depth) {
				r.pushMissing(sym, act.State)
				return true
			}
		}
	}
	return false
}

// simStates is the stack's state sequence without uncounted frames,
// which replicate the state below them and so are invisible to a
// states-only dry run.
func (r *parseRun) simStates() []grammar.StateID {
	states := make([]grammar.StateID, 0, len(r.stack))
	for _, fr := range r.stack {
		if fr.uncounted {
			continue
		}
		states = append(states, fr.state)
	}
	return states
}

// canFinish dry-runs the tables on end-of-input from the given state
// stack, fabricating up to depth further tokens when stuck, and
// reports whether an accept is reachable.
func (r *parseRun) canFinish(states []grammar.StateID, depth int) bool {
	for steps := 0; steps < 256; steps++ {
		top := states[len(states)-1]
		act, ok := r.g.Parse.ActionFor(top, grammar.SymbolEnd)
		if ok {
			switch act.Type {
			case grammar.ActionAccept:
				return true
			case grammar.ActionReduce:
				prod := &r.g.Productions[act.Production]
				n := len(prod.Symbols)
				if len(states) <= n {
					return false
				}
				states = states[:len(states)-n]
				next, ok := r.g.Parse.GotoFor(states[len(states)-1], prod.Head)
				if !ok {
					return false
				}
				states = append(states, next)
				continue
			}
			return false
		}
		if depth == 0 {
			return false
		}
		for _, sym := range r.g.Parse.ValidTokens[top] {
			if sym == grammar.SymbolEnd {
				continue
			}
			a, ok := r.g.Parse.ActionFor(top, sym)
			if !ok || a.Type != grammar.ActionShift {
				continue
			}
			if r.canFinish(append(append([]grammar.StateID(nil), states...), a.State), depth-1) {
				return true
			}
		}
		return false
	}
	return false
}

func (r *parseRun) pushMissing(sym grammar.Symbol, next grammar.StateID) {
	r.missingBudget--
	leaf := newMissingLeaf(sym, r.g.SymbolNamed(sym), r.state())
	r.stack = append(r.stack, stackFrame{state: next, node: leaf})
}

// unwindTo pops every frame above stack index i and wraps the popped
// nodes plus the discarded tokens in an ERROR node, pushed as an
// uncounted frame so it becomes a child of whatever encloses it.
func (r *parseRun) unwindTo(i int, discarded []*subtree) {
	var errChildren []*subtree
	for _, fr := range r.stack[i+1:] {
		errChildren = append(errChildren, flattenHidden(r.g, fr.node)...)
	}
	r.stack = r.stack[:i+1]
	errChildren = append(errChildren, discarded...)
	if len(errChildren) == 0 {
		// Nothing consumed; discard-free unwind would not progress, so
		// force the lookahead into the error instead.
		return
	}
	errNode := newErrorNode(errChildren, r.stack[i].state)
	r.stack = append(r.stack, stackFrame{state: r.stack[i].state, node: errNode, uncounted: true})
}

// wrapRemaining folds the whole stack plus trailing discards into one
// ERROR node above the base frame.
func (r *parseRun) wrapRemaining(discarded []*subtree) {
	var errChildren []*subtree
	for _, fr := range r.stack[1:] {
		errChildren = append(errChildren, flattenHidden(r.g, fr.node)...)
	}
	r.stack = r.stack[:1]
	errChildren = append(errChildren, discarded...)
	if len(errChildren) == 0 {
		return
	}
	errNode := newErrorNode(errChildren, 0)
	r.stack = append(r.stack, stackFrame{state: 0, node: errNode, uncounted: true})
}

// flattenHidden splices a hidden node into its children.
func flattenHidden(g *grammar.Grammar, s *subtree) []*subtree {
	if s == nil {
		return nil
	}
	if !g.IsTerminal(s.kind) && s.kind != grammar.SymbolError && g.SymbolHidden(s.kind) {
		return s.children
	}
	return []*subtree{s}
}

// buildRoot assembles the final root node from whatever remains on the
// stack: the accepted start node plus any extras or ERROR wrappers
// around it, which become additional root children.
func (r *parseRun) buildRoot() *subtree {
	return r.extendTrailing(r.assembleRoot())
}

// extendTrailing folds skipped content at end of input (the padding of
// the end-of-input token) into the root's size, so the root always
// covers the whole source.
func (r *parseRun) extendTrailing(root *subtree) *subtree {
	if !r.haveLA || r.lookahead.invalidByte || r.lookahead.sym != grammar.SymbolEnd {
		return root
	}
	pad := r.lookahead.padding
	if pad == (length{}) {
		return root
	}
	clone := *root
	clone.size = clone.size.add(pad)
	return &clone
}

func (r *parseRun) assembleRoot() *subtree {
	var rootNode *subtree
	var before, after []*subtree
	for _, fr := range r.stack[1:] {
		switch {
		case fr.node == nil:
		case !fr.uncounted && fr.node.kind != grammar.SymbolError:
			rootNode = fr.node
		case rootNode == nil:
			before = append(before, fr.node)
		default:
			after = append(after, fr.node)
		}
	}
	if rootNode == nil {
		// The whole input was one big error (or empty with stray
		// extras): synthesize a root of the start symbol.
		children := append(before, after...)
		return newInterior(r.g.Start, 0, true, children, 0)
	}
	if len(before) == 0 && len(after) == 0 {
		return rootNode
	}
	children := make([]*subtree, 0, len(before)+len(rootNode.children)+len(after))
	children = append(children, before...)
	children = append(children, rootNode.children...)
	children = append(children, after...)
	merged := newInterior(rootNode.kind, rootNode.prodID, rootNode.named(), children, rootNode.parseState)
	if rootNode.fields != nil {
		fields := make([]grammar.FieldID, len(children))
		copy(fields[len(before):], rootNode.fields)
		merged.fields = fields
	}
	return merged
}

// allTerminals returns every terminal symbol, used while discarding
// tokens in recovery where no parse state restricts the lexer.
func allTerminals(g *grammar.Grammar) []grammar.Symbol {
	syms := make([]grammar.Symbol, 0, len(g.Tokens))
	for i := range g.Tokens {
		syms = append(syms, grammar.Symbol(i+1))
	}
	return syms
}
