// Package grammar builds the immutable lexing and parsing tables that
// drive the sylva runtime. A grammar arrives as a versioned JSON blob
// (the output of external grammar tooling), is validated, and is
// compiled once into a Grammar value that is never mutated afterwards,
// so it can be shared by any number of concurrent parsers and queries.
package grammar

import (
	"fmt"
	"strings"
)

// Symbol identifies one grammar symbol. Symbol 0 is the end-of-input
// marker, terminals follow in token declaration order, then
// nonterminals in rule declaration order.
type Symbol uint16

const (
	// SymbolEnd is the end-of-input terminal.
	SymbolEnd Symbol = 0

	// SymbolError is the well-known symbol for ERROR nodes produced by
	// recovery. It never appears in grammar tables.
	SymbolError Symbol = 0xFFFE
)

// FieldID identifies a field name within a grammar. 0 means "no field".
type FieldID uint16

// StateID identifies one parser state.
type StateID uint16

// Assoc is the associativity of a production, used to resolve
// shift/reduce conflicts at table-construction time.
type Assoc int

const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
)

// String returns the string representation of an Assoc.
func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return "none"
	}
}

// TokenDef describes one terminal symbol. Exactly one of Literal and
// Pattern is set for internal tokens; external tokens have neither and
// are recognized by a host-registered scanner.
type TokenDef struct {
	Name     string
	Literal  string
	Pattern  string
	Named    bool
	Prec     int
	Skip     bool
	Extra    bool
	External bool
}

// Production is one BNF production. Fields runs parallel to Symbols;
// a zero FieldID marks an unnamed slot.
type Production struct {
	Head    Symbol
	Symbols []Symbol
	Fields  []FieldID
	Prec    int
	Assoc   Assoc
}

// Grammar is a fully compiled language: symbol tables, the lexer DFA,
// and the SLR parse tables. Immutable after Compile.
type Grammar struct {
	Name  string
	Start Symbol

	// Tokens[i] defines terminal Symbol(i+1).
	Tokens []TokenDef

	// NonterminalNames[i] names Symbol(1+len(Tokens)+i).
	NonterminalNames []string

	Productions []Production

	// FieldNames[i] names FieldID(i+1).
	FieldNames []string

	Lex   *LexTable
	Parse *ParseTable
}

// SymbolCount returns the number of real grammar symbols (terminals
// plus nonterminals plus the end marker).
func (g *Grammar) SymbolCount() int {
	return 1 + len(g.Tokens) + len(g.NonterminalNames)
}

// IsTerminal reports whether s is a terminal (including the end marker).
func (g *Grammar) IsTerminal(s Symbol) bool {
	return s <= Symbol(len(g.Tokens))
}

// TokenDef returns the token definition for a terminal symbol, or nil.
func (g *Grammar) TokenDef(s Symbol) *TokenDef {
	if s == SymbolEnd || !g.IsTerminal(s) {
		return nil
	}
	return &g.Tokens[s-1]
}

// SymbolName returns the declared name of a symbol.
func (g *Grammar) SymbolName(s Symbol) string {
	switch {
	case s == SymbolEnd:
		return "end"
	case s == SymbolError:
		return "ERROR"
	case g.IsTerminal(s):
		return g.Tokens[s-1].Name
	default:
		i := int(s) - 1 - len(g.Tokens)
		if i < len(g.NonterminalNames) {
			return g.NonterminalNames[i]
		}
		return fmt.Sprintf("symbol(%d)", s)
	}
}

// SymbolNamed reports whether nodes of this symbol are named nodes.
// Nonterminals are named unless hidden; terminals follow their token
// definition.
func (g *Grammar) SymbolNamed(s Symbol) bool {
	switch {
	case s == SymbolError:
		return true
	case s == SymbolEnd:
		return false
	case g.IsTerminal(s):
		return g.Tokens[s-1].Named
	default:
		return !g.SymbolHidden(s)
	}
}

// SymbolHidden reports whether a nonterminal is hidden (its name starts
// with an underscore). Hidden nodes are spliced into their parent and
// never appear in trees.
func (g *Grammar) SymbolHidden(s Symbol) bool {
	return strings.HasPrefix(g.SymbolName(s), "_")
}

// SymbolForName resolves a declared symbol name. The end marker and
// ERROR are addressable as "end" and "ERROR".
func (g *Grammar) SymbolForName(name string) (Symbol, bool) {
	if name == "ERROR" {
		return SymbolError, true
	}
	if name == "end" {
		return SymbolEnd, true
	}
	for i, t := range g.Tokens {
		if t.Name == name {
			return Symbol(i + 1), true
		}
	}
	for i, n := range g.NonterminalNames {
		if n == name {
			return Symbol(1 + len(g.Tokens) + i), true
		}
	}
	return 0, false
}

// FieldName returns the name for a field id, or "" for FieldID 0.
func (g *Grammar) FieldName(id FieldID) string {
	if id == 0 || int(id) > len(g.FieldNames) {
		return ""
	}
	return g.FieldNames[id-1]
}

// FieldIDForName resolves a field name to its id.
func (g *Grammar) FieldIDForName(name string) (FieldID, bool) {
	for i, n := range g.FieldNames {
		if n == name {
			return FieldID(i + 1), true
		}
	}
	return 0, false
}

// FieldAt returns the field id for a child slot of a production.
// productionID is the 1-based id stored on interior nodes.
func (g *Grammar) FieldAt(productionID uint16, slot int) FieldID {
	if productionID == 0 || int(productionID) > len(g.Productions) {
		return 0
	}
	p := &g.Productions[productionID-1]
	if slot < 0 || slot >= len(p.Fields) {
		return 0
	}
	return p.Fields[slot]
}

// ExternalTokens returns the symbols of all external tokens in
// declaration order.
func (g *Grammar) ExternalTokens() []Symbol {
	var syms []Symbol
	for i, t := range g.Tokens {
		if t.External {
			syms = append(syms, Symbol(i+1))
		}
	}
	return syms
}
