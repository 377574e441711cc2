package grammar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// FormatVersion is the grammar blob format this engine understands.
const FormatVersion = 1

// ErrFormatVersion is returned when a blob was produced for a
// different table format than this engine consumes.
var ErrFormatVersion = errors.New("incompatible grammar format version")

// ErrInvalidGrammar is the base error for structurally invalid blobs.
var ErrInvalidGrammar = errors.New("invalid grammar")

// blobToken is the wire form of one token definition.
type blobToken struct {
	Name     string `json:"name"`
	Literal  string `json:"literal,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
	Named    bool   `json:"named,omitempty"`
	Prec     int    `json:"prec,omitempty"`
	Skip     bool   `json:"skip,omitempty"`
	Extra    bool   `json:"extra,omitempty"`
	External bool   `json:"external,omitempty"`
}

// blobProduction is the wire form of one production body.
type blobProduction struct {
	Symbols []string          `json:"symbols"`
	Fields  map[string]string `json:"fields,omitempty"` // slot index -> field name
	Prec    int               `json:"prec,omitempty"`
	Assoc   string            `json:"assoc,omitempty"`
}

// blobRule groups the productions of one nonterminal.
type blobRule struct {
	Name        string           `json:"name"`
	Productions []blobProduction `json:"productions"`
}

// blob is the top-level wire form of a compiled grammar.
type blob struct {
	Format int         `json:"format"`
	Name   string      `json:"name"`
	Start  string      `json:"start"`
	Tokens []blobToken `json:"tokens"`
	Rules  []blobRule  `json:"rules"`
}

// Load decodes and compiles a grammar blob. The format version is
// checked before anything else; a mismatch is reported as
// ErrFormatVersion so callers can distinguish it from a malformed blob.
func Load(data []byte) (*Grammar, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrammar, err)
	}
	if b.Format != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, engine supports %d",
			ErrFormatVersion, b.Format, FormatVersion)
	}
	if b.Name == "" {
		return nil, fmt.Errorf("%w: missing grammar name", ErrInvalidGrammar)
	}
	if len(b.Rules) == 0 {
		return nil, fmt.Errorf("%w: grammar %q has no rules", ErrInvalidGrammar, b.Name)
	}

	g := &Grammar{Name: b.Name}

	seen := map[string]bool{"end": true, "ERROR": true}
	for _, t := range b.Tokens {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: token with empty name", ErrInvalidGrammar)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrInvalidGrammar, t.Name)
		}
		seen[t.Name] = true
		if t.External {
			if t.Literal != "" || t.Pattern != "" {
				return nil, fmt.Errorf("%w: external token %q cannot carry a literal or pattern",
					ErrInvalidGrammar, t.Name)
			}
		} else if (t.Literal == "") == (t.Pattern == "") {
			return nil, fmt.Errorf("%w: token %q needs exactly one of literal and pattern",
				ErrInvalidGrammar, t.Name)
		}
		if (t.Skip || t.Extra) && t.External {
			return nil, fmt.Errorf("%w: external token %q cannot be skip or extra",
				ErrInvalidGrammar, t.Name)
		}
		g.Tokens = append(g.Tokens, TokenDef{
			Name:     t.Name,
			Literal:  t.Literal,
			Pattern:  t.Pattern,
			Named:    t.Named,
			Prec:     t.Prec,
			Skip:     t.Skip,
			Extra:    t.Extra,
			External: t.External,
		})
	}

	for _, r := range b.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: rule with empty name", ErrInvalidGrammar)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrInvalidGrammar, r.Name)
		}
		seen[r.Name] = true
		g.NonterminalNames = append(g.NonterminalNames, r.Name)
	}

	start, ok := g.SymbolForName(b.Start)
	if !ok || g.IsTerminal(start) {
		return nil, fmt.Errorf("%w: start rule %q is not a nonterminal", ErrInvalidGrammar, b.Start)
	}
	g.Start = start

	fieldIDs := map[string]FieldID{}
	fieldID := func(name string) FieldID {
		if name == "" {
			return 0
		}
		if id, ok := fieldIDs[name]; ok {
			return id
		}
		g.FieldNames = append(g.FieldNames, name)
		id := FieldID(len(g.FieldNames))
		fieldIDs[name] = id
		return id
	}

	for _, r := range b.Rules {
		head, _ := g.SymbolForName(r.Name)
		if len(r.Productions) == 0 {
			return nil, fmt.Errorf("%w: rule %q has no productions", ErrInvalidGrammar, r.Name)
		}
		for _, bp := range r.Productions {
			p := Production{Head: head, Prec: bp.Prec}
			switch bp.Assoc {
			case "", "none":
				p.Assoc = AssocNone
			case "left":
				p.Assoc = AssocLeft
			case "right":
				p.Assoc = AssocRight
			default:
				return nil, fmt.Errorf("%w: rule %q: unknown associativity %q",
					ErrInvalidGrammar, r.Name, bp.Assoc)
			}
			p.Symbols = make([]Symbol, len(bp.Symbols))
			p.Fields = make([]FieldID, len(bp.Symbols))
			for i, name := range bp.Symbols {
				sym, ok := g.SymbolForName(name)
				if !ok || sym == SymbolEnd || sym == SymbolError {
					return nil, fmt.Errorf("%w: rule %q references unknown symbol %q",
						ErrInvalidGrammar, r.Name, name)
				}
				if td := g.TokenDef(sym); td != nil && (td.Skip || td.Extra) {
					return nil, fmt.Errorf("%w: rule %q references %s token %q",
						ErrInvalidGrammar, r.Name, tokenKindWord(td), name)
				}
				p.Symbols[i] = sym
			}
			// Field ids are assigned in slot order so that numbering does
			// not depend on map iteration.
			for slot := range bp.Fields {
				if _, err := parseSlot(slot, len(bp.Symbols)); err != nil {
					return nil, fmt.Errorf("%w: rule %q: %v", ErrInvalidGrammar, r.Name, err)
				}
			}
			for i := range bp.Symbols {
				if fname, ok := bp.Fields[strconv.Itoa(i)]; ok {
					p.Fields[i] = fieldID(fname)
				}
			}
			g.Productions = append(g.Productions, p)
		}
	}

	lex, err := buildLexTable(g)
	if err != nil {
		return nil, err
	}
	g.Lex = lex

	parse, err := buildParseTable(g)
	if err != nil {
		return nil, err
	}
	g.Parse = parse

	return g, nil
}

func tokenKindWord(td *TokenDef) string {
	if td.Skip {
		return "skip"
	}
	return "extra"
}

func parseSlot(s string, n int) (int, error) {
	idx := 0
	if s == "" {
		return 0, fmt.Errorf("empty field slot")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("bad field slot %q", s)
		}
		idx = idx*10 + int(c-'0')
	}
	if idx >= n {
		return 0, fmt.Errorf("field slot %d out of range (production has %d symbols)", idx, n)
	}
	return idx, nil
}
