package sylva

import "sync"

// ParserPool reuses Parser instances across goroutines. A single
// Parser is not safe for concurrent use; the pool hands each borrower
// an exclusive instance and recycles it on return.
type ParserPool struct {
	lang *Language
	pool sync.Pool
}

// NewParserPool returns a pool producing parsers for lang.
func NewParserPool(lang *Language) *ParserPool {
	p := &ParserPool{lang: lang}
	p.pool.New = func() interface{} {
		return NewParser(lang)
	}
	return p
}

// Get borrows a parser. Return it with Put when done.
func (p *ParserPool) Get() *Parser {
	return p.pool.Get().(*Parser)
}

// Put returns a parser to the pool.
func (p *ParserPool) Put(parser *Parser) {
	if parser == nil || parser.Language() != p.lang {
		return
	}
	p.pool.Put(parser)
}
