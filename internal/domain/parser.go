package domain

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// ParserCache owns the grammar instances and a pool of parsers per language.
// Grammars are initialized lazily on first demand, so a run over a rust-only
// rule set never touches the python grammar. All methods are safe for
// concurrent use; lookups of a warm grammar take only a read lock, so they do
// not serialize the worker pool. Parser instances themselves are not
// concurrent, which is why they are pooled rather than shared.
type ParserCache struct {
	mu       sync.RWMutex
	grammars map[model.Language]*sitter.Language
	pools    map[model.Language]*sync.Pool
}

// NewParserCache returns an empty cache.
func NewParserCache() *ParserCache {
	return &ParserCache{
		grammars: map[model.Language]*sitter.Language{},
		pools:    map[model.Language]*sync.Pool{},
	}
}

// Grammar returns the tree-sitter grammar for a language, constructing it on
// first use.
func (c *ParserCache) Grammar(lang model.Language) (*sitter.Language, error) {
	c.mu.RLock()
	g, ok := c.grammars[lang]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another worker may have constructed it between the two locks.
	if g, ok := c.grammars[lang]; ok {
		return g, nil
	}
	switch lang {
	case model.LangRust:
		g = rust.GetLanguage()
	case model.LangTypeScript:
		g = typescript.GetLanguage()
	case model.LangJavaScript:
		g = javascript.GetLanguage()
	case model.LangPython:
		g = python.GetLanguage()
	case model.LangGo:
		g = golang.GetLanguage()
	default:
		return nil, fmt.Errorf("%w: no grammar for language %q", model.ErrRule, lang)
	}
	c.grammars[lang] = g
	return g, nil
}

// CompileQuery builds a query against the language's grammar.
func (c *ParserCache) CompileQuery(lang model.Language, query string) (*sitter.Query, error) {
	g, err := c.Grammar(lang)
	if err != nil {
		return nil, err
	}
	q, err := sitter.NewQuery([]byte(query), g)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling query for %s: %v", model.ErrRule, lang, err)
	}
	return q, nil
}

// Parse produces a syntax tree for the content. Parsers are checked out of a
// per-language pool for the duration of the call.
func (c *ParserCache) Parse(ctx context.Context, lang model.Language, content []byte) (*sitter.Tree, error) {
	g, err := c.Grammar(lang)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	pool, ok := c.pools[lang]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		if pool, ok = c.pools[lang]; !ok {
			pool = &sync.Pool{New: func() any {
				p := sitter.NewParser()
				p.SetLanguage(g)
				return p
			}}
			c.pools[lang] = pool
		}
		c.mu.Unlock()
	}

	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s source: %v", model.ErrParse, lang, err)
	}
	return tree, nil
}
