package domain

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// SourceFile is one file under evaluation: its bytes plus lazily built
// line index and syntax tree. The tree is parsed at most once even when
// several query rules target the file.
type SourceFile struct {
	Entry   model.FileEntry
	Content []byte

	lineOnce sync.Once
	lines    *model.LineIndex

	treeOnce sync.Once
	tree     *sitter.Tree
	treeErr  error
}

// NewSourceFile wraps a file's content for evaluation.
func NewSourceFile(entry model.FileEntry, content []byte) *SourceFile {
	return &SourceFile{Entry: entry, Content: content}
}

// Lines returns the file's line index, building it on first use.
func (f *SourceFile) Lines() *model.LineIndex {
	f.lineOnce.Do(func() { f.lines = model.NewLineIndex(f.Content) })
	return f.lines
}

// Tree parses the file with its language grammar on first call and caches
// the result. A grammar-level failure or a tree containing syntax errors is
// reported as a parse error; later callers see the same outcome.
func (f *SourceFile) Tree(ctx context.Context, parsers *ParserCache) (*sitter.Tree, error) {
	f.treeOnce.Do(func() {
		if !f.Entry.HasLanguage {
			f.treeErr = fmt.Errorf("%w: %s has no recognized language", model.ErrParse, f.Entry.Rel)
			return
		}
		tree, err := parsers.Parse(ctx, f.Entry.Language, f.Content)
		if err != nil {
			f.treeErr = err
			return
		}
		if tree.RootNode().HasError() {
			f.treeErr = fmt.Errorf("%w: %s: %s source contains syntax errors", model.ErrParse, f.Entry.Rel, f.Entry.Language)
			return
		}
		f.tree = tree
	})
	return f.tree, f.treeErr
}
