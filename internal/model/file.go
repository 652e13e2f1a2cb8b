package model

import (
	"sort"
	"strings"
)

// FileEntry is one discovered source file queued for checking.
type FileEntry struct {
	// Abs is the path used to read the file from disk.
	Abs Path
	// Rel is the repository-relative slash-separated path used in output,
	// glob matching and region attribution.
	Rel RelPath
	// Language is the detected language; HasLanguage is false when the
	// extension is not recognized.
	Language    Language
	HasLanguage bool
}

// LineIndex converts byte offsets in a file to 1-based line/column pairs.
type LineIndex struct {
	// starts[i] is the byte offset of the first byte of line i+1.
	starts []int
	size   int
}

// NewLineIndex scans the content once and records line start offsets.
func NewLineIndex(content []byte) *LineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(content)}
}

// Position maps a byte offset to its 1-based line and column.
func (ix *LineIndex) Position(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > ix.size {
		offset = ix.size
	}
	i := sort.Search(len(ix.starts), func(i int) bool { return ix.starts[i] > offset }) - 1
	return i + 1, offset - ix.starts[i] + 1
}

// LineText returns the text of the given 1-based line within content,
// without the trailing newline.
func (ix *LineIndex) LineText(content []byte, line int) string {
	if line < 1 || line > len(ix.starts) {
		return ""
	}
	start := ix.starts[line-1]
	end := ix.size
	if line < len(ix.starts) {
		end = ix.starts[line] - 1
	}
	return strings.TrimRight(string(content[start:end]), "\r")
}
