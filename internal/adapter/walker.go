package adapter

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// Walker discovers the files to check under a repository root. Discovery is
// deterministic: the same tree always yields the same list in the same order.
type Walker struct {
	root    string // absolute
	include []string
	exclude []string
	global  *gitignore.GitIgnore // $HOME/.config/git/ignore, may be nil

	// matchers maps a directory (repo-relative, "." for the root) to the
	// compiled .gitignore found in it.
	matchers map[string]*gitignore.GitIgnore
}

// NewWalker validates the glob patterns and prepares a walker rooted at root.
func NewWalker(root model.Path, include, exclude []string) (*Walker, error) {
	abs, err := filepath.Abs(root.String())
	if err != nil {
		return nil, fmt.Errorf("%w: resolving root %s: %v", model.ErrIO, root, err)
	}
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: invalid glob pattern %q", model.ErrConfig, pattern)
		}
	}

	w := &Walker{
		root:     abs,
		include:  include,
		exclude:  exclude,
		matchers: map[string]*gitignore.GitIgnore{},
	}
	if home, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(home, ".config", "git", "ignore")
		if _, err := os.Stat(globalPath); err == nil {
			if gi, err := gitignore.CompileIgnoreFile(globalPath); err == nil {
				w.global = gi
			}
		}
	}
	return w, nil
}

// Walk collects the files under each named path. Directories are traversed
// recursively; a named file is taken as a single candidate. Every candidate
// still has to pass the include/exclude patterns and the ignore files.
func (w *Walker) Walk(paths []string) ([]model.FileEntry, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := map[model.RelPath]bool{}
	var entries []model.FileEntry

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving %s: %v", model.ErrIO, p, err)
		}
		rel, err := filepath.Rel(w.root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, fmt.Errorf("%w: path %q is outside the repository root", model.ErrUsage, p)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrIO, p, err)
		}

		if !info.IsDir() {
			relPath := model.RelPath(filepath.ToSlash(rel))
			if w.admits(relPath, false) && !seen[relPath] {
				seen[relPath] = true
				entries = append(entries, newFileEntry(abs, relPath))
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("walking", "path", path, "error", err)
				return fmt.Errorf("%w: walking %s: %v", model.ErrIO, path, err)
			}
			entryRel, err := filepath.Rel(w.root, path)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
			}
			relPath := model.RelPath(filepath.ToSlash(entryRel))

			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				if relPath != "." && !w.admits(relPath, true) {
					return filepath.SkipDir
				}
				w.loadIgnore(path, string(relPath))
				return nil
			}
			if !w.admits(relPath, false) || seen[relPath] {
				return nil
			}
			seen[relPath] = true
			entries = append(entries, newFileEntry(path, relPath))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
	return entries, nil
}

func newFileEntry(abs string, rel model.RelPath) model.FileEntry {
	lang, ok := model.DetectLanguage(rel)
	return model.FileEntry{
		Abs:         model.Path(abs),
		Rel:         rel,
		Language:    lang,
		HasLanguage: ok,
	}
}

// loadIgnore compiles the .gitignore in dir, if any, keyed by the directory's
// repo-relative path.
func (w *Walker) loadIgnore(dir, relDir string) {
	ignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(ignorePath); err != nil {
		return
	}
	gi, err := gitignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		slog.Warn("unreadable .gitignore", "path", ignorePath, "error", err)
		return
	}
	w.matchers[relDir] = gi
}

// admits decides whether a repo-relative path survives the ignore files and,
// for files, the include/exclude patterns. Directories are only rejected by
// ignore rules so traversal can be pruned without consulting file globs.
func (w *Walker) admits(rel model.RelPath, isDir bool) bool {
	if w.ignored(string(rel)) {
		return false
	}
	if isDir {
		return true
	}
	included := false
	for _, pattern := range w.include {
		if ok, _ := doublestar.Match(pattern, string(rel)); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, string(rel)); ok {
			return false
		}
	}
	return true
}

// ignored applies the global ignore file and every .gitignore on the path's
// ancestor chain, each against the path relative to its own directory.
func (w *Walker) ignored(rel string) bool {
	if w.global != nil && w.global.MatchesPath(rel) {
		return true
	}
	if gi, ok := w.matchers["."]; ok && gi.MatchesPath(rel) {
		return true
	}
	for i := 0; i < len(rel); i++ {
		if rel[i] != '/' {
			continue
		}
		dir, rest := rel[:i], rel[i+1:]
		if gi, ok := w.matchers[dir]; ok && gi.MatchesPath(rest) {
			return true
		}
	}
	return false
}
