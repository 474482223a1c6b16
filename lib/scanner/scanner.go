// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

// Package scanner walks a source tree and selects the files worth
// packaging: text files by extension allowlist, minus dependency
// directories, build output, caches, and other machine-generated
// noise. The archive builder itself accepts any prepared input list;
// this package is the collaborator that prepares one.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar"
)

// Entry is one selected file.
type Entry struct {
	// LogicalPath is the slash-separated path relative to the scan
	// root, as it will appear inside the archive.
	LogicalPath string

	// AbsPath is the filesystem path to read the file from.
	AbsPath string

	// Size is the file size in bytes at scan time.
	Size int64

	// ModTime is the file's modification time at scan time.
	ModTime time.Time
}

// textExtensions is the allowlist of file extensions treated as
// packageable text content.
var textExtensions = map[string]struct{}{
	// Code
	"rs": {}, "ts": {}, "tsx": {}, "js": {}, "jsx": {}, "py": {}, "go": {},
	"java": {}, "c": {}, "cpp": {}, "h": {}, "hpp": {}, "cs": {}, "rb": {},
	"php": {}, "swift": {}, "kt": {}, "scala": {}, "r": {}, "sql": {},
	"sh": {}, "bash": {}, "zsh": {}, "ps1": {}, "bat": {}, "cmd": {},
	// Config
	"json": {}, "yaml": {}, "yml": {}, "toml": {}, "xml": {}, "ini": {},
	"env": {}, "conf": {}, "config": {},
	// Docs
	"md": {}, "mdx": {}, "txt": {}, "rst": {}, "adoc": {}, "tex": {},
	// Web
	"html": {}, "htm": {}, "css": {}, "scss": {}, "sass": {}, "less": {},
	"vue": {}, "svelte": {},
	// Data
	"csv": {}, "tsv": {},
}

// ignoredDirs are directory names pruned from the walk entirely.
var ignoredDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {},
	"node_modules": {}, "vendor": {}, ".venv": {}, "venv": {},
	"__pycache__": {}, ".tox": {},
	"target": {}, "dist": {}, "build": {}, "out": {},
	".next": {}, ".nuxt": {}, ".output": {},
	".cache": {}, ".pytest_cache": {}, ".mypy_cache": {}, ".ruff_cache": {},
	".idea": {}, ".vs": {},
}

// alwaysIgnore are file patterns dropped regardless of configuration.
// No override is possible: these are binaries, archives, lockfiles,
// minified or generated output, and editor/OS droppings that add
// bytes without adding context.
var alwaysIgnore = []string{
	// Editor and OS cruft
	"*.swp", "*.swo", "*~", ".DS_Store", "Thumbs.db",
	// Compiled binaries
	"*.exe", "*.dll", "*.so", "*.dylib", "*.wasm", "*.o", "*.obj", "*.a",
	// Archives
	"*.zip", "*.tar", "*.gz", "*.bz2", "*.xz", "*.rar", "*.7z",
	// Bytecode and logs
	"*.pyc", "*.pyo", "*.log",
	// Minified and generated output
	"*.min.js", "*.min.css", "*.map",
	// Lockfiles
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"Cargo.lock", "poetry.lock", "Pipfile.lock", "go.sum",
}

// Scan walks root and returns the selected files, sorted by logical
// path for deterministic downstream processing. A nil config behaves
// like an empty one. Symlinks are skipped unless the config enables
// FollowSymlinks, in which case linked files and directories are
// walked through with cycle protection (a directory already on the
// current recursion path is not entered again; dangling links are
// skipped).
func Scan(root string, config *Config) ([]Entry, error) {
	if config == nil {
		config = &Config{}
	}

	w := &walker{
		config:  config,
		maxSize: config.maxFileSize(),
		active:  make(map[string]struct{}),
	}
	if err := w.walkDir(root, ""); err != nil {
		return nil, fmt.Errorf("scanning %q: %w", root, err)
	}

	sort.Slice(w.entries, func(i, j int) bool {
		return w.entries[i].LogicalPath < w.entries[j].LogicalPath
	})
	return w.entries, nil
}

// walker carries the state of one scan.
type walker struct {
	config  *Config
	maxSize int64
	active  map[string]struct{}
	entries []Entry
}

// walkDir processes one directory. prefix is the directory's logical
// path relative to the scan root ("" for the root itself).
func (w *walker) walkDir(dir, prefix string) error {
	// Cycle guard: skip a directory whose resolved path is already
	// on the recursion stack. A directory reachable through several
	// non-cyclic routes (a link and its target) is still walked under
	// each logical path.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", dir, err)
	}
	if _, onStack := w.active[resolved]; onStack {
		return nil
	}
	w.active[resolved] = struct{}{}
	defer delete(w.active, resolved)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %q: %w", dir, err)
	}

	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		logical := name
		if prefix != "" {
			logical = prefix + "/" + name
		}
		path := filepath.Join(dir, name)

		if dirEntry.Type()&fs.ModeSymlink != 0 {
			if !w.config.FollowSymlinks {
				continue
			}
			// Stat follows the link. A dangling link is not an
			// error; there is simply nothing there to package.
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if _, ignored := ignoredDirs[name]; ignored {
					continue
				}
				if err := w.walkDir(path, logical); err != nil {
					return err
				}
				continue
			}
			if info.Mode().IsRegular() {
				w.addFile(logical, path, info)
			}
			continue
		}

		if dirEntry.IsDir() {
			if _, ignored := ignoredDirs[name]; ignored {
				continue
			}
			if err := w.walkDir(path, logical); err != nil {
				return err
			}
			continue
		}
		if !dirEntry.Type().IsRegular() {
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			return fmt.Errorf("stating %q: %w", path, err)
		}
		w.addFile(logical, path, info)
	}
	return nil
}

// addFile applies the selection rules to one regular file.
func (w *walker) addFile(logical, path string, info fs.FileInfo) {
	if matchesAny(alwaysIgnore, logical) || matchesAny(w.config.Exclude, logical) {
		return
	}
	if !selected(logical, w.config.Include) {
		return
	}
	if info.Size() > w.maxSize {
		return
	}

	w.entries = append(w.entries, Entry{
		LogicalPath: logical,
		AbsPath:     path,
		Size:        info.Size(),
		ModTime:     info.ModTime().UTC(),
	})
}

// selected reports whether a logical path passes the extension
// allowlist or one of the configured include patterns.
func selected(logical string, include []string) bool {
	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(logical), "."))
	if _, ok := textExtensions[extension]; ok {
		return true
	}
	return matchesAny(include, logical)
}

// matchesAny reports whether any pattern matches the logical path or
// its base name. Matching the base name as well lets a bare "*.log"
// pattern apply at every depth, the way users expect from
// gitignore-style tooling.
func matchesAny(patterns []string, logical string) bool {
	base := logical
	if slash := strings.LastIndexByte(base, '/'); slash >= 0 {
		base = base[slash+1:]
	}
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, logical); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
