// Package exclude builds the path predicates that keep changes out of the
// watch loop.
//
// A Set always starts with the built-in dotfile and unreadable-path
// predicates, followed by one glob predicate per token of the project's
// ignore section. A path is excluded when any predicate matches.
package exclude

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/hupe1980/onchange/internal/logging"
	"github.com/hupe1980/onchange/internal/project"
)

var errEmptyPattern = errors.New("empty pattern")

// Predicate decides whether a path is excluded.
type Predicate interface {
	Match(path string) bool
	String() string
}

// Set is an ordered union of predicates.
type Set []Predicate

// Match reports whether any predicate in s matches path.
func (s Set) Match(path string) bool {
	for _, p := range s {
		if p.Match(path) {
			return true
		}
	}

	return false
}

// Build compiles the exclusion set for the tree rooted at root. Each ignore
// entry is logged once as an "ignore" event.
func Build(f *project.File, root string, logger *slog.Logger) (Set, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}

	set := Set{Dotfile(abs), Unreadable()}

	for _, entry := range f.Ignore {
		for _, token := range entry.Tokens {
			p, err := Pattern(abs, token)
			if err != nil {
				return nil, fmt.Errorf("ignore %q: %w", entry.Key, err)
			}

			set = append(set, p)
		}

		if logger != nil {
			logging.Event(logger, "ignore", strings.Join(entry.Tokens, ","))
		}
	}

	return set, nil
}

// ---------------------------------------------------------------------------
// Built-in predicates
// ---------------------------------------------------------------------------

type dotfile struct {
	prefix string
}

// Dotfile matches any path below root whose final component starts with ".".
func Dotfile(root string) Predicate {
	return dotfile{prefix: rootPrefix(root)}
}

func (d dotfile) Match(path string) bool {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, d.prefix) {
		return false
	}

	return strings.HasPrefix(filepath.Base(path), ".")
}

func (d dotfile) String() string { return d.prefix + "(**/)?.*" }

type unreadable struct{}

// Unreadable matches any path that exists but cannot be read.
func Unreadable() Predicate { return unreadable{} }

func (unreadable) Match(path string) bool { return isUnreadable(path) }

func (unreadable) String() string { return "<unreadable>" }

// ---------------------------------------------------------------------------
// Ignore patterns
// ---------------------------------------------------------------------------

type pattern struct {
	source string
	globs  []glob.Glob
}

// Pattern compiles an ignore token anchored at root. The token may appear
// after any number of intermediate directories and also excludes everything
// beneath it, so "tmp" matches root/tmp, root/a/tmp and root/a/tmp/x but not
// root/template. Glob syntax in token is honoured with "/" as separator.
// Trailing slashes are dropped, so "build/" behaves like "build".
func Pattern(root, token string) (Predicate, error) {
	token = strings.TrimRight(token, "/")
	if token == "" {
		return nil, errEmptyPattern
	}

	prefix := glob.QuoteMeta(rootPrefix(root))

	p := pattern{source: rootPrefix(root) + "(**/)?" + token}

	for _, src := range []string{
		prefix + token,
		prefix + token + "/**",
		prefix + "**/" + token,
		prefix + "**/" + token + "/**",
	} {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", token, err)
		}

		p.globs = append(p.globs, g)
	}

	return p, nil
}

func (p pattern) Match(path string) bool {
	path = filepath.ToSlash(path)
	for _, g := range p.globs {
		if g.Match(path) {
			return true
		}
	}

	return false
}

func (p pattern) String() string { return p.source }

// rootPrefix returns root with exactly one trailing slash.
func rootPrefix(root string) string {
	return strings.TrimSuffix(filepath.ToSlash(filepath.Clean(root)), "/") + "/"
}
