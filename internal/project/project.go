// Package project loads the .onchange project file and resolves run
// requests against it.
//
// A project file has three sections:
//
//	[ignore]
//	dirs = tmp, build
//
//	[command]
//	test = go test ./...
//	lint = golangci-lint run
//
//	[set]
//	ci = lint, test
//
// Commands map a name to a shell string, sets map a name to an ordered list
// of command names, and ignore entries list path tokens excluded from
// watching. A loaded File is immutable.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"gopkg.in/ini.v1"
)

// Section names recognised in a project file.
const (
	SectionIgnore  = "ignore"
	SectionCommand = "command"
	SectionSet     = "set"
)

// Command is a named shell invocation.
type Command struct {
	Name  string `json:"name" yaml:"name"`
	Shell string `json:"shell" yaml:"shell"`
}

// Set is a named, ordered list of command names.
type Set struct {
	Name    string
	Members []string
}

// IgnoreEntry is one key of the ignore section with its path tokens.
type IgnoreEntry struct {
	Key    string
	Tokens []string
}

// File is a parsed and validated project file.
type File struct {
	// Path is the file the project was loaded from, if any.
	Path string

	// Ignore, Commands and Sets keep the declaration order of the file.
	Ignore   []IgnoreEntry
	Commands []Command
	Sets     []Set

	// Unknown lists sections that carry keys but are not recognised.
	Unknown []string

	commands map[string]int
	sets     map[string]int
}

// Load reads, parses and validates the project file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("reading project file %q: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f.Path = path

	return f, nil
}

// Parse parses and validates project file content. Values are kept as
// written: surrounding quotes, "#", ";" and trailing backslashes stay part
// of the shell string.
func Parse(data []byte) (*File, error) {
	if err := checkValues(data); err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}

	raw, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:      "=",
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		PreserveSurroundedQuote: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}

	f := &File{
		commands: make(map[string]int),
		sets:     make(map[string]int),
	}

	for _, sec := range raw.Sections() {
		switch sec.Name() {
		case SectionIgnore:
			for _, k := range sec.Keys() {
				f.Ignore = append(f.Ignore, IgnoreEntry{Key: k.Name(), Tokens: SplitList(k.Value())})
			}
		case SectionCommand:
			for _, k := range sec.Keys() {
				f.commands[k.Name()] = len(f.Commands)
				f.Commands = append(f.Commands, Command{Name: k.Name(), Shell: k.Value()})
			}
		case SectionSet:
			for _, k := range sec.Keys() {
				f.sets[k.Name()] = len(f.Sets)
				f.Sets = append(f.Sets, Set{Name: k.Name(), Members: SplitList(k.Value())})
			}
		default:
			if len(sec.Keys()) > 0 {
				f.Unknown = append(f.Unknown, sec.Name())
			}
		}
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// checkValues rejects values that ini would rewrite no matter the options:
// a leading backtick or triple quote opens a quoted or multi-line value.
func checkValues(data []byte) error {
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsRune("#;[", rune(line[0])) {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		value = strings.TrimSpace(value)

		var quote string

		switch {
		case strings.HasPrefix(value, `"""`):
			quote = `"""`
		case strings.HasPrefix(value, "`"):
			quote = "`"
		default:
			continue
		}

		return &ValueError{Line: i + 1, Key: strings.TrimSpace(key), Quote: quote}
	}

	return nil
}

func (f *File) validate() error {
	if len(f.Commands) == 0 {
		return ErrNoCommands
	}

	for _, s := range f.Sets {
		for _, m := range s.Members {
			if _, ok := f.commands[m]; !ok {
				return &UndefinedCommandError{Set: s.Name, Command: m}
			}
		}
	}

	return nil
}

// Command returns the command named name.
func (f *File) Command(name string) (Command, bool) {
	i, ok := f.commands[name]
	if !ok {
		return Command{}, false
	}

	return f.Commands[i], true
}

// Set returns the set named name.
func (f *File) Set(name string) (Set, bool) {
	i, ok := f.sets[name]
	if !ok {
		return Set{}, false
	}

	return f.Sets[i], true
}

// SplitList removes all whitespace from raw and splits it on commas.
// Empty tokens are dropped, so "a, ,b," yields [a b].
func SplitList(raw string) []string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, raw)

	var tokens []string

	for _, t := range strings.Split(compact, ",") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}

	return tokens
}
