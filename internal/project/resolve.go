package project

// Match tells which tables a run request name was found in.
type Match int

// Lookup outcomes.
const (
	MatchNone Match = iota
	MatchCommand
	MatchSet
	MatchBoth
)

func (m Match) String() string {
	switch m {
	case MatchCommand:
		return "command"
	case MatchSet:
		return "set"
	case MatchBoth:
		return "command+set"
	default:
		return "none"
	}
}

// Lookup classifies name against the command and set tables.
func (f *File) Lookup(name string) Match {
	_, isCommand := f.commands[name]
	_, isSet := f.sets[name]

	switch {
	case isCommand && isSet:
		return MatchBoth
	case isCommand:
		return MatchCommand
	case isSet:
		return MatchSet
	default:
		return MatchNone
	}
}

// Resolve expands names, in order, into a flat command list.
//
// A command name contributes itself; a set name contributes its members in
// declared order. A name that is both a command and a set contributes the
// command followed by the set members. Duplicates are kept. The first name
// that matches neither table yields an *UnknownNameError.
func (f *File) Resolve(names []string) ([]Command, error) {
	var out []Command

	for _, name := range names {
		switch f.Lookup(name) {
		case MatchCommand:
			out = append(out, f.mustCommand(name))
		case MatchSet:
			out = f.appendSet(out, name)
		case MatchBoth:
			out = append(out, f.mustCommand(name))
			out = f.appendSet(out, name)
		case MatchNone:
			return nil, &UnknownNameError{Name: name}
		}
	}

	return out, nil
}

func (f *File) appendSet(out []Command, name string) []Command {
	s, _ := f.Set(name)
	for _, m := range s.Members {
		out = append(out, f.mustCommand(m))
	}

	return out
}

// mustCommand is only called with names validated at load time.
func (f *File) mustCommand(name string) Command {
	c, ok := f.Command(name)
	if !ok {
		panic("project: unvalidated command " + name)
	}

	return c
}
