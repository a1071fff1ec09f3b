package compiler

import "strings"

// Flag identifies one of the compiler switches the viewer can toggle.
type Flag int

const (
	// FlagParse passes -X.
	FlagParse Flag = iota
	// FlagBindings passes -bB.
	FlagBindings
	// FlagRename passes --rename.
	FlagRename
	// FlagEscapes passes -eE.
	FlagEscapes
)

// Flags lists every flag in command-line order.
func Flags() []Flag {
	return []Flag{FlagParse, FlagBindings, FlagRename, FlagEscapes}
}

// Switch returns the command-line switch for the flag.
func (f Flag) Switch() string {
	switch f {
	case FlagParse:
		return "-X"
	case FlagBindings:
		return "-bB"
	case FlagRename:
		return "--rename"
	case FlagEscapes:
		return "-eE"
	default:
		return ""
	}
}

// Label returns the menu label for the flag.
func (f Flag) Label() string {
	switch f {
	case FlagParse:
		return "Option -X"
	case FlagBindings:
		return "Option -b"
	case FlagRename:
		return "Option -r"
	case FlagEscapes:
		return "Option -e"
	default:
		return "Option ?"
	}
}

// String returns the switch.
func (f Flag) String() string {
	return f.Switch()
}

// Options holds the four independent compiler switches.
type Options struct {
	Parse    bool
	Bindings bool
	Rename   bool
	Escapes  bool
}

// Get reports whether flag f is set.
func (o Options) Get(f Flag) bool {
	switch f {
	case FlagParse:
		return o.Parse
	case FlagBindings:
		return o.Bindings
	case FlagRename:
		return o.Rename
	case FlagEscapes:
		return o.Escapes
	default:
		return false
	}
}

// With returns a copy of o with flag f set to v.
func (o Options) With(f Flag, v bool) Options {
	switch f {
	case FlagParse:
		o.Parse = v
	case FlagBindings:
		o.Bindings = v
	case FlagRename:
		o.Rename = v
	case FlagEscapes:
		o.Escapes = v
	}
	return o
}

// Toggle returns a copy of o with flag f inverted.
func (o Options) Toggle(f Flag) Options {
	return o.With(f, !o.Get(f))
}

// Args returns the compiler arguments: the enabled switches in fixed order,
// then --ast-dump, then "-" to read the program from standard input.
func (o Options) Args() []string {
	args := make([]string, 0, 6)
	for _, f := range Flags() {
		if o.Get(f) {
			args = append(args, f.Switch())
		}
	}
	return append(args, "--ast-dump", "-")
}

// String renders the enabled switches, e.g. "-X --rename".
func (o Options) String() string {
	var parts []string
	for _, f := range Flags() {
		if o.Get(f) {
			parts = append(parts, f.Switch())
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}
