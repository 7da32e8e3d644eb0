package session

import (
	"strconv"
	"strings"
)

// Call is a parsed input line: an operation name and its positional arguments.
type Call struct {
	Name string
	Args []string
	Raw  string
}

// Expression rebuilds the call as name("arg1", "arg2").
func (c Call) Expression() string {
	quoted := make([]string, len(c.Args))
	for i, arg := range c.Args {
		quoted[i] = strconv.Quote(arg)
	}
	return c.Name + "(" + strings.Join(quoted, ", ") + ")"
}

// Parse splits one input line into a Call. Two forms are accepted:
//
//	greet World        name and space-separated arguments
//	greet(World, "x")  name and a comma-separated argument list
//
// The call form is used when the line has a "(" with no space before it.
// Its argument list ends at the first ")" outside quotes, or at the end of
// the line when there is none; anything after that ")" is ignored. A line
// with neither form, or a call form with no name, is a bare operation name.
// Arguments that come out empty are dropped, so "op(a, )" and "op  a" both
// call op with just "a".
func Parse(line string) (Call, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Call{}, &ParseError{Input: line, Reason: "empty input"}
	}

	paren := strings.Index(line, "(")
	space := strings.Index(line, " ")

	switch {
	case paren == 0:
		return newCall(line, line, nil), nil
	case paren > 0 && (space < 0 || paren < space):
		return parseCallForm(line, paren), nil
	case space >= 0:
		fields := strings.Split(line, " ")
		return newCall(line, fields[0], fields[1:]), nil
	default:
		return newCall(line, line, nil), nil
	}
}

func parseCallForm(line string, paren int) Call {
	name := line[:paren]
	rest := line[paren+1:]
	if closing := closingParen(rest); closing >= 0 {
		rest = rest[:closing]
	}
	return newCall(line, name, splitArguments(rest))
}

func newCall(raw, name string, args []string) Call {
	kept := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "" {
			kept = append(kept, arg)
		}
	}
	return Call{Name: name, Args: kept, Raw: raw}
}

// closingParen returns the index of the first ")" outside quotes, or -1.
func closingParen(s string) int {
	quote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ')':
			return i
		}
	}
	return -1
}

// splitArguments splits on commas outside quotes, trims each piece and
// strips one pair of matching surrounding quotes. Quotes are balanced here
// because closingParen only stops outside them.
func splitArguments(s string) []string {
	var parts []string
	var current strings.Builder
	quote := byte(0)

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			quote = 0
			current.WriteByte(c)
		case quote == 0 && c == ',':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 || len(parts) > 0 {
		parts = append(parts, current.String())
	}

	for i, part := range parts {
		parts[i] = unquote(strings.TrimSpace(part))
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
