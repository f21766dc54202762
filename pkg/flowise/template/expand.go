package template

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// bracePattern matches ${name}.
	bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

	// dollarPattern matches $name up to a word boundary.
	dollarPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)(?:\b|$)`)
)

// Expander expands variable placeholders in strings.
//
// Substituted values are never re-scanned, so a value that itself contains
// "${x}" is emitted literally. Expander is safe for concurrent use.
type Expander struct {
	missingAction MissingAction
	dollarStyle   bool
}

// NewExpander creates an Expander. By default it expands ${var} only and
// keeps unknown placeholders.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{missingAction: MissingKeep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand substitutes vars into s.
//
// An error is returned only with MissingError when a placeholder has no value.
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	replace := func(match, name string) string {
		if val, ok := vars[name]; ok {
			return fmt.Sprint(val)
		}
		switch e.missingAction {
		case MissingEmpty:
			return ""
		case MissingError:
			missing = append(missing, name)
			return match
		default:
			return match
		}
	}

	// A single combined pass keeps substituted text out of later passes.
	pattern := bracePattern
	if e.dollarStyle {
		pattern = combinedPattern
	}
	result := pattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			return replace(match, match[2:len(match)-1])
		}
		return replace(match, match[1:])
	})

	if len(missing) > 0 {
		return result, &UndefinedVariableError{Names: missing}
	}
	return result, nil
}

var combinedPattern = regexp.MustCompile(bracePattern.String() + `|` + dollarPattern.String())

// MustExpand is Expand that panics on error. Use it for templates compiled
// into the binary, where a missing variable is a programming error.
func (e *Expander) MustExpand(s string, vars map[string]any) string {
	result, err := e.Expand(s, vars)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return result
}

// UndefinedVariableError is returned when MissingError is set and
// one or more variables are not found.
type UndefinedVariableError struct {
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

var defaultExpander = NewExpander()

// Expand expands ${var} placeholders with the default expander, keeping
// unknown placeholders as-is.
func Expand(s string, vars map[string]any) string {
	result, _ := defaultExpander.Expand(s, vars)
	return result
}
