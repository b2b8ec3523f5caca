package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// placeholder matches ${NAME} and ${NAME:-default}.
var placeholder = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(?::-([^}]*))?\}`)

// UndefinedVariableError is returned when a job file references variables
// that are neither set nor given a default.
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

// Lookup resolves a variable name.
type Lookup func(name string) (string, bool)

// Vars resolves names from m, then from the process environment.
func Vars(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		if v, ok := m[name]; ok {
			return v, true
		}
		return os.LookupEnv(name)
	}
}

// Expand replaces ${NAME} placeholders using lookup. ${NAME:-default} uses
// default when NAME is unset. Every undefined name is reported, once.
func Expand(s string, lookup Lookup) (string, error) {
	var missing []string
	seen := make(map[string]bool)

	out := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		sub := placeholder.FindStringSubmatch(match)
		name, hasDefault := sub[1], strings.Contains(match, ":-")
		if v, ok := lookup(name); ok {
			return v
		}
		if hasDefault {
			return sub[2]
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})

	if len(missing) > 0 {
		return out, &UndefinedVariableError{Names: missing}
	}
	return out, nil
}
