package index

import (
	"fmt"
	"regexp"
)

// Index, label and property names cannot be bound as parameters in Cypher,
// so they are interpolated into the statement text. Restricting them to a
// plain identifier grammar keeps that interpolation injection-safe.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func checkIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return &ConfigError{Reason: fmt.Sprintf("invalid %s %q: must match [A-Za-z_][A-Za-z0-9_-]*", kind, name)}
	}
	return nil
}
