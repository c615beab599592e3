// Package model defines the intermediate representation shared by the
// record front-ends and the builder synthesizer.
package model

import "strings"

// MarkerName identifies a role marker attached to a record member.
type MarkerName string

const (
	MarkerRequired     MarkerName = "required"
	MarkerAccumulating MarkerName = "accumulating"
)

// File represents a parsed input file.
type File struct {
	Package string   // Package name
	Path    string   // File path
	Records []Record // Struct declarations, in source order
	Imports []Import // Import statements
}

// Import represents a Go import statement.
type Import struct {
	Alias string // Optional alias (empty if none)
	Path  string // Import path
}

// Names returns the identifiers the import may be referenced by in source.
// Without an alias the package name is only known by convention: a major
// version element ("/v2") names either the package itself, as in
// k8s.io/api/core/v1, or the module version of its parent element, as in
// github.com/google/go-github/v57. Both are returned.
func (i Import) Names() []string {
	if i.Alias != "" {
		return []string{i.Alias}
	}
	elems := strings.Split(i.Path, "/")
	last := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(last) {
		return []string{packageName(elems[len(elems)-2]), last}
	}
	return []string{packageName(last)}
}

// packageName applies the naming conventions of gopkg.in ("yaml.v3") and
// go- prefixed repositories to a path element.
func packageName(elem string) string {
	if dot := strings.Index(elem, ".v"); dot > 0 && isMajorVersion(elem[dot+1:]) {
		elem = elem[:dot]
	}
	elem = strings.TrimPrefix(elem, "go-")
	return strings.ReplaceAll(elem, "-", "_")
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Record represents a struct declaration a builder may be generated for.
type Record struct {
	Name       string      // Type name (e.g., "User")
	Doc        string      // Documentation comment
	IsExported bool        // Whether the type is exported
	TypeParams []TypeParam // Type parameters (for generic structs)
	Members    []Member    // Raw member declarations, in source order
	Directive  *Directive  // Builder directive; nil when the record is not annotated
}

// TypeParam is a single type parameter of a generic record.
type TypeParam struct {
	Name       string
	Constraint string
}

// Directive carries the generation request attached to a record.
type Directive struct {
	Order            []string // Explicit step order; empty means "derive"
	Strict           bool     // Reject incoherent explicit orders
	LoopAccumulators bool     // Let non-terminal accumulating steps repeat
}

// Member represents one raw member declaration of a record.
type Member struct {
	Names       []string  // Declared names; more than one for "A, B int"
	Type        string    // Source text of the declared type
	Doc         string    // Documentation comment
	Embedded    bool      // Whether this is an embedded field
	Tag         StructTag // Struct tag
	Markers     []Marker  // Role markers
	Initializer *string   // Initializer expression text, verbatim
}

// Marker is a role marker with its arguments (e.g., adder=AddTag).
type Marker struct {
	Name MarkerName
	Args map[string]string
}

// StructTag represents parsed struct tags.
type StructTag struct {
	Raw    string            // Raw tag string
	Values map[string]string // Parsed tag values (key -> value)
}

// Marker returns the marker with the given name, if attached.
func (m Member) Marker(name MarkerName) (Marker, bool) {
	for _, mk := range m.Markers {
		if mk.Name == name {
			return mk, true
		}
	}
	return Marker{}, false
}
