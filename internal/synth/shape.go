package synth

import "strings"

// ShapeKind is the structural category of a declared type.
type ShapeKind string

const (
	ShapeScalar    ShapeKind = "scalar"
	ShapeSequence  ShapeKind = "sequence"
	ShapeMapping   ShapeKind = "mapping"
	ShapeUniqueSet ShapeKind = "set"
	ShapeOptional  ShapeKind = "optional"
)

// Shape is the classification of a type signature.
//
// Elem is set for sequences, sets and optionals; Key and Value for mappings.
// Named marks a set declared through a generic wrapper type (Set[T]).
type Shape struct {
	Kind  ShapeKind `yaml:"kind"`
	Elem  string    `yaml:"elem,omitempty"`
	Key   string    `yaml:"key,omitempty"`
	Value string    `yaml:"value,omitempty"`
	Named bool      `yaml:"named,omitempty"`
}

// ClassifyShape classifies a Go type signature. It never fails: anything it
// does not recognise is a scalar.
func ClassifyShape(sig string) Shape {
	s := strings.TrimSpace(sig)

	switch {
	case strings.HasPrefix(s, "*"):
		if inner := strings.TrimSpace(s[1:]); inner != "" {
			return Shape{Kind: ShapeOptional, Elem: inner}
		}

	case strings.HasPrefix(s, "[]"):
		if elem := strings.TrimSpace(s[2:]); elem != "" {
			return Shape{Kind: ShapeSequence, Elem: elem}
		}

	case strings.HasPrefix(s, "map["):
		end := closingBracket(s, len("map"))
		if end < 0 {
			break
		}
		key := strings.TrimSpace(s[len("map["):end])
		value := strings.TrimSpace(s[end+1:])
		if key == "" || value == "" {
			break
		}
		if isEmptyStruct(value) {
			return Shape{Kind: ShapeUniqueSet, Elem: key}
		}
		return Shape{Kind: ShapeMapping, Key: key, Value: value}

	default:
		if elem, ok := namedSetElem(s); ok {
			return Shape{Kind: ShapeUniqueSet, Elem: elem, Named: true}
		}
	}

	return Shape{Kind: ShapeScalar}
}

// closingBracket returns the index of the ']' matching the '[' at open, or -1.
func closingBracket(s string, open int) int {
	if open >= len(s) || s[open] != '[' {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// namedSetElem matches "Set[T]" and "pkg.Set[T]" with a single type argument.
func namedSetElem(s string) (string, bool) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || closingBracket(s, open) != len(s)-1 {
		return "", false
	}
	base := s[:open]
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		base = base[dot+1:]
	}
	if base != "Set" {
		return "", false
	}
	arg := strings.TrimSpace(s[open+1 : len(s)-1])
	if arg == "" || hasTopLevelComma(arg) {
		return "", false
	}
	return arg, true
}

func hasTopLevelComma(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func isEmptyStruct(s string) bool {
	return strings.Join(strings.Fields(s), "") == "struct{}"
}
