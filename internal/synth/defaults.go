package synth

import "strings"

// ResolveDefault returns the expression a field takes when the caller never
// supplies it: the explicit default, else an empty value for its shape, else
// the zero value of its type.
func ResolveDefault(f Field) string {
	if f.HasDefault {
		return f.Default
	}

	shape := f.Shape()
	switch shape.Kind {
	case ShapeSequence, ShapeMapping, ShapeUniqueSet:
		return f.Type + "{}"
	case ShapeOptional:
		return "nil"
	}
	return ZeroValue(f.Type)
}

// ZeroValue returns an expression for the zero value of typ.
func ZeroValue(typ string) string {
	t := strings.TrimSpace(typ)
	switch t {
	case "string":
		return `""`
	case "bool":
		return "false"
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"byte", "rune":
		return "0"
	case "any", "error":
		return "nil"
	}

	switch {
	case strings.HasPrefix(t, "interface{"), strings.HasPrefix(t, "interface {"),
		strings.HasPrefix(t, "func("), strings.HasPrefix(t, "func "),
		strings.HasPrefix(t, "chan "), strings.HasPrefix(t, "chan<-"), strings.HasPrefix(t, "<-chan"),
		strings.HasPrefix(t, "*"), strings.HasPrefix(t, "[]"), strings.HasPrefix(t, "map["):
		return "nil"
	case strings.HasPrefix(t, "["), strings.HasPrefix(t, "struct{"), strings.HasPrefix(t, "struct {"):
		return t + "{}"
	}
	return "*new(" + t + ")"
}
