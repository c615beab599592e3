package hclspec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"stagegen/internal/synth"
)

// GoLiteral renders an HCL literal value as a Go expression of type typ.
// Collections are rendered as typed composite literals; the element types
// come from the shape of typ.
func GoLiteral(val cty.Value, typ string) (string, error) {
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("default for %s must be a literal value", typ)
	}
	if val.IsNull() {
		return "nil", nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return strconv.Quote(val.AsString()), nil
	case ty == cty.Number:
		return numberLiteral(val), nil
	case ty == cty.Bool:
		return strconv.FormatBool(val.True()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		return sequenceLiteral(val, typ)
	case ty.IsMapType() || ty.IsObjectType():
		return mappingLiteral(val, typ)
	}
	return "", fmt.Errorf("unsupported default of type %s", ty.FriendlyName())
}

func numberLiteral(val cty.Value) string {
	bf := val.AsBigFloat()
	if bf.IsInt() {
		return bf.Text('f', 0)
	}
	f, _ := bf.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func sequenceLiteral(val cty.Value, typ string) (string, error) {
	shape := synth.ClassifyShape(typ)
	var items []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		switch shape.Kind {
		case synth.ShapeSequence:
			item, err := GoLiteral(v, shape.Elem)
			if err != nil {
				return "", err
			}
			items = append(items, item)
		case synth.ShapeUniqueSet:
			key, err := GoLiteral(v, shape.Elem)
			if err != nil {
				return "", err
			}
			items = append(items, key+": {}")
		default:
			return "", fmt.Errorf("list default does not fit type %s", typ)
		}
	}
	return typ + "{" + strings.Join(items, ", ") + "}", nil
}

func mappingLiteral(val cty.Value, typ string) (string, error) {
	shape := synth.ClassifyShape(typ)
	if shape.Kind != synth.ShapeMapping {
		return "", fmt.Errorf("map default does not fit type %s", typ)
	}

	entries := val.AsValueMap()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := GoLiteral(entries[k], shape.Value)
		if err != nil {
			return "", err
		}
		items = append(items, mapKey(k, shape.Key)+": "+v)
	}
	return typ + "{" + strings.Join(items, ", ") + "}", nil
}

// mapKey renders an HCL map key. Keys are always strings in HCL; numeric and
// boolean Go key types take the key text unquoted.
func mapKey(k, keyType string) string {
	switch keyType {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "byte", "rune":
		if _, err := strconv.ParseFloat(k, 64); err == nil {
			return k
		}
	case "bool":
		if k == "true" || k == "false" {
			return k
		}
	}
	return strconv.Quote(k)
}
