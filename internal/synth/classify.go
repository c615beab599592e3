package synth

import (
	"strings"

	"stagegen/internal/model"
	"stagegen/internal/naming"
)

// AdderArg is the marker argument overriding an accumulating field's adder name.
const AdderArg = "adder"

// ClassifyFields turns raw member declarations into classified fields, in
// declaration order. Members that are not single named bindings with a type
// are skipped without error.
func ClassifyFields(members []model.Member) []Field {
	fields := make([]Field, 0, len(members))
	for _, m := range members {
		if len(m.Names) != 1 {
			continue
		}
		name := m.Names[0]
		typ := strings.TrimSpace(m.Type)
		if name == "" || name == "_" || typ == "" {
			continue
		}

		f := Field{
			Name: name,
			Type: typ,
			Role: RolePlain,
		}
		if _, ok := m.Marker(model.MarkerRequired); ok {
			f.Role = RoleRequired
		}
		// The accumulating marker wins when both are attached.
		if mk, ok := m.Marker(model.MarkerAccumulating); ok {
			f.Role = RoleAccumulating
			f.Adder = mk.Args[AdderArg]
			if f.Adder == "" {
				f.Adder = "Add" + naming.Capitalize(name)
			}
		}
		if m.Initializer != nil {
			f.Default = strings.TrimSpace(*m.Initializer)
			f.HasDefault = true
		}
		fields = append(fields, f)
	}
	return fields
}

// SetterName is the advance operation name for a required step.
func SetterName(field string) string {
	return "Set" + naming.Capitalize(field)
}
