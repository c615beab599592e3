// Package hclspec reads record declarations from HCL files.
//
// A record file names the Go package the builders belong to, the imports the
// field types need, and one block per record:
//
//	package = "models"
//	imports = ["time"]
//
//	record "Person" {
//	  field "Name" {
//	    type     = "string"
//	    required = true
//	  }
//	  field "Tags" {
//	    type         = "[]string"
//	    accumulating = true
//	    adder        = "AddTag"
//	  }
//	  field "Age" {
//	    type    = "int"
//	    default = 18
//	  }
//	}
//
// Every record in an HCL file is annotated for builder generation.
package hclspec

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"stagegen/internal/model"
	"stagegen/internal/synth"
)

// fileRoot decodes the top level of a record file.
type fileRoot struct {
	Package string         `hcl:"package"`
	Imports []string       `hcl:"imports,optional"`
	Records []*recordBlock `hcl:"record,block"`
}

type recordBlock struct {
	Name             string            `hcl:"name,label"`
	Doc              string            `hcl:"doc,optional"`
	Order            []string          `hcl:"order,optional"`
	Strict           bool              `hcl:"strict,optional"`
	LoopAccumulators bool              `hcl:"loop_accumulators,optional"`
	TypeParams       []*typeParamBlock `hcl:"type_param,block"`
	Fields           []*fieldBlock     `hcl:"field,block"`
}

type typeParamBlock struct {
	Name       string `hcl:"name,label"`
	Constraint string `hcl:"constraint,optional"`
}

// fieldBlock declares one record field. The literal "default" attribute is
// left in Remain so that an explicit null can be told apart from no default.
type fieldBlock struct {
	Name         string   `hcl:"name,label"`
	Type         string   `hcl:"type"`
	Doc          string   `hcl:"doc,optional"`
	Required     bool     `hcl:"required,optional"`
	Accumulating bool     `hcl:"accumulating,optional"`
	Adder        string   `hcl:"adder,optional"`
	DefaultExpr  *string  `hcl:"default_expr,optional"`
	Embedded     bool     `hcl:"embedded,optional"`
	Remain       hcl.Body `hcl:",remain"`
}

// ParseFile reads a record file from disk.
func ParseFile(path string) (*model.File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(path, f)
}

// ParseSource reads a record file from memory; path is used in diagnostics.
func ParseSource(path string, src []byte) (*model.File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(path, f)
}

func decode(path string, f *hcl.File) (*model.File, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	out := &model.File{
		Package: root.Package,
		Path:    path,
	}
	for _, spec := range root.Imports {
		imp, err := parseImport(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out.Imports = append(out.Imports, imp)
	}

	for _, rb := range root.Records {
		rec, err := translateRecord(rb)
		if err != nil {
			return nil, fmt.Errorf("%s: record %q: %w", path, rb.Name, err)
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// parseImport accepts "path" or "alias path".
func parseImport(spec string) (model.Import, error) {
	parts := strings.Fields(spec)
	switch len(parts) {
	case 1:
		return model.Import{Path: parts[0]}, nil
	case 2:
		return model.Import{Alias: parts[0], Path: parts[1]}, nil
	}
	return model.Import{}, fmt.Errorf("invalid import %q", spec)
}

func translateRecord(rb *recordBlock) (model.Record, error) {
	rec := model.Record{
		Name:       rb.Name,
		Doc:        rb.Doc,
		IsExported: token.IsExported(rb.Name),
		Directive: &model.Directive{
			Order:            rb.Order,
			Strict:           rb.Strict,
			LoopAccumulators: rb.LoopAccumulators,
		},
	}
	for _, tp := range rb.TypeParams {
		rec.TypeParams = append(rec.TypeParams, model.TypeParam{Name: tp.Name, Constraint: tp.Constraint})
	}

	for _, fb := range rb.Fields {
		m, err := translateField(fb)
		if err != nil {
			return rec, fmt.Errorf("field %q: %w", fb.Name, err)
		}
		rec.Members = append(rec.Members, m)
	}
	return rec, nil
}

func translateField(fb *fieldBlock) (model.Member, error) {
	m := model.Member{
		Names:    []string{fb.Name},
		Type:     fb.Type,
		Doc:      fb.Doc,
		Embedded: fb.Embedded,
	}
	if fb.Required {
		m.Markers = append(m.Markers, model.Marker{Name: model.MarkerRequired})
	}
	if fb.Accumulating {
		mk := model.Marker{Name: model.MarkerAccumulating}
		if fb.Adder != "" {
			mk.Args = map[string]string{synth.AdderArg: fb.Adder}
		}
		m.Markers = append(m.Markers, mk)
	}

	attrs, diags := fb.Remain.JustAttributes()
	if diags.HasErrors() {
		return m, diags
	}
	for name, attr := range attrs {
		if name != "default" {
			return m, fmt.Errorf("%s: unsupported argument %q", attr.NameRange, name)
		}
	}

	attr, hasLiteral := attrs["default"]
	switch {
	case hasLiteral && fb.DefaultExpr != nil:
		return m, fmt.Errorf("default and default_expr are mutually exclusive")
	case fb.DefaultExpr != nil:
		expr := *fb.DefaultExpr
		m.Initializer = &expr
	case hasLiteral:
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return m, diags
		}
		expr, err := GoLiteral(val, fb.Type)
		if err != nil {
			return m, fmt.Errorf("%s: %w", attr.Range, err)
		}
		m.Initializer = &expr
	}
	return m, nil
}
