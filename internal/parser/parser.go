// Package parser provides Go source file parsing functionality.
package parser

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"reflect"
	"strings"

	"stagegen/internal/model"
)

// Directive is the comment prefix that marks a struct for builder generation.
const Directive = "//stagegen:builder"

// Parser parses Go source files and extracts record declarations.
type Parser struct {
	fset       *token.FileSet
	roleKey    string
	defaultKey string
}

// New creates a new Parser reading role markers from the roleKey struct tag
// and initializers from the defaultKey struct tag.
func New(roleKey, defaultKey string) *Parser {
	return &Parser{
		fset:       token.NewFileSet(),
		roleKey:    roleKey,
		defaultKey: defaultKey,
	}
}

// ParseFile parses a single Go source file and returns its records.
func (p *Parser) ParseFile(path string) (*model.File, error) {
	return p.ParseSource(path, nil)
}

// ParseSource parses src (or the file at path when src is nil).
func (p *Parser) ParseSource(path string, src any) (*model.File, error) {
	file, err := parser.ParseFile(p.fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	result := &model.File{
		Package: file.Name.Name,
		Path:    path,
		Imports: p.extractImports(file),
	}

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok || typeSpec.Assign.IsValid() {
				continue
			}

			doc := typeSpec.Doc
			if doc == nil && len(genDecl.Specs) == 1 {
				doc = genDecl.Doc
			}
			rec, err := p.extractRecord(typeSpec, structType, doc)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.fset.Position(typeSpec.Pos()), err)
			}
			result.Records = append(result.Records, rec)
		}
	}

	return result, nil
}

// extractImports extracts import statements from a Go file.
func (p *Parser) extractImports(file *ast.File) []model.Import {
	var imports []model.Import
	for _, imp := range file.Imports {
		i := model.Import{
			Path: strings.Trim(imp.Path.Value, `"`),
		}
		if imp.Name != nil {
			i.Alias = imp.Name.Name
		}
		imports = append(imports, i)
	}
	return imports
}

// extractRecord extracts a record from a struct type declaration.
func (p *Parser) extractRecord(spec *ast.TypeSpec, st *ast.StructType, doc *ast.CommentGroup) (model.Record, error) {
	rec := model.Record{
		Name:       spec.Name.Name,
		IsExported: ast.IsExported(spec.Name.Name),
		Doc:        commentText(doc),
	}

	directive, err := parseDirective(doc)
	if err != nil {
		return rec, err
	}
	rec.Directive = directive

	if spec.TypeParams != nil {
		for _, field := range spec.TypeParams.List {
			constraint := p.exprText(field.Type)
			for _, name := range field.Names {
				rec.TypeParams = append(rec.TypeParams, model.TypeParam{
					Name:       name.Name,
					Constraint: constraint,
				})
			}
		}
	}

	rec.Members = p.extractMembers(st.Fields)
	return rec, nil
}

// extractMembers extracts member declarations from a struct.
func (p *Parser) extractMembers(fieldList *ast.FieldList) []model.Member {
	if fieldList == nil {
		return nil
	}

	var members []model.Member
	for _, f := range fieldList.List {
		tag := p.parseTag(f.Tag)
		m := model.Member{
			Type:        p.exprText(f.Type),
			Doc:         commentText(f.Doc),
			Tag:         tag,
			Markers:     parseMarkers(tag.Values[p.roleKey]),
			Initializer: p.initializer(tag),
		}

		if len(f.Names) == 0 {
			// Embedded fields are keyed by their type name.
			m.Embedded = true
			m.Names = []string{embeddedName(f.Type)}
		} else {
			for _, name := range f.Names {
				m.Names = append(m.Names, name.Name)
			}
		}
		members = append(members, m)
	}
	return members
}

func (p *Parser) initializer(tag model.StructTag) *string {
	if v, ok := tag.Values[p.defaultKey]; ok {
		return &v
	}
	return nil
}

// exprText returns the source text of a type expression.
func (p *Parser) exprText(expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, p.fset, expr); err != nil {
		return ""
	}
	return buf.String()
}

// embeddedName returns the field name of an embedded type: T, *T, pkg.T, T[A].
func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}

// parseTag parses a struct tag.
func (p *Parser) parseTag(lit *ast.BasicLit) model.StructTag {
	if lit == nil {
		return model.StructTag{Values: make(map[string]string)}
	}

	raw := strings.Trim(lit.Value, "`")
	tag := reflect.StructTag(raw)

	values := make(map[string]string)
	for _, key := range []string{p.roleKey, p.defaultKey, "json", "yaml"} {
		if v, ok := tag.Lookup(key); ok {
			values[key] = v
		}
	}

	return model.StructTag{
		Raw:    raw,
		Values: values,
	}
}

// parseMarkers parses a role tag value such as "accumulating,adder=AddTag".
func parseMarkers(value string) []model.Marker {
	if value == "" || value == "-" {
		return nil
	}

	var markers []model.Marker
	args := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if k, v, ok := strings.Cut(part, "="); ok {
			args[strings.TrimSpace(k)] = strings.TrimSpace(v)
			continue
		}
		switch part {
		case string(model.MarkerRequired):
			markers = append(markers, model.Marker{Name: model.MarkerRequired})
		case string(model.MarkerAccumulating), "accumulate":
			markers = append(markers, model.Marker{Name: model.MarkerAccumulating})
		}
	}

	// Arguments belong to the accumulating marker; it is the only one taking any.
	for i := range markers {
		if markers[i].Name == model.MarkerAccumulating && len(args) > 0 {
			markers[i].Args = args
		}
	}
	return markers
}

// parseDirective finds the builder directive in a doc comment. Directive
// lines are excluded from CommentGroup.Text, so the raw list is scanned.
func parseDirective(doc *ast.CommentGroup) (*model.Directive, error) {
	if doc == nil {
		return nil, nil
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
			continue
		}

		d := &model.Directive{}
		for _, tok := range strings.Fields(rest) {
			key, value, _ := strings.Cut(tok, "=")
			switch key {
			case "order":
				for _, name := range strings.Split(value, ",") {
					if name = strings.TrimSpace(name); name != "" {
						d.Order = append(d.Order, name)
					}
				}
			case "strict":
				d.Strict = true
			case "loop":
				d.LoopAccumulators = true
			default:
				return nil, fmt.Errorf("unknown %s option %q", Directive, tok)
			}
		}
		return d, nil
	}
	return nil, nil
}

// commentText extracts text from a comment group.
func commentText(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	return strings.TrimSpace(cg.Text())
}
