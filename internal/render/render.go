// Package render turns synthesized builder plans into Go source or YAML.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
	"gopkg.in/yaml.v3"

	"stagegen/internal/model"
	"stagegen/internal/synth"
)

//go:embed templates/builder.go.tmpl
var builderTemplate string

// Data is passed to templates.
type Data struct {
	Package string         // Package of the generated file
	Source  string         // Base name of the input file
	Imports []model.Import // Imports referenced by the plans
	Plans   []*synth.Plan  // One plan per generated record
}

// Renderer executes a builder template.
type Renderer struct {
	template   *template.Template
	goSource   bool // output is Go and gets formatted
	fixImports bool
}

// New creates a Renderer using the built-in builder template.
func New(fixImports bool) *Renderer {
	return &Renderer{
		template:   template.Must(template.New("builder.go.tmpl").Funcs(templateFuncs()).Parse(builderTemplate)),
		goSource:   true,
		fixImports: fixImports,
	}
}

// LoadTemplate replaces the built-in template with the file at path. Output
// of templates named *.go.tmpl is formatted as Go source.
func (r *Renderer) LoadTemplate(path string) error {
	tmpl, err := template.New(filepath.Base(path)).
		Funcs(templateFuncs()).
		ParseFiles(path)
	if err != nil {
		return fmt.Errorf("loading template: %w", err)
	}
	r.template = tmpl
	r.goSource = strings.HasSuffix(path, ".go.tmpl")
	return nil
}

// Render executes the template. filename is only used to resolve imports
// when fixImports is set.
func (r *Renderer) Render(filename string, data *Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	if !r.goSource {
		return buf.Bytes(), nil
	}

	out, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: !r.fixImports,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return out, nil
}

// EncodePlans writes the plans as a YAML document.
func EncodePlans(w io.Writer, plans []*synth.Plan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := struct {
		Plans []*synth.Plan `yaml:"plans"`
	}{Plans: plans}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding plans: %w", err)
	}
	return enc.Close()
}

var (
	stringLit = regexp.MustCompile("\"(?:[^\"\\\\]|\\\\.)*\"|`[^`]*`|'(?:[^'\\\\]|\\\\.)*'")
	qualifier = regexp.MustCompile(`(?:^|[^.\w])([A-Za-z_]\w*)\.[A-Za-z_]`)
)

// SelectImports returns the imports whose package names are referenced by the
// generated code: step field types, the defaults written into Build and the
// terminal seed, and type parameter constraints, followed by the standard
// packages the plans need. Blank and dot imports are never selected.
func SelectImports(available []model.Import, plans []*synth.Plan) []model.Import {
	used := make(map[string]bool)
	scan := func(text string) {
		text = stringLit.ReplaceAllString(text, `""`)
		for _, m := range qualifier.FindAllStringSubmatch(text, -1) {
			used[m[1]] = true
		}
	}

	var std []string
	for _, p := range plans {
		scan(p.TypeParams)
		carried := make(map[string]bool, len(p.Steps))
		for _, st := range p.Steps {
			scan(st.Field.Type)
			if st.Known {
				carried[st.Name] = true
			}
		}
		// A trailing accumulating step starts from its default.
		if n := len(p.Steps); n > 0 && p.Steps[n-1].Field.Role == synth.RoleAccumulating {
			scan(synth.ResolveDefault(p.Steps[n-1].Field))
		}
		for _, f := range p.Fields {
			if !carried[f.Name] {
				scan(synth.ResolveDefault(f))
			}
		}
		std = append(std, p.Imports...)
	}

	var out []model.Import
	have := make(map[string]bool) // selected package names
	for _, imp := range available {
		if imp.Alias == "_" || imp.Alias == "." {
			continue
		}
		for _, name := range imp.Names() {
			if used[name] {
				out = append(out, imp)
				have[name] = true
				break
			}
		}
	}
	// Standard package paths are their own names.
	for _, path := range std {
		if !have[path] {
			out = append(out, model.Import{Path: path})
			have[path] = true
		}
	}
	return out
}
