package render

import (
	"fmt"
	"strings"
	"text/template"

	"stagegen/internal/naming"
	"stagegen/internal/synth"
)

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// Code helpers
		"params":   params,
		"literal":  literal,
		"stageDoc": stageDoc,
		"opDoc":    opDoc,
		"shape":    synth.ClassifyShape,
		"default":  synth.ResolveDefault,

		// String manipulation
		"camelCase":  naming.CamelCase,
		"pascalCase": naming.PascalCase,
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"join":       strings.Join,
	}
}

// params renders a parameter list ("key string, value int").
func params(ps []synth.Param) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, p.Name+" "+p.Type)
	}
	return strings.Join(parts, ", ")
}

// literal renders the elements of a keyed composite literal.
func literal(as []synth.Assign) string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, a.Key+": "+a.Expr)
	}
	return strings.Join(parts, ", ")
}

// stageDoc completes the doc comment sentence of a stage type.
func stageDoc(plan *synth.Plan, stage synth.Stage) string {
	if stage.Terminal {
		return fmt.Sprintf("holds every step of %s. Call %s to finish.", plan.Record, synth.BuildName)
	}
	if len(stage.Ops) == 0 {
		return "is a construction stage of " + plan.Record + "."
	}
	return fmt.Sprintf("is the %s stage awaiting %s.", plan.Record, stage.Ops[0].Field)
}

// opDoc completes the doc comment sentence of a stage operation.
func opDoc(op synth.Operation) string {
	switch op.Kind {
	case synth.OpAdvance:
		return "sets " + op.Field + "."
	case synth.OpAppend:
		return "appends value to " + op.Field + "."
	case synth.OpInsert:
		return "sets key to value in " + op.Field + "."
	case synth.OpInclude:
		return "adds value to the " + op.Field + " set."
	case synth.OpReplace:
		return "replaces " + op.Field + "."
	case synth.OpBuild:
		return "returns the assembled " + op.Result + "."
	}
	return string(op.Kind) + "."
}
