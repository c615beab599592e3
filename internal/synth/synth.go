// Package synth derives a staged builder from a record declaration.
//
// The pipeline is a pure function: members are classified into fields, the
// step list is resolved (explicit order or required/accumulating fields in
// declaration order), and one stage is synthesized per step that must be
// supplied, followed by a terminal stage that builds the record. Each stage
// exposes only the operation that advances past its own step, so calling the
// steps out of order does not type-check in the generated code.
package synth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"stagegen/internal/model"
)

// Synthesize builds the plan for rec. It only fails in strict mode, when the
// explicit order disagrees with the declared roles.
func Synthesize(rec model.Record, opts Options) (*Plan, error) {
	fields := ClassifyFields(rec.Members)
	names := ResolveSteps(fields, opts.Order)

	var findings []error
	if len(opts.Order) > 0 {
		findings = checkOrder(fields, opts.Order)
	}
	if opts.Strict && len(findings) > 0 {
		return nil, fmt.Errorf("record %s: %w", rec.Name, errors.Join(findings...))
	}

	steps := resolveStepFields(fields, names)
	typeParams, typeArgs := typeParamLists(rec.TypeParams)
	c := newChain(rec.Name, fields, steps, opts.LoopAccumulators)

	plan := &Plan{
		Record:     rec.Name,
		Exported:   rec.IsExported,
		TypeParams: typeParams,
		TypeArgs:   typeArgs,
		Fields:     fields,
		Steps:      steps,
		Entry:      c.entry(rec.IsExported),
	}

	plan.Stages = append(plan.Stages, c.terminal())
	for i := c.nonTerminal - 1; i >= 0; i-- {
		plan.Stages = append(plan.Stages, c.stage(i))
	}

	for pkg := range c.imports {
		plan.Imports = append(plan.Imports, pkg)
	}
	sort.Strings(plan.Imports)

	for _, err := range findings {
		plan.Warnings = append(plan.Warnings, err.Error())
	}
	return plan, nil
}

// typeParamLists renders "[K comparable, V any]" and "[K, V]".
func typeParamLists(params []model.TypeParam) (string, string) {
	if len(params) == 0 {
		return "", ""
	}
	decl := make([]string, 0, len(params))
	args := make([]string, 0, len(params))
	for _, p := range params {
		constraint := p.Constraint
		if constraint == "" {
			constraint = "any"
		}
		decl = append(decl, p.Name+" "+constraint)
		args = append(args, p.Name)
	}
	return "[" + strings.Join(decl, ", ") + "]", "[" + strings.Join(args, ", ") + "]"
}
