package synth

import (
	"fmt"
	"strconv"

	"stagegen/internal/naming"
)

// chain holds everything derived from the step list that the stage, final
// and entry synthesizers share.
type chain struct {
	record  string
	fields  []Field
	steps   []Step
	storage []string // carried field name per step index
	loop    bool
	imports map[string]bool // standard packages the generated code refers to

	// nonTerminal is the number of stages before the terminal one. A trailing
	// accumulating step is seeded in the terminal stage instead of having a
	// stage of its own.
	nonTerminal int
}

func newChain(record string, fields []Field, steps []Step, loop bool) *chain {
	c := &chain{
		record:      record,
		fields:      fields,
		steps:       steps,
		loop:        loop,
		imports:     make(map[string]bool),
		nonTerminal: len(steps),
	}
	if n := len(steps); n > 0 && steps[n-1].Field.Role == RoleAccumulating {
		c.nonTerminal = n - 1
	}

	used := make(map[string]bool, len(steps))
	for _, st := range steps {
		base := naming.StorageName(st.Name)
		name := base
		for i := 2; used[name]; i++ {
			name = base + strconv.Itoa(i)
		}
		used[name] = true
		c.storage = append(c.storage, name)
	}
	return c
}

// stageName returns the type name of the stage at chain index i.
func (c *chain) stageName(i int) string {
	if i >= c.nonTerminal {
		return c.record + "Final"
	}
	return fmt.Sprintf("%sStage%d", c.record, i)
}

// carriedCount is the number of step values stored by stage i.
func (c *chain) carriedCount(i int) int {
	if i >= c.nonTerminal {
		return len(c.steps)
	}
	return i
}

func (c *chain) carried(i int) []Carried {
	n := c.carriedCount(i)
	out := make([]Carried, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, Carried{
			Storage: c.storage[j],
			Field:   c.steps[j].Name,
			Type:    c.steps[j].Field.Type,
		})
	}
	return out
}

// literal builds the composite literal for stage target, constructed from a
// stage that already carries the first have step values. Values in supplied
// replace the carried or seeded ones.
func (c *chain) literal(have, target int, supplied map[int]string) []Assign {
	n := c.carriedCount(target)
	out := make([]Assign, 0, n)
	for j := 0; j < n; j++ {
		var expr string
		switch v, ok := supplied[j]; {
		case ok:
			expr = v
		case j < have:
			expr = "s." + c.storage[j]
		default:
			expr = ResolveDefault(c.steps[j].Field)
		}
		out = append(out, Assign{Key: c.storage[j], Expr: expr})
	}
	return out
}

// stage synthesizes non-terminal stage i. Its only own operation advances past
// steps[i]. An accumulating step is supplied whole here, under its adder name;
// element-wise contributions are left to the terminal stage and loop operations.
func (c *chain) stage(i int) Stage {
	st := c.steps[i]
	next := i + 1

	name := SetterName(st.Name)
	if st.Field.Role == RoleAccumulating {
		name = st.Field.Adder
	}
	op := Operation{
		Kind:   OpAdvance,
		Name:   name,
		Field:  st.Name,
		Type:   st.Field.Type,
		Params: []Param{{Name: "value", Type: st.Field.Type}},
		Result: c.stageName(next),
	}
	op.Carry = c.literal(i, next, map[int]string{i: c.clone(st.Field, "value")})

	stage := Stage{
		Name:    c.stageName(i),
		Index:   i,
		Carried: c.carried(i),
		Ops:     []Operation{op},
	}
	if loop, ok := c.loopOp(i); ok {
		stage.Ops = append(stage.Ops, loop)
	}
	return stage
}

// clone wraps expr in a copy when f has a collection shape, so that stages
// never share a slice or map with their callers. The package providing the
// copy is recorded in c.imports.
func (c *chain) clone(f Field, expr string) string {
	var pkg string
	switch f.Shape().Kind {
	case ShapeSequence:
		pkg = "slices"
	case ShapeMapping, ShapeUniqueSet:
		pkg = "maps"
	default:
		return expr
	}
	c.imports[pkg] = true
	return pkg + ".Clone(" + expr + ")"
}

// loopOp returns the self-returning accumulator for the step stage i was
// reached through, when loop accumulators are enabled and that step accumulates.
func (c *chain) loopOp(i int) (Operation, bool) {
	if !c.loop || i == 0 || i > len(c.steps) {
		return Operation{}, false
	}
	prev := i - 1
	if c.steps[prev].Field.Role != RoleAccumulating {
		return Operation{}, false
	}
	return c.selfAccumulator(i, prev), true
}

// selfAccumulator builds the operation on stage i that accumulates into the
// carried value of step j and returns a new stage i.
func (c *chain) selfAccumulator(i, j int) Operation {
	op := accumulator(c.steps[j].Field, "s."+c.storage[j])
	op.Self = true
	op.Result = c.stageName(i)
	op.Carry = c.literal(c.carriedCount(i), i, map[int]string{j: op.resultExpr()})
	return op
}

// accumulator builds the operation applying one contribution to field f,
// starting from base.
func accumulator(f Field, base string) Operation {
	op := Operation{
		Name:  f.Adder,
		Field: f.Name,
		Type:  f.Type,
	}
	shape := f.Shape()
	switch shape.Kind {
	case ShapeSequence:
		op.Kind = OpAppend
		op.Params = []Param{{Name: "value", Type: shape.Elem}}
	case ShapeMapping:
		op.Kind = OpInsert
		op.Params = []Param{{Name: "key", Type: shape.Key}, {Name: "value", Type: shape.Value}}
	case ShapeUniqueSet:
		op.Kind = OpInclude
		op.Params = []Param{{Name: "value", Type: shape.Elem}}
		op.Present = "struct{}{}"
	default:
		op.Kind = OpReplace
		op.Params = []Param{{Name: "value", Type: f.Type}}
		return op
	}
	op.Base = base
	return op
}

// resultExpr is the expression holding the new value of the target field
// once the operation body ran.
func (op Operation) resultExpr() string {
	switch op.Kind {
	case OpAppend, OpInsert, OpInclude:
		return "next"
	}
	return "value"
}
