package synth

// BuildName is the name of the terminal operation constructing the record.
const BuildName = "Build"

// terminal synthesizes the final stage: it carries every step, repeats the
// last step when it accumulates, and builds the record.
func (c *chain) terminal() Stage {
	idx := c.nonTerminal
	stage := Stage{
		Name:     c.stageName(idx),
		Index:    idx,
		Terminal: true,
		Carried:  c.carried(idx),
	}

	if loop, ok := c.loopOp(idx); ok {
		stage.Ops = append(stage.Ops, loop)
	}
	if n := len(c.steps); n > 0 && c.steps[n-1].Field.Role == RoleAccumulating {
		stage.Ops = append(stage.Ops, c.selfAccumulator(idx, n-1))
	}
	stage.Ops = append(stage.Ops, c.build())
	return stage
}

// build assembles the record literal in field declaration order. Fields that
// are steps take a copy of their carried value; a field listed twice takes the
// value of its last step.
func (c *chain) build() Operation {
	carriedBy := make(map[string]int, len(c.steps))
	for j, st := range c.steps {
		if st.Known {
			carriedBy[st.Name] = j
		}
	}

	args := make([]Assign, 0, len(c.fields))
	for _, f := range c.fields {
		expr := ResolveDefault(f)
		if j, ok := carriedBy[f.Name]; ok {
			expr = c.clone(c.steps[j].Field, "s."+c.storage[j])
		}
		args = append(args, Assign{Key: f.Name, Expr: expr})
	}

	return Operation{
		Kind:   OpBuild,
		Name:   BuildName,
		Result: c.record,
		Carry:  args,
	}
}
