package synth

// ResolveSteps returns the names that must be supplied through the chain.
// A non-empty explicit order is returned as given, without checking it against
// the fields; otherwise the required and accumulating fields are taken in
// declaration order.
func ResolveSteps(fields []Field, explicit []string) []string {
	if len(explicit) > 0 {
		return append([]string(nil), explicit...)
	}
	var steps []string
	for _, f := range fields {
		if f.Role.IsStep() {
			steps = append(steps, f.Name)
		}
	}
	return steps
}
