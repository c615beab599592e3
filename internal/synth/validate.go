package synth

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStep   = errors.New("step names no field of the record")
	ErrDuplicateStep = errors.New("step is listed more than once")
	ErrPlainStep     = errors.New("step names a field that is neither required nor accumulating")
	ErrMissingStep   = errors.New("field is missing from the step order")
)

// checkOrder reports every way an explicit order disagrees with the declared
// roles. The findings are warnings unless strict validation is requested.
func checkOrder(fields []Field, order []string) []error {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	var errs []error
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		f, ok := byName[name]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStep, name))
		case seen[name]:
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateStep, name))
		case !f.Role.IsStep():
			errs = append(errs, fmt.Errorf("%w: %q", ErrPlainStep, name))
		}
		seen[name] = true
	}

	for _, f := range fields {
		if f.Role.IsStep() && !seen[f.Name] {
			errs = append(errs, fmt.Errorf("%w: %s field %q", ErrMissingStep, f.Role, f.Name))
		}
	}
	return errs
}

// resolveStepFields pairs step names with their fields. A name without a
// field becomes a required step of type any.
func resolveStepFields(fields []Field, names []string) []Step {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	steps := make([]Step, 0, len(names))
	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			f = Field{Name: name, Type: "any", Role: RoleRequired}
		}
		steps = append(steps, Step{Name: name, Field: f, Known: ok})
	}
	return steps
}
