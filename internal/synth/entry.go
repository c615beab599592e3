package synth

import "stagegen/internal/naming"

// EntryName returns the factory name for a record, unexported when the
// record is.
func EntryName(record string, exported bool) string {
	return naming.Exported("New"+naming.Capitalize(record)+"Builder", exported)
}

// entry synthesizes the factory returning the first stage, or the terminal
// stage directly when there is nothing to supply.
func (c *chain) entry(exported bool) Entry {
	return Entry{
		Name:   EntryName(c.record, exported),
		Result: c.stageName(0),
		Carry:  c.literal(0, 0, nil),
	}
}
