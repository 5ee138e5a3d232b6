package model

// Entry pairs a target with its audit result.
type Entry struct {
	Target Target      `json:"target"`
	Result AuditResult `json:"result"`
}

// Batch is the result set of one iteration. It holds exactly one entry per
// input target, in input order.
type Batch []Entry

// Targets returns the targets of the batch in order.
func (b Batch) Targets() []Target {
	out := make([]Target, len(b))
	for i, e := range b {
		out[i] = e.Target
	}
	return out
}

// Failures returns the number of failed entries.
func (b Batch) Failures() int {
	n := 0
	for _, e := range b {
		if e.Result.Failed() {
			n++
		}
	}
	return n
}
