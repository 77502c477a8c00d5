package records

// Table is an immutable, ordered set of events. The zero value is an empty
// table. Every constructor and accessor copies, so callers can never alias
// another stage's rows.
type Table struct {
	rows []Event
}

// NewTable copies events into a new table.
func NewTable(events []Event) Table {
	if len(events) == 0 {
		return Table{}
	}
	return Table{rows: append([]Event(nil), events...)}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.rows) == 0 }

// Rows returns a copy of the rows.
func (t Table) Rows() []Event {
	return append([]Event(nil), t.rows...)
}

// At returns row i.
func (t Table) At(i int) Event { return t.rows[i] }

// Where returns the rows matching keep, in order.
func (t Table) Where(keep func(Event) bool) Table {
	out := make([]Event, 0, len(t.rows))
	for _, e := range t.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	return Table{rows: out}
}

// Stream returns the rows whose DataSource equals id.
func (t Table) Stream(id string) Table {
	return t.Where(func(e Event) bool { return e.DataSource == id })
}

// Concat appends the rows of others after t.
func (t Table) Concat(others ...Table) Table {
	n := len(t.rows)
	for _, o := range others {
		n += len(o.rows)
	}
	out := make([]Event, 0, n)
	out = append(out, t.rows...)
	for _, o := range others {
		out = append(out, o.rows...)
	}
	return Table{rows: out}
}

// Distinct removes exact duplicate rows, keeping first occurrences.
func (t Table) Distinct() Table {
	seen := make(map[eventKey]struct{}, len(t.rows))
	out := make([]Event, 0, len(t.rows))
	for _, e := range t.rows {
		k := e.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return Table{rows: out}
}

// Users lists distinct user names in first-seen order.
func (t Table) Users() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range t.rows {
		if _, ok := seen[e.UserName]; ok {
			continue
		}
		seen[e.UserName] = struct{}{}
		out = append(out, e.UserName)
	}
	return out
}
