// Package ledger records which (page, model-pair) cells have been judged.
// It is the single source of truth for completion: a cell exists if and
// only if the evaluator made an explicit selection, so absence means
// "not yet judged" rather than a stored neutral value.
package ledger

import "sort"

// Outcome is the evaluator's choice for one cell.
type Outcome string

const (
	OutcomeModelA Outcome = "model_a"
	OutcomeModelB Outcome = "model_b"
	OutcomeTie    Outcome = "tie"
)

// Valid reports whether o is one of the three recordable outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeModelA, OutcomeModelB, OutcomeTie:
		return true
	}
	return false
}

// CellKey addresses one judgment cell. ModelA and ModelB keep the pair's
// canonical orientation, so a cell has exactly one key.
type CellKey struct {
	Page   int
	ModelA string
	ModelB string
}

// Cell is a recorded judgment: a key plus its outcome.
type Cell struct {
	CellKey
	Outcome Outcome
}

// Ledger is the in-memory judgment record for one session. Not safe for
// concurrent use; the session layer serializes access.
type Ledger struct {
	cells map[CellKey]Outcome
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{cells: make(map[CellKey]Outcome)}
}

// Get returns the recorded outcome for a cell, if any.
func (l *Ledger) Get(key CellKey) (Outcome, bool) {
	o, ok := l.cells[key]
	return o, ok
}

// Set records an outcome, overwriting any prior outcome for the cell.
func (l *Ledger) Set(key CellKey, o Outcome) {
	l.cells[key] = o
}

// Clear removes a cell, returning it to the unjudged state. Clearing an
// absent cell is a no-op.
func (l *Ledger) Clear(key CellKey) {
	delete(l.cells, key)
}

// Toggle applies radio-button semantics: selecting the outcome already
// recorded for the cell clears it; selecting anything else replaces it.
// The returned bool reports whether the cell is judged afterwards.
func (l *Ledger) Toggle(key CellKey, o Outcome) bool {
	if current, ok := l.cells[key]; ok && current == o {
		delete(l.cells, key)
		return false
	}
	l.cells[key] = o
	return true
}

// Len returns the number of judged cells.
func (l *Ledger) Len() int {
	return len(l.cells)
}

// Cells returns every recorded judgment sorted by (page, modelA, modelB),
// so snapshots are deterministic regardless of map iteration order.
func (l *Ledger) Cells() []Cell {
	out := make([]Cell, 0, len(l.cells))
	for k, o := range l.cells {
		out = append(out, Cell{CellKey: k, Outcome: o})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		if out[i].ModelA != out[j].ModelA {
			return out[i].ModelA < out[j].ModelA
		}
		return out[i].ModelB < out[j].ModelB
	})
	return out
}
