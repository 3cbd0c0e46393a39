// Package tabular moves typed records between the reconciliation core and
// tabular storage.
//
// Sources read the raw activity log and the roster; sinks persist the named
// result tables. The core never inspects file headers or cell formatting:
// loaders resolve those before rows reach it, and tables arrive at sinks
// already rendered to strings.
package tabular

import (
	"context"

	"github.com/rollcall/rollcall/internal/domain/model"
)

// Table is an ordered, named grid of string cells ready for persistence.
// Values are formatted before a Table is built; sinks never reformat them.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Source yields the two reconciliation inputs in file order.
type Source interface {
	// Events returns the raw activity log. Rows with a blank name or a
	// non-numeric hours cell are dropped and counted, never returned.
	Events(ctx context.Context) ([]model.EventRecord, error)

	// Roster returns the identity roster rows, duplicates included.
	Roster(ctx context.Context) ([]model.RosterRecord, error)
}

// Sink persists one named result table per call.
type Sink interface {
	Write(ctx context.Context, t Table) error
}
