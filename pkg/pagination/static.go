package pagination

import (
	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// StaticFirstRow reserves the first N grid rows for static content on every
// page and fills the remaining rows from datasets. Templates without a
// dataset are static everywhere, not just in the reserved rows.
//
// Params: "static_rows" (int, default 1).
type StaticFirstRow struct {
	grid       *grid
	staticRows int
	emitted    int
}

func newStaticFirstRow(params Params) (Policy, error) {
	rows, err := params.intVal("static_rows", 1)
	if err != nil {
		return nil, err
	}
	if rows < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "static_rows must be non-negative, got %d", rows)
	}
	return &StaticFirstRow{staticRows: rows}, nil
}

func (p *StaticFirstRow) Name() string { return "static-first-row" }

func (p *StaticFirstRow) Prepare(layout *model.LayoutTemplate, sources Sources) error {
	g, err := prepareGrid(layout, sources)
	if err != nil {
		return err
	}
	p.grid = g
	p.emitted = 0
	return nil
}

func (p *StaticFirstRow) NextPage() ([]Placement, error) {
	if p.grid == nil {
		return nil, errors.New(errors.ErrCodePagination, "static-first-row policy used before Prepare")
	}

	placements := make([]Placement, len(p.grid.slots))
	dataPlaced := false
	staticPlaced := false

	for i, slot := range p.grid.slots {
		var inst *model.ComponentInstance
		tpl := slot.Template()
		group := p.grid.group(slot)

		switch {
		case tpl == nil:
			// unassigned slot stays empty
		case slot.Row() < p.staticRows || group == nil:
			inst = tpl.StaticInstance()
			staticPlaced = true
		default:
			if row, ok := group.nextRow(); ok {
				inst = tpl.Instantiate(row)
				dataPlaced = true
			}
		}
		placements[i] = Placement{Slot: slot, Instance: inst}
	}

	if !dataPlaced {
		if p.emitted == 0 && staticPlaced {
			p.emitted++
			return placements, nil
		}
		return nil, nil
	}
	p.emitted++
	return placements, nil
}
