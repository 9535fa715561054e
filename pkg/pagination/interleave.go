package pagination

import (
	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// Interleave fills slots in row-major order, drawing the next unconsumed
// row from each slot's bound dataset and rotating among datasets that share
// a template. Static slots repeat their template's static instance on every
// page. Generation stops once every dynamic dataset is exhausted; a layout
// with only static slots yields exactly one page.
type Interleave struct {
	grid    *grid
	stride  int
	page    int
	emitted int
}

func newInterleave(params Params) (Policy, error) {
	stride, err := params.intVal("stride", 0)
	if err != nil {
		return nil, err
	}
	if stride < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "stride must be non-negative, got %d", stride)
	}
	return &Interleave{stride: stride}, nil
}

func (p *Interleave) Name() string { return "interleave" }

func (p *Interleave) Prepare(layout *model.LayoutTemplate, sources Sources) error {
	g, err := prepareGrid(layout, sources)
	if err != nil {
		return err
	}
	p.grid = g
	p.page = 0
	p.emitted = 0
	return nil
}

func (p *Interleave) NextPage() ([]Placement, error) {
	if p.grid == nil {
		return nil, errors.New(errors.ErrCodePagination, "interleave policy used before Prepare")
	}
	slots := p.grid.slots

	offset := 0
	if p.stride > 0 {
		offset = (p.page * p.stride) % len(slots)
	}

	placements := make([]Placement, len(slots))
	dataPlaced := false
	staticPlaced := false

	for i := range slots {
		idx := (offset + i) % len(slots)
		slot := slots[idx]

		var inst *model.ComponentInstance
		switch group := p.grid.group(slot); {
		case slot.Template() == nil:
			// unassigned slot stays empty
		case group == nil:
			inst = slot.Template().StaticInstance()
			staticPlaced = true
		default:
			if row, ok := group.nextRow(); ok {
				inst = slot.Template().Instantiate(row)
				dataPlaced = true
			}
			// an exhausted or empty dataset leaves (slot, nil)
		}
		placements[idx] = Placement{Slot: slot, Instance: inst}
	}

	if !dataPlaced {
		// A purely static layout still deserves one page.
		if p.emitted == 0 && staticPlaced {
			p.page++
			p.emitted++
			return placements, nil
		}
		return nil, nil
	}

	p.page++
	p.emitted++
	return placements, nil
}
