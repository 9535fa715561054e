package pagination

import (
	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// Duplex emits pages in front/back pairs aligned for two-sided printing.
// The front template is the first dataset-bound template in the grid; the
// back is named by the "back_pid" param or defaults to the first other
// template. Back placements mirror the front page so each back lands behind
// its front after the sheet flips.
//
// Params: "back_pid" (template PID) and "flip" ("long" or "short",
// default "long").
type Duplex struct {
	grid     *grid
	backPID  string
	flip     string
	frontTpl *model.ComponentTemplate
	backTpl  *model.ComponentTemplate

	// pending holds the back page built alongside the last front page.
	pending []Placement
}

func newDuplex(params Params) (Policy, error) {
	flip := params.str("flip", "long")
	if flip != "long" && flip != "short" {
		return nil, errors.New(errors.ErrCodeConfiguration, `flip must be "long" or "short", got %q`, flip)
	}
	return &Duplex{backPID: params.str("back_pid", ""), flip: flip}, nil
}

func (p *Duplex) Name() string { return "duplex" }

func (p *Duplex) Prepare(layout *model.LayoutTemplate, sources Sources) error {
	g, err := prepareGrid(layout, sources)
	if err != nil {
		return err
	}
	p.grid = g
	p.pending = nil
	p.frontTpl, p.backTpl = nil, nil

	for _, tpl := range layout.Templates() {
		if _, ok := g.groups[tpl.PID()]; ok {
			p.frontTpl = tpl
			break
		}
	}
	if p.frontTpl == nil {
		return errors.New(errors.ErrCodeConfiguration, "duplex layout has no dataset-bound front template")
	}
	for _, tpl := range layout.Templates() {
		if p.backPID != "" {
			if tpl.PID() == p.backPID {
				p.backTpl = tpl
				break
			}
		} else if tpl.PID() != p.frontTpl.PID() {
			p.backTpl = tpl
			break
		}
	}
	if p.backTpl == nil {
		return errors.New(errors.ErrCodeConfiguration, "duplex layout has no back template")
	}
	return nil
}

// mirror returns the slot index that backs the given front slot once the
// sheet flips on the configured edge.
func (p *Duplex) mirror(slot *model.LayoutSlot) int {
	rows, cols := p.grid.layout.Rows(), p.grid.layout.Cols()
	if p.flip == "short" {
		return (rows-1-slot.Row())*cols + slot.Col()
	}
	return slot.Row()*cols + (cols - 1 - slot.Col())
}

func (p *Duplex) NextPage() ([]Placement, error) {
	if p.grid == nil {
		return nil, errors.New(errors.ErrCodePagination, "duplex policy used before Prepare")
	}
	if p.pending != nil {
		back := p.pending
		p.pending = nil
		return back, nil
	}

	group := p.grid.groups[p.frontTpl.PID()]
	if group == nil || group.remaining() == 0 {
		return nil, nil
	}

	front := make([]Placement, len(p.grid.slots))
	back := make([]Placement, len(p.grid.slots))
	for i, slot := range p.grid.slots {
		front[i] = Placement{Slot: slot}
		back[i] = Placement{Slot: slot}
	}

	backGroup := p.grid.groups[p.backTpl.PID()]
	for i, slot := range p.grid.slots {
		tpl := slot.Template()
		if tpl == nil || tpl.PID() != p.frontTpl.PID() {
			continue
		}
		row, ok := group.nextRow()
		if !ok {
			continue
		}
		front[i].Instance = tpl.Instantiate(row)

		var backInst *model.ComponentInstance
		if backGroup != nil {
			if backRow, ok := backGroup.nextRow(); ok {
				backInst = p.backTpl.Instantiate(backRow)
			}
		} else {
			backInst = p.backTpl.StaticInstance()
		}
		back[p.mirror(slot)].Instance = backInst
	}

	p.pending = back
	return front, nil
}
