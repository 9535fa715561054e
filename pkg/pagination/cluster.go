package pagination

import (
	"strings"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// Cluster fills complete pages with one dataset at a time instead of mixing
// templates on a page. Cluster order defaults to first appearance in the
// grid; an explicit comma-separated "order" param of template PIDs
// overrides it. Slots bound to other templates stay empty on each page.
type Cluster struct {
	grid  *grid
	order []string
	cur   int
}

func newCluster(params Params) (Policy, error) {
	c := &Cluster{}
	if raw := params.str("order", ""); raw != "" {
		for _, pid := range strings.Split(raw, ",") {
			if pid = strings.TrimSpace(pid); pid != "" {
				c.order = append(c.order, pid)
			}
		}
	}
	return c, nil
}

func (p *Cluster) Name() string { return "cluster" }

func (p *Cluster) Prepare(layout *model.LayoutTemplate, sources Sources) error {
	g, err := prepareGrid(layout, sources)
	if err != nil {
		return err
	}
	p.grid = g
	p.cur = 0
	if p.order == nil {
		for _, tpl := range layout.Templates() {
			if _, ok := g.groups[tpl.PID()]; ok {
				p.order = append(p.order, tpl.PID())
			}
		}
	}
	return nil
}

func (p *Cluster) NextPage() ([]Placement, error) {
	if p.grid == nil {
		return nil, errors.New(errors.ErrCodePagination, "cluster policy used before Prepare")
	}
	for p.cur < len(p.order) {
		pid := p.order[p.cur]
		group := p.grid.groups[pid]
		if group == nil || group.remaining() == 0 {
			p.cur++
			continue
		}

		placements := make([]Placement, len(p.grid.slots))
		for i, slot := range p.grid.slots {
			var inst *model.ComponentInstance
			if tpl := slot.Template(); tpl != nil && tpl.PID() == pid {
				if row, ok := group.nextRow(); ok {
					inst = tpl.Instantiate(row)
				}
			}
			placements[i] = Placement{Slot: slot, Instance: inst}
		}
		return placements, nil
	}
	return nil, nil
}

// StaticCluster prints static templates as full-page blocks before (or
// after) dataset clusters. A static template's copies field decides how
// many instances of it to print in total.
//
// Params: "static_first" (bool, default true) and "order" (explicit
// comma-separated template PIDs, overriding static_first).
type StaticCluster struct {
	grid            *grid
	order           []string
	explicit        []string
	staticFirst     bool
	remainingStatic map[string]int
	cur             int
}

func newStaticCluster(params Params) (Policy, error) {
	first, err := params.boolVal("static_first", true)
	if err != nil {
		return nil, err
	}
	c := &StaticCluster{staticFirst: first}
	if raw := params.str("order", ""); raw != "" {
		for _, pid := range strings.Split(raw, ",") {
			if pid = strings.TrimSpace(pid); pid != "" {
				c.explicit = append(c.explicit, pid)
			}
		}
	}
	return c, nil
}

func (p *StaticCluster) Name() string { return "static-cluster" }

func (p *StaticCluster) Prepare(layout *model.LayoutTemplate, sources Sources) error {
	g, err := prepareGrid(layout, sources)
	if err != nil {
		return err
	}
	p.grid = g
	p.cur = 0
	p.remainingStatic = make(map[string]int)

	var staticPIDs, datasetPIDs []string
	for _, tpl := range layout.Templates() {
		if _, ok := g.groups[tpl.PID()]; ok {
			datasetPIDs = append(datasetPIDs, tpl.PID())
		} else {
			staticPIDs = append(staticPIDs, tpl.PID())
			p.remainingStatic[tpl.PID()] = tpl.Copies()
		}
	}

	switch {
	case p.explicit != nil:
		p.order = p.explicit
	case p.staticFirst:
		p.order = append(staticPIDs, datasetPIDs...)
	default:
		p.order = append(datasetPIDs, staticPIDs...)
	}
	return nil
}

func (p *StaticCluster) clusterDone(pid string) bool {
	if group, ok := p.grid.groups[pid]; ok {
		return group.remaining() == 0
	}
	return p.remainingStatic[pid] <= 0
}

func (p *StaticCluster) NextPage() ([]Placement, error) {
	if p.grid == nil {
		return nil, errors.New(errors.ErrCodePagination, "static-cluster policy used before Prepare")
	}
	for p.cur < len(p.order) && p.clusterDone(p.order[p.cur]) {
		p.cur++
	}
	if p.cur >= len(p.order) {
		return nil, nil
	}

	pid := p.order[p.cur]
	group := p.grid.groups[pid]
	placements := make([]Placement, len(p.grid.slots))

	for i, slot := range p.grid.slots {
		var inst *model.ComponentInstance
		tpl := slot.Template()
		if tpl != nil && tpl.PID() == pid {
			if group != nil {
				if row, ok := group.nextRow(); ok {
					inst = tpl.Instantiate(row)
				}
			} else if p.remainingStatic[pid] > 0 {
				inst = tpl.StaticInstance()
				p.remainingStatic[pid]--
			}
		}
		placements[i] = Placement{Slot: slot, Instance: inst}
	}

	if p.clusterDone(pid) {
		p.cur++
	}
	return placements, nil
}
