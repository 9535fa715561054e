package pagination

import (
	"math"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// TileOversize slices one oversized component (a poster or folding board)
// into page-sized tiles, one tile per output page. The layout must be a
// 1x1 grid whose slot is bound to the oversized template. Each tile's
// instance carries a pixel viewport the renderer clips to.
//
// Params: "bleed" and "overlap" in pixels at the working DPI, and "dpi"
// (default 300) for the tiling arithmetic.
type TileOversize struct {
	bleed   float64
	overlap float64
	dpi     int
	tiles   []Placement
	cursor  int
}

func newTileOversize(params Params) (Policy, error) {
	bleed, err := params.floatVal("bleed", 0)
	if err != nil {
		return nil, err
	}
	overlap, err := params.floatVal("overlap", 30)
	if err != nil {
		return nil, err
	}
	dpi, err := params.intVal("dpi", units.DefaultDPI)
	if err != nil {
		return nil, err
	}
	if bleed < 0 || overlap < 0 || dpi <= 0 {
		return nil, errors.New(errors.ErrCodeConfiguration,
			"tile params must be non-negative with a positive dpi")
	}
	return &TileOversize{bleed: bleed, overlap: overlap, dpi: dpi}, nil
}

func (p *TileOversize) Name() string { return "tile-oversize" }

func (p *TileOversize) Prepare(layout *model.LayoutTemplate, sources Sources) error {
	g, err := prepareGrid(layout, sources)
	if err != nil {
		return err
	}
	if len(g.slots) != 1 {
		return errors.New(errors.ErrCodeConfiguration,
			"tile-oversize needs exactly one slot, layout has %d", len(g.slots))
	}
	slot := g.slots[0]
	tpl := slot.Template()
	if tpl == nil {
		return errors.New(errors.ErrCodeConfiguration, "tile-oversize slot has no template bound")
	}

	pageRect := layout.Geometry().ToPxRect(p.dpi)
	compRect := tpl.Geometry().ToPxRect(p.dpi)
	cols := int(math.Ceil(compRect.W / pageRect.W))
	rows := int(math.Ceil(compRect.H / pageRect.H))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	// A data-bound oversize component repeats its first row on every tile.
	var data map[string]string
	if group := g.groups[tpl.PID()]; group != nil {
		data, _ = group.nextRow()
	}

	p.tiles = p.tiles[:0]
	p.cursor = 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			left := math.Max(float64(c)*pageRect.W-p.overlap, 0)
			top := math.Max(float64(r)*pageRect.H-p.overlap, 0)
			right := math.Min(left+pageRect.W+p.bleed, compRect.W)
			bottom := math.Min(top+pageRect.H+p.bleed, compRect.H)

			inst := tpl.Instantiate(data)
			inst.SetViewport(&units.PxRect{X: left, Y: top, W: right - left, H: bottom - top})
			p.tiles = append(p.tiles, Placement{Slot: slot, Instance: inst})
		}
	}
	return nil
}

func (p *TileOversize) NextPage() ([]Placement, error) {
	if p.tiles == nil {
		return nil, errors.New(errors.ErrCodePagination, "tile-oversize policy used before Prepare")
	}
	if p.cursor >= len(p.tiles) {
		return nil, nil
	}
	page := []Placement{p.tiles[p.cursor]}
	p.cursor++
	return page, nil
}
