package units

import (
	"encoding/json"

	"github.com/prototypyside/prototypyside/pkg/errors"
)

// PxPoint is a position in pixel space at some DPI.
type PxPoint struct {
	X float64
	Y float64
}

// PxRect is a rectangle in pixel space at some DPI.
type PxRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// UnitStrGeometry stores a local rectangle (rect x/y, width, height) and an
// independent position (pos x/y), each a [UnitStr]. The separation keeps
// drag and resize operations independent: moving an object never perturbs
// its stored size, and resizing never perturbs its position.
//
// Geometries are immutable; With* methods return new instances.
type UnitStrGeometry struct {
	posX, posY   UnitStr
	rectX, rectY UnitStr
	width        UnitStr
	height       UnitStr
	unit         Unit
	dpi          int
}

// NewGeometry builds a geometry of the given size at position (0,0).
func NewGeometry(width, height UnitStr) UnitStrGeometry {
	return UnitStrGeometry{
		width:  width,
		height: height,
		unit:   width.Unit(),
		dpi:    width.DPI(),
	}
}

// NewGeometryAt builds a geometry of the given size positioned at (x, y).
func NewGeometryAt(width, height, x, y UnitStr) UnitStrGeometry {
	g := NewGeometry(width, height)
	g.posX, g.posY = x, y
	return g
}

// GeometryFromPx interprets rect and pos as pixel measurements at dpi.
func GeometryFromPx(rect PxRect, pos PxPoint, dpi int) UnitStrGeometry {
	return UnitStrGeometry{
		posX:   FromPx(pos.X, dpi),
		posY:   FromPx(pos.Y, dpi),
		rectX:  FromPx(rect.X, dpi),
		rectY:  FromPx(rect.Y, dpi),
		width:  FromPx(rect.W, dpi),
		height: FromPx(rect.H, dpi),
		unit:   Px,
		dpi:    dpi,
	}
}

// Width returns the stored width.
func (g UnitStrGeometry) Width() UnitStr { return g.width }

// Height returns the stored height.
func (g UnitStrGeometry) Height() UnitStr { return g.height }

// PosX returns the stored x position.
func (g UnitStrGeometry) PosX() UnitStr { return g.posX }

// PosY returns the stored y position.
func (g UnitStrGeometry) PosY() UnitStr { return g.posY }

// RectX returns the local rect origin x.
func (g UnitStrGeometry) RectX() UnitStr { return g.rectX }

// RectY returns the local rect origin y.
func (g UnitStrGeometry) RectY() UnitStr { return g.rectY }

// Unit returns the display unit for composite accessors.
func (g UnitStrGeometry) Unit() Unit { return g.unit }

// DPI returns the working DPI.
func (g UnitStrGeometry) DPI() int {
	if g.dpi <= 0 {
		return DefaultDPI
	}
	return g.dpi
}

// To returns a view of the geometry that emits values in the target unit.
// The stored quantities are untouched; only the display unit and DPI change.
func (g UnitStrGeometry) To(unit Unit, dpi int) UnitStrGeometry {
	if dpi <= 0 {
		dpi = g.DPI()
	}
	out := g
	out.unit = unit
	out.dpi = dpi
	return out
}

// ToPxRect returns the local rectangle in pixels at dpi.
// dpi <= 0 uses the geometry's own working DPI.
func (g UnitStrGeometry) ToPxRect(dpi int) PxRect {
	if dpi <= 0 {
		dpi = g.DPI()
	}
	return PxRect{
		X: g.rectX.Px(dpi),
		Y: g.rectY.Px(dpi),
		W: g.width.Px(dpi),
		H: g.height.Px(dpi),
	}
}

// ToPxPos returns the position in pixels at dpi.
func (g UnitStrGeometry) ToPxPos(dpi int) PxPoint {
	if dpi <= 0 {
		dpi = g.DPI()
	}
	return PxPoint{X: g.posX.Px(dpi), Y: g.posY.Px(dpi)}
}

// ToPxBounds returns position plus size as one pixel rectangle, the shape
// renderers consume when painting an object into its parent's space.
func (g UnitStrGeometry) ToPxBounds(dpi int) PxRect {
	if dpi <= 0 {
		dpi = g.DPI()
	}
	return PxRect{
		X: g.posX.Px(dpi),
		Y: g.posY.Px(dpi),
		W: g.width.Px(dpi),
		H: g.height.Px(dpi),
	}
}

// WithPxRect returns a new geometry whose local rect comes from the given
// pixel rectangle, preserving the stored position untouched.
func (g UnitStrGeometry) WithPxRect(rect PxRect, dpi int) UnitStrGeometry {
	if dpi <= 0 {
		dpi = g.DPI()
	}
	out := g
	out.rectX = FromPx(rect.X, dpi)
	out.rectY = FromPx(rect.Y, dpi)
	out.width = FromPx(rect.W, dpi)
	out.height = FromPx(rect.H, dpi)
	out.dpi = dpi
	return out
}

// WithPxPos returns a new geometry positioned at the given pixel point,
// preserving the stored rect and size untouched.
func (g UnitStrGeometry) WithPxPos(pos PxPoint, dpi int) UnitStrGeometry {
	if dpi <= 0 {
		dpi = g.DPI()
	}
	out := g
	out.posX = FromPx(pos.X, dpi)
	out.posY = FromPx(pos.Y, dpi)
	out.dpi = dpi
	return out
}

// WithSize returns a new geometry with the given size, preserving position.
func (g UnitStrGeometry) WithSize(width, height UnitStr) UnitStrGeometry {
	out := g
	out.width = width
	out.height = height
	return out
}

// WithPos returns a new geometry at the given position, preserving size.
func (g UnitStrGeometry) WithPos(x, y UnitStr) UnitStrGeometry {
	out := g
	out.posX = x
	out.posY = y
	return out
}

// Equal compares the six stored quantities, not derived pixel values, so
// geometries converted through different DPIs still compare equal.
func (g UnitStrGeometry) Equal(o UnitStrGeometry) bool {
	return g.posX.Equal(o.posX) &&
		g.posY.Equal(o.posY) &&
		g.rectX.Equal(o.rectX) &&
		g.rectY.Equal(o.rectY) &&
		g.width.Equal(o.width) &&
		g.height.Equal(o.height)
}

// Round returns a geometry with every quantity snapped to its print
// increment.
func (g UnitStrGeometry) Round() UnitStrGeometry {
	out := g
	out.posX = g.posX.Round()
	out.posY = g.posY.Round()
	out.rectX = g.rectX.Round()
	out.rectY = g.rectY.Round()
	out.width = g.width.Round()
	out.height = g.height.Round()
	return out
}

type geometryJSON struct {
	Unit string `json:"unit"`
	DPI  int    `json:"dpi"`
	Pos  struct {
		X UnitStr `json:"x"`
		Y UnitStr `json:"y"`
	} `json:"pos"`
	Rect struct {
		X      UnitStr `json:"x"`
		Y      UnitStr `json:"y"`
		Width  UnitStr `json:"width"`
		Height UnitStr `json:"height"`
	} `json:"rect"`
}

// MarshalJSON encodes the geometry as nested pos/rect unit quantities.
func (g UnitStrGeometry) MarshalJSON() ([]byte, error) {
	var blob geometryJSON
	blob.Unit = g.unit.String()
	blob.DPI = g.DPI()
	blob.Pos.X, blob.Pos.Y = g.posX, g.posY
	blob.Rect.X, blob.Rect.Y = g.rectX, g.rectY
	blob.Rect.Width, blob.Rect.Height = g.width, g.height
	return json.Marshal(blob)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (g *UnitStrGeometry) UnmarshalJSON(data []byte) error {
	var blob geometryJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "invalid geometry")
	}
	unit, err := ParseUnit(blob.Unit)
	if err != nil {
		return err
	}
	dpi := blob.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	*g = UnitStrGeometry{
		posX:   blob.Pos.X,
		posY:   blob.Pos.Y,
		rectX:  blob.Rect.X,
		rectY:  blob.Rect.Y,
		width:  blob.Rect.Width,
		height: blob.Rect.Height,
		unit:   unit,
		dpi:    dpi,
	}
	return nil
}
