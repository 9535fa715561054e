package units

import (
	"encoding/json"
	"testing"
)

func TestGeometryPixelConversion(t *testing.T) {
	g := NewGeometryAt(
		MustParse("2.5in"), MustParse("3.5in"),
		MustParse("0.5in"), MustParse("0.25in"),
	)
	r := g.ToPxBounds(300)
	if r.X != 150 || r.Y != 75 || r.W != 750 || r.H != 1050 {
		t.Errorf("bounds at 300dpi = %+v, want {150 75 750 1050}", r)
	}

	// Local rect ignores position.
	local := g.ToPxRect(300)
	if local.X != 0 || local.Y != 0 || local.W != 750 || local.H != 1050 {
		t.Errorf("local rect = %+v, want {0 0 750 1050}", local)
	}
}

func TestGeometryConversionIdempotent(t *testing.T) {
	g := NewGeometryAt(
		MustParse("63.5mm"), MustParse("88.9mm"),
		MustParse("10mm"), MustParse("5mm"),
	)
	// px -> geometry -> px at the same DPI must not drift.
	r1 := g.ToPxBounds(300)
	back := GeometryFromPx(PxRect{X: 0, Y: 0, W: r1.W, H: r1.H}, PxPoint{X: r1.X, Y: r1.Y}, 300)
	r2 := back.ToPxBounds(300)
	if r1 != r2 {
		t.Errorf("pixel drift across conversions: %+v vs %+v", r1, r2)
	}
	if !back.Width().Equal(g.Width()) || !back.Height().Equal(g.Height()) {
		t.Errorf("stored size changed: %s x %s vs %s x %s",
			back.Width(), back.Height(), g.Width(), g.Height())
	}
}

func TestWithPxPosPreservesSize(t *testing.T) {
	g := NewGeometryAt(
		MustParse("2.5in"), MustParse("3.5in"),
		MustParse("1in"), MustParse("1in"),
	)
	moved := g.WithPxPos(PxPoint{X: 600, Y: 900}, 300)

	if !moved.Width().Equal(g.Width()) || !moved.Height().Equal(g.Height()) {
		t.Error("WithPxPos must not change width/height")
	}
	if !moved.RectX().Equal(g.RectX()) || !moved.RectY().Equal(g.RectY()) {
		t.Error("WithPxPos must not change the local rect origin")
	}
	if got := moved.PosX().In(); got != 2 {
		t.Errorf("moved x = %v in, want 2", got)
	}
	if got := moved.PosY().In(); got != 3 {
		t.Errorf("moved y = %v in, want 3", got)
	}
	// The source geometry is untouched.
	if got := g.PosX().In(); got != 1 {
		t.Errorf("source geometry mutated: x = %v", got)
	}
}

func TestWithPxRectPreservesPosition(t *testing.T) {
	g := NewGeometryAt(
		MustParse("2.5in"), MustParse("3.5in"),
		MustParse("1in"), MustParse("1in"),
	)
	resized := g.WithPxRect(PxRect{X: 0, Y: 0, W: 300, H: 600}, 300)

	if !resized.PosX().Equal(g.PosX()) || !resized.PosY().Equal(g.PosY()) {
		t.Error("WithPxRect must not change position")
	}
	if got := resized.Width().In(); got != 1 {
		t.Errorf("resized width = %v in, want 1", got)
	}
	if got := resized.Height().In(); got != 2 {
		t.Errorf("resized height = %v in, want 2", got)
	}
}

func TestGeometryEqualIgnoresDisplayView(t *testing.T) {
	a := NewGeometry(MustParse("1in"), MustParse("2in"))
	b := NewGeometry(MustParse("25.4mm"), MustParse("50.8mm"))
	if !a.Equal(b) {
		t.Error("geometries denoting the same physical size must compare equal")
	}
	// Changing the display view never breaks equality.
	if !a.To(Px, 96).Equal(b.To(Pt, 72)) {
		t.Error("display conversion broke equality")
	}
}

func TestGeometryJSONRoundTrip(t *testing.T) {
	g := NewGeometryAt(
		MustParse("2.5in"), MustParse("3.5in"),
		MustParse("0.5in"), MustParse("0.75in"),
	)
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back UnitStrGeometry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !g.Equal(back) {
		t.Error("JSON round-trip changed the geometry")
	}
	if back.Unit() != g.Unit() || back.DPI() != g.DPI() {
		t.Errorf("JSON round-trip changed unit/dpi: %s@%d vs %s@%d",
			back.Unit(), back.DPI(), g.Unit(), g.DPI())
	}
}

func TestPageSizeLookup(t *testing.T) {
	letter, err := PageSize("Letter", false)
	if err != nil {
		t.Fatalf("PageSize(letter): %v", err)
	}
	if letter.Width().In() != 8.5 || letter.Height().In() != 11 {
		t.Errorf("letter = %s x %s", letter.Width(), letter.Height())
	}

	landscape, err := PageSize("a4", true)
	if err != nil {
		t.Fatalf("PageSize(a4): %v", err)
	}
	if landscape.Width().MM() != 297 || landscape.Height().MM() != 210 {
		t.Errorf("a4 landscape = %s x %s", landscape.Width(), landscape.Height())
	}

	if _, err := PageSize("b9", false); err == nil {
		t.Error("unknown page size should fail")
	}
}
