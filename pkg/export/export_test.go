package export

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/prototypyside/prototypyside/pkg/cache"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/pagination"
	"github.com/prototypyside/prototypyside/pkg/rctx"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// solidTemplate is a static component with only a background fill, so
// rendering never needs fonts or image assets.
func solidTemplate() *model.ComponentTemplate {
	tpl := model.NewComponentTemplate("solid")
	tpl.SetGeometry(units.NewGeometry(units.MustParse("2in"), units.MustParse("2in")))
	tpl.SetBackground(model.RGBA(200, 30, 30, 255))
	tpl.SetRoundedCorners(false)
	return tpl
}

func staticManager(t *testing.T) (*pagination.Manager, *model.LayoutTemplate) {
	t.Helper()
	layout, err := model.NewLayoutTemplate("sheet")
	if err != nil {
		t.Fatalf("NewLayoutTemplate: %v", err)
	}
	if err := layout.SetGrid(1, 2); err != nil {
		t.Fatalf("SetGrid: %v", err)
	}
	layout.AssignTemplate(solidTemplate())
	mgr, err := pagination.NewManager(layout, nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr, layout
}

func TestExportPNGWritesNumberedFiles(t *testing.T) {
	mgr, layout := staticManager(t)
	dir := t.TempDir()

	e := New(nil, nil, Options{DPI: 72})
	paths, err := e.ExportPNG(context.Background(), mgr, layout, dir, "sheet")
	if err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d files, want 1", len(paths))
	}
	if want := filepath.Join(dir, "sheet-001.png"); paths[0] != want {
		t.Errorf("path = %s, want %s", paths[0], want)
	}

	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// letter page at 72 DPI
	if w := img.Bounds().Dx(); w < 610 || w > 614 {
		t.Errorf("raster width = %d, want ~612", w)
	}
}

func TestExportPDFWritesFile(t *testing.T) {
	mgr, layout := staticManager(t)
	path := filepath.Join(t.TempDir(), "sheet.pdf")

	e := New(nil, nil, Options{})
	if err := e.ExportPDF(context.Background(), mgr, layout, path); err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 8 || string(data[:5]) != "%PDF-" {
		t.Errorf("output is not a PDF (%d bytes)", len(data))
	}
}

func TestRasterRouteUsesCache(t *testing.T) {
	mgr, layout := staticManager(t)
	dir := t.TempDir()

	c, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	e := New(nil, c, Options{DPI: 72, Route: rctx.Raster})
	if _, err := e.ExportPNG(context.Background(), mgr, layout, dir, "sheet"); err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}

	// Both slots share the static instance, so exactly one raster entry
	// lands in the cache.
	entries := 0
	filepath.Walk(filepath.Join(dir, "cache"), func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			entries++
		}
		return nil
	})
	if entries != 1 {
		t.Errorf("cache entries = %d, want 1", entries)
	}
}

func TestExportPDFBadPath(t *testing.T) {
	mgr, layout := staticManager(t)
	e := New(nil, nil, Options{})
	err := e.ExportPDF(context.Background(), mgr, layout, filepath.Join(t.TempDir(), "missing", "out.pdf"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestContentHash(t *testing.T) {
	tpl := solidTemplate()
	g := units.NewGeometry(units.MustParse("1in"), units.MustParse("0.5in"))
	tpl.AddElement(model.NewTextElement("@title", g))

	a := tpl.Instantiate(map[string]string{"@title": "one"})
	b := tpl.Instantiate(map[string]string{"@title": "two"})
	same := tpl.Instantiate(map[string]string{"@title": "one"})

	if contentHash(a) == contentHash(b) {
		t.Error("different content should hash differently")
	}
	if contentHash(a) != contentHash(same) {
		t.Error("equal content should hash equally")
	}
}

func TestFontStyle(t *testing.T) {
	if fontStyle(false, false) != canvas.FontRegular {
		t.Error("regular style wrong")
	}
	if fontStyle(true, false) != canvas.FontBold {
		t.Error("bold style wrong")
	}
	if s := fontStyle(true, true); s&canvas.FontItalic == 0 {
		t.Errorf("bold italic missing italic bit: %v", s)
	}
}

func TestPxToMM(t *testing.T) {
	if got := pxToMM(300, 300); got != 25.4 {
		t.Errorf("pxToMM(300, 300) = %v, want 25.4", got)
	}
}

func TestWrapText(t *testing.T) {
	// width <= 0 disables wrapping, so no font face is needed
	lines := wrapText("hello world\n\nbye", 0, nil)
	want := []string{"hello world", "", "bye"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
