package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// writeSolidTemplates saves a background-only component on a 1x2 layout, so
// exporting never needs fonts or image assets.
func writeSolidTemplates(t *testing.T, dir string) (layoutPath, componentPath string) {
	t.Helper()

	tpl := model.NewComponentTemplate("solid")
	tpl.SetGeometry(units.NewGeometry(units.MustParse("2in"), units.MustParse("2in")))
	tpl.SetBackground(model.RGBA(200, 30, 30, 255))

	layout, err := model.NewLayoutTemplate("sheet")
	if err != nil {
		t.Fatal(err)
	}
	if err := layout.SetGrid(1, 2); err != nil {
		t.Fatal(err)
	}
	layout.AssignTemplate(tpl)

	componentPath = filepath.Join(dir, "solid.json")
	layoutPath = filepath.Join(dir, "sheet.json")
	if err := model.SaveTemplateFile(componentPath, tpl); err != nil {
		t.Fatal(err)
	}
	if err := model.SaveTemplateFile(layoutPath, layout); err != nil {
		t.Fatal(err)
	}
	return layoutPath, componentPath
}

func countCacheEntries(t *testing.T, cacheHome string) int {
	t.Helper()
	entries := 0
	err := filepath.WalkDir(cacheHome, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			entries++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk cache dir: %v", err)
	}
	return entries
}

// PNG export goes through the raster route, so the shared static instance
// lands in the file-backed render cache exactly once.
func TestExportPNGPopulatesRenderCache(t *testing.T) {
	dir := t.TempDir()
	cacheHome := filepath.Join(dir, "cache")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	layoutPath, componentPath := writeSolidTemplates(t, dir)
	out := filepath.Join(dir, "out")

	cmd := newExportCmd()
	cmd.SetArgs([]string{"--export", out, "--png", "--dpi", "72", layoutPath, componentPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	if _, err := os.Stat(filepath.Join(out, "sheet-001.png")); err != nil {
		t.Fatalf("png page missing: %v", err)
	}
	if got := countCacheEntries(t, cacheHome); got != 1 {
		t.Errorf("cache entries = %d, want 1", got)
	}
}

func TestExportNoCacheLeavesCacheEmpty(t *testing.T) {
	dir := t.TempDir()
	cacheHome := filepath.Join(dir, "cache")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	layoutPath, componentPath := writeSolidTemplates(t, dir)

	cmd := newExportCmd()
	cmd.SetArgs([]string{"--export", filepath.Join(dir, "out"), "--png", "--dpi", "72", "--no-cache", layoutPath, componentPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	if got := countCacheEntries(t, cacheHome); got != 0 {
		t.Errorf("cache entries = %d, want 0", got)
	}
}
