package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/units"
)

func writeTemplates(t *testing.T, dir string, static bool) (layoutPath, componentPath string) {
	t.Helper()

	tpl := model.NewComponentTemplate("card")
	g := units.NewGeometry(units.MustParse("2in"), units.MustParse("0.5in"))
	name := "rules"
	if !static {
		name = "@title"
	}
	tpl.AddElement(model.NewTextElement(name, g))

	layout, err := model.NewLayoutTemplate("deck sheet")
	if err != nil {
		t.Fatal(err)
	}
	if err := layout.SetGrid(2, 3); err != nil {
		t.Fatal(err)
	}
	layout.AssignTemplate(tpl)

	componentPath = filepath.Join(dir, "card.json")
	layoutPath = filepath.Join(dir, "sheet.json")
	if err := model.SaveTemplateFile(componentPath, tpl); err != nil {
		t.Fatal(err)
	}
	if err := model.SaveTemplateFile(layoutPath, layout); err != nil {
		t.Fatal(err)
	}
	return layoutPath, componentPath
}

// A static layout loaded back from disk paginates to exactly one page with
// every slot holding the same static instance.
func TestStaticLayoutEndToEnd(t *testing.T) {
	dir := t.TempDir()
	layoutPath, componentPath := writeTemplates(t, dir, true)

	p, err := loadProject(nil, []string{layoutPath, componentPath}, "")
	if err != nil {
		t.Fatalf("loadProject: %v", err)
	}
	if len(p.layouts) != 1 {
		t.Fatalf("layouts = %d, want 1", len(p.layouts))
	}

	mgr, err := p.manager(p.layouts[0], 0)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if err := mgr.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	count, err := mgr.PageCount()
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("PageCount = %d, want 1", count)
	}

	page, err := mgr.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if len(page.Placements) != 6 {
		t.Fatalf("placements = %d, want 6", len(page.Placements))
	}
	first := page.Placements[0].Instance
	if first == nil {
		t.Fatal("slot 0 empty")
	}
	for i, pl := range page.Placements {
		if pl.Instance != first {
			t.Errorf("slot %d holds a different instance", i)
		}
	}
}

func TestLoadProjectBindsCSV(t *testing.T) {
	dir := t.TempDir()
	layoutPath, componentPath := writeTemplates(t, dir, false)

	csvPath := filepath.Join(dir, "cards.csv")
	body := "@title\none\ntwo\nthree\nfour\nfive\nsix\nseven\n"
	if err := os.WriteFile(csvPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := loadProject(nil, []string{layoutPath, componentPath}, csvPath)
	if err != nil {
		t.Fatalf("loadProject: %v", err)
	}
	mgr, err := p.manager(p.layouts[0], 0)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	count, err := mgr.PageCount()
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	// 7 rows across a 2x3 grid
	if count != 2 {
		t.Fatalf("PageCount = %d, want 2", count)
	}
}

func TestLoadProjectUnresolvedReference(t *testing.T) {
	dir := t.TempDir()
	layoutPath, _ := writeTemplates(t, dir, true)

	_, err := loadProject(nil, []string{layoutPath}, "")
	if !errors.Is(err, errors.ErrCodeInvalidTemplate) {
		t.Fatalf("error = %v, want INVALID_TEMPLATE", err)
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	_, err := loadProject(nil, []string{filepath.Join(t.TempDir(), "absent.json")}, "")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Fatalf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadProjectRejectsNonJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadProject(nil, []string{path}, "")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Fatalf("error = %v, want INVALID_PATH", err)
	}
}

// A lone component template gets wrapped in a default layout.
func TestLoadProjectDefaultLayout(t *testing.T) {
	dir := t.TempDir()
	_, componentPath := writeTemplates(t, dir, true)

	p, err := loadProject(nil, []string{componentPath}, "")
	if err != nil {
		t.Fatalf("loadProject: %v", err)
	}
	if len(p.layouts) != 1 {
		t.Fatalf("layouts = %d, want 1", len(p.layouts))
	}
	if got := p.layouts[0].SlotCount(); got != 9 {
		t.Errorf("default layout slots = %d, want 9", got)
	}
	for _, slot := range p.layouts[0].Slots() {
		if slot.Template() == nil {
			t.Fatal("default layout slot left unassigned")
		}
	}
}

func TestOutputBase(t *testing.T) {
	cases := map[string]string{
		"deck sheet": "deck-sheet",
		"a/b:c":      "a-b-c",
		"  ":         "layout",
	}
	for in, want := range cases {
		if got := outputBase(in); got != want {
			t.Errorf("outputBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlacementSummary(t *testing.T) {
	if got := placementSummary(nil); got != "—" {
		t.Errorf("nil placement = %q", got)
	}

	tpl := model.NewComponentTemplate("card")
	g := units.NewGeometry(units.MustParse("1in"), units.MustParse("0.5in"))
	tpl.AddElement(model.NewTextElement("@title", g))

	static := tpl.StaticInstance()
	if got := placementSummary(static); got != "static" {
		t.Errorf("static placement = %q", got)
	}
	data := tpl.Instantiate(map[string]string{"@title": "Goblin"})
	if got := placementSummary(data); got != "Goblin" {
		t.Errorf("data placement = %q", got)
	}

	long := tpl.Instantiate(map[string]string{"@title": strings.Repeat("ü", 50)})
	got := placementSummary(long)
	if !utf8.ValidString(got) {
		t.Errorf("truncated summary is not valid UTF-8: %q", got)
	}
	if want := strings.Repeat("ü", 40) + "…"; got != want {
		t.Errorf("truncated summary = %q, want %q", got, want)
	}
}
