package model

import (
	"encoding/json"
	"testing"

	"github.com/prototypyside/prototypyside/pkg/registry"
	"github.com/prototypyside/prototypyside/pkg/units"
)

func newCardTemplate(t *testing.T) *ComponentTemplate {
	t.Helper()
	tpl := NewComponentTemplate("creature card")

	title := NewTextElement("@title", units.NewGeometryAt(
		units.MustParse("2in"), units.MustParse("0.4in"),
		units.MustParse("0.25in"), units.MustParse("0.2in")))
	title.SetContent("Placeholder")

	art := NewImageElement("@art", units.NewGeometryAt(
		units.MustParse("2in"), units.MustParse("1.5in"),
		units.MustParse("0.25in"), units.MustParse("0.7in")))

	rules := NewTextElement("rules", units.NewGeometryAt(
		units.MustParse("2in"), units.MustParse("1in"),
		units.MustParse("0.25in"), units.MustParse("2.3in")))
	rules.SetContent("Static rules text")

	tpl.AddElement(title)
	tpl.AddElement(art)
	tpl.AddElement(rules)
	return tpl
}

func TestAddElementStacksZ(t *testing.T) {
	tpl := newCardTemplate(t)
	els := tpl.Elements()
	if len(els) != 3 {
		t.Fatalf("got %d elements, want 3", len(els))
	}
	for i := 1; i < len(els); i++ {
		if els[i].Z() <= els[i-1].Z() {
			t.Fatalf("elements not stacked: z[%d]=%d, z[%d]=%d", i-1, els[i-1].Z(), i, els[i].Z())
		}
	}
}

func TestBringToFrontAndSendToBack(t *testing.T) {
	tpl := newCardTemplate(t)
	els := tpl.Elements()
	bottom := els[0]

	tpl.BringToFront(bottom.PID())
	els = tpl.Elements()
	if els[len(els)-1].PID() != bottom.PID() {
		t.Fatal("BringToFront did not move element to top")
	}

	tpl.SendToBack(bottom.PID())
	els = tpl.Elements()
	if els[0].PID() != bottom.PID() {
		t.Fatal("SendToBack did not move element to bottom")
	}
}

func TestBoundFields(t *testing.T) {
	tpl := newCardTemplate(t)
	fields := tpl.BoundFields()
	if len(fields) != 2 {
		t.Fatalf("BoundFields = %v, want 2 entries", fields)
	}
	if fields[0] != "@title" || fields[1] != "@art" {
		t.Fatalf("BoundFields = %v, want [@title @art]", fields)
	}
	if tpl.IsStatic() {
		t.Fatal("template with bound elements reported static")
	}
}

func TestInstantiateAppliesRow(t *testing.T) {
	tpl := newCardTemplate(t)
	row := map[string]string{"@title": "Goblin Raider", "@art": "art/goblin.png"}

	inst := tpl.Instantiate(row)
	if inst.TemplatePID() != tpl.PID() {
		t.Fatalf("instance template PID = %s, want %s", inst.TemplatePID(), tpl.PID())
	}
	byName := make(map[string]Element)
	for _, e := range inst.Elements() {
		byName[e.Name()] = e
	}
	if got := byName["@title"].Content(); got != "Goblin Raider" {
		t.Errorf("bound title content = %q", got)
	}
	if got := byName["@art"].Content(); got != "art/goblin.png" {
		t.Errorf("bound art content = %q", got)
	}
	if got := byName["rules"].Content(); got != "Static rules text" {
		t.Errorf("static element content changed: %q", got)
	}
	// Template elements keep their own content.
	for _, e := range tpl.Elements() {
		if e.Name() == "@title" && e.Content() != "Placeholder" {
			t.Errorf("template element mutated by Instantiate: %q", e.Content())
		}
	}
}

func TestInstantiateMissingColumnKeepsTemplateContent(t *testing.T) {
	tpl := newCardTemplate(t)
	inst := tpl.Instantiate(map[string]string{"@art": "x.png"})
	for _, e := range inst.Elements() {
		if e.Name() == "@title" && e.Content() != "Placeholder" {
			t.Fatalf("missing column should keep template content, got %q", e.Content())
		}
	}
}

func TestStaticInstanceIsShared(t *testing.T) {
	tpl := NewComponentTemplate("token")
	a := tpl.StaticInstance()
	b := tpl.StaticInstance()
	if a != b {
		t.Fatal("StaticInstance built a second copy")
	}
	tpl.SetBackground(RGBA(200, 10, 10, 255))
	if tpl.StaticInstance() == a {
		t.Fatal("StaticInstance not invalidated after template edit")
	}
}

func TestComponentTemplateJSONRoundTrip(t *testing.T) {
	tpl := newCardTemplate(t)
	tpl.SetBleed(units.MustParse("0.125in"))
	tpl.SetCopies(3)
	tpl.SetCSVPath("data/cards.csv")

	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got ComponentTemplate
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.PID() != tpl.PID() || got.Name() != tpl.Name() {
		t.Fatalf("identity lost: %s %q", got.PID(), got.Name())
	}
	if !got.Geometry().Equal(tpl.Geometry()) {
		t.Fatal("geometry not preserved")
	}
	if !got.Bleed().Equal(tpl.Bleed()) || got.Copies() != 3 || got.CSVPath() != "data/cards.csv" {
		t.Fatal("scalar fields not preserved")
	}
	want := tpl.Elements()
	have := got.Elements()
	if len(have) != len(want) {
		t.Fatalf("got %d elements, want %d", len(have), len(want))
	}
	for i := range want {
		if have[i].PID() != want[i].PID() || have[i].Name() != want[i].Name() ||
			have[i].Content() != want[i].Content() || have[i].Z() != want[i].Z() {
			t.Errorf("element %d not preserved: %+v", i, have[i])
		}
		if !have[i].Geometry().Equal(want[i].Geometry()) {
			t.Errorf("element %d geometry not preserved", i)
		}
	}
	if tt, ok := have[0].(*TextElement); !ok {
		t.Fatal("first element did not dispatch to TextElement")
	} else if tt.Font.Family == "" {
		t.Fatal("font not preserved")
	}
	if _, ok := have[1].(*ImageElement); !ok {
		t.Fatal("second element did not dispatch to ImageElement")
	}
}

func TestCloneIsolation(t *testing.T) {
	reg := registry.New(nil)
	tpl := newCardTemplate(t)

	a, err := reg.Clone(tpl, false)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	b, err := reg.Clone(tpl, false)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	pids := func(obj registry.Object) map[string]bool {
		out := map[string]bool{obj.PID(): true}
		for _, n := range obj.(registry.Composite).Nodes() {
			out[n.PID()] = true
		}
		return out
	}
	pa, pb := pids(a), pids(b)
	if len(pa) != 4 || len(pb) != 4 {
		t.Fatalf("clone graphs have %d and %d PIDs, want 4 each", len(pa), len(pb))
	}
	for pid := range pa {
		if pb[pid] {
			t.Fatalf("clones share PID %s", pid)
		}
		if reg.Has(pid) {
			t.Fatalf("unregistered clone PID %s is live", pid)
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("registry holds %d objects, want 0", reg.Len())
	}
}
