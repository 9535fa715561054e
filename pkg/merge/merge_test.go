package merge

import (
	"strings"
	"testing"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/units"
)

const cardCSV = "@title,@art,notes\n" +
	"Goblin Raider,art/goblin.png,common\n" +
	"Dragon,art/dragon.png,rare\n" +
	"broken row with,too,many,fields\n" +
	"Wisp,art/wisp.png,uncommon\n"

func TestReadCSV(t *testing.T) {
	data, err := ReadCSV(strings.NewReader(cardCSV), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(data.Rows) != 3 {
		t.Fatalf("got %d rows, want 3 (malformed row skipped)", len(data.Rows))
	}
	if data.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1", data.Skipped)
	}
	if data.Rows[0]["@title"] != "Goblin Raider" || data.Rows[2]["@title"] != "Wisp" {
		t.Fatalf("rows out of order: %v", data.Rows)
	}
	if data.Rows[1]["notes"] != "rare" {
		t.Fatal("non-sentinel column not carried")
	}
}

func TestReadCSVWithoutBoundColumns(t *testing.T) {
	data, err := ReadCSV(strings.NewReader("title,art\nA,B\n"), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(data.Rows) != 0 {
		t.Fatalf("header without @-columns should yield no rows, got %d", len(data.Rows))
	}
}

func TestReadCSVEmptyFails(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader(""), nil); !errors.Is(err, errors.ErrCodeParse) {
		t.Fatalf("empty file error = %v, want PARSE_ERROR", err)
	}
}

func boundTemplate() *model.ComponentTemplate {
	tpl := model.NewComponentTemplate("card")
	g := units.NewGeometry(units.MustParse("2in"), units.MustParse("0.5in"))
	tpl.AddElement(model.NewTextElement("@title", g))
	tpl.AddElement(model.NewImageElement("@portrait", g))
	return tpl
}

func TestValidateHeaders(t *testing.T) {
	data, err := ReadCSV(strings.NewReader(cardCSV), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	status := data.ValidateHeaders(boundTemplate())
	if status["@title"] != FieldOK {
		t.Errorf("@title = %v, want ok", status["@title"])
	}
	if status["@portrait"] != FieldMissing {
		t.Errorf("@portrait = %v, want missing", status["@portrait"])
	}
	if status["@art"] != FieldUnused {
		t.Errorf("@art = %v, want warn", status["@art"])
	}
	if _, ok := status["notes"]; ok {
		t.Error("non-sentinel column classified")
	}
}

func TestCursorExclusiveConsumption(t *testing.T) {
	m := NewManager(nil)
	tpl := boundTemplate()
	data, err := ReadCSV(strings.NewReader(cardCSV), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	m.datasets[tpl.PID()] = data

	a := m.Source(tpl.PID())
	b := m.Source(tpl.PID())
	if a.Remaining() != 3 || b.Remaining() != 3 {
		t.Fatalf("fresh cursors report %d and %d rows, want 3", a.Remaining(), b.Remaining())
	}

	row, ok := a.NextRow()
	if !ok || row["@title"] != "Goblin Raider" {
		t.Fatalf("first row = %v", row)
	}
	if a.Remaining() != 2 {
		t.Fatalf("cursor a Remaining = %d, want 2", a.Remaining())
	}
	if b.Remaining() != 3 {
		t.Fatal("cursors share consumption state")
	}

	for i := 0; i < 2; i++ {
		if _, ok := a.NextRow(); !ok {
			t.Fatalf("cursor exhausted early at %d", i)
		}
	}
	if _, ok := a.NextRow(); ok {
		t.Fatal("exhausted cursor still yields rows")
	}
}

func TestSourceWithoutDataset(t *testing.T) {
	m := NewManager(nil)
	c := m.Source("ct_8a6e0804-2bd0-4672-b79d-d97027f9071a")
	if c.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", c.Remaining())
	}
	if _, ok := c.NextRow(); ok {
		t.Fatal("empty cursor yields rows")
	}
}
