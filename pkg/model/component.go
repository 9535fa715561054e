package model

import (
	"encoding/json"
	"sort"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/registry"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// zStep spaces element z-values so manual reordering has room between
// neighbors before a renormalization pass.
const zStep = 100

// ComponentTemplate is the reusable definition of a printable component:
// its physical geometry and an ordered set of visual elements. Templates
// are edited; what lands in a layout slot is always a cloned instance.
type ComponentTemplate struct {
	pid             string
	name            string
	geometry        units.UnitStrGeometry
	bleed           units.UnitStr
	background      Color
	backgroundImage string
	roundedCorners  bool
	cornerRadius    units.UnitStr
	borderWidth     units.UnitStr
	copies          int
	csvPath         string
	elements        []Element

	staticInstance *ComponentInstance
}

// NewComponentTemplate creates an empty template with a fresh PID. The
// default size matches a standard playing card.
func NewComponentTemplate(name string) *ComponentTemplate {
	return &ComponentTemplate{
		pid:            registry.IssuePID(registry.KindComponentTemplate),
		name:           name,
		geometry:       units.NewGeometry(units.MustParse("2.5in"), units.MustParse("3.5in")),
		bleed:          units.MustParse("0in"),
		background:     White,
		roundedCorners: true,
		cornerRadius:   units.MustParse("0in"),
		borderWidth:    units.MustParse("0in"),
		copies:         1,
	}
}

func (t *ComponentTemplate) PID() string                     { return t.pid }
func (t *ComponentTemplate) Name() string                    { return t.name }
func (t *ComponentTemplate) SetName(name string)             { t.name = name }
func (t *ComponentTemplate) Geometry() units.UnitStrGeometry { return t.geometry }
func (t *ComponentTemplate) Bleed() units.UnitStr            { return t.bleed }
func (t *ComponentTemplate) Background() Color               { return t.background }
func (t *ComponentTemplate) BackgroundImage() string         { return t.backgroundImage }
func (t *ComponentTemplate) RoundedCorners() bool            { return t.roundedCorners }
func (t *ComponentTemplate) CornerRadius() units.UnitStr     { return t.cornerRadius }
func (t *ComponentTemplate) BorderWidth() units.UnitStr      { return t.borderWidth }
func (t *ComponentTemplate) Copies() int                     { return t.copies }
func (t *ComponentTemplate) CSVPath() string                 { return t.csvPath }

func (t *ComponentTemplate) SetGeometry(g units.UnitStrGeometry) {
	t.geometry = g
	t.staticInstance = nil
}

func (t *ComponentTemplate) SetBleed(b units.UnitStr)        { t.bleed = b }
func (t *ComponentTemplate) SetBackground(c Color)           { t.background = c; t.staticInstance = nil }
func (t *ComponentTemplate) SetBackgroundImage(path string)  { t.backgroundImage = path; t.staticInstance = nil }
func (t *ComponentTemplate) SetRoundedCorners(v bool)        { t.roundedCorners = v }
func (t *ComponentTemplate) SetCornerRadius(r units.UnitStr) { t.cornerRadius = r }
func (t *ComponentTemplate) SetBorderWidth(w units.UnitStr)  { t.borderWidth = w }
func (t *ComponentTemplate) SetCSVPath(path string)          { t.csvPath = path }

// SetCopies sets how many instances each data row (or the static content)
// yields during pagination. Values below 1 clamp to 1.
func (t *ComponentTemplate) SetCopies(n int) {
	if n < 1 {
		n = 1
	}
	t.copies = n
}

// Elements returns the elements sorted by ascending z-value, the paint
// order renderers use.
func (t *ComponentTemplate) Elements() []Element {
	out := make([]Element, len(t.elements))
	copy(out, t.elements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z() < out[j].Z() })
	return out
}

// AddElement appends an element on top of the existing stack.
func (t *ComponentTemplate) AddElement(e Element) {
	for _, existing := range t.elements {
		if existing.PID() == e.PID() {
			return
		}
	}
	maxZ := 0
	for _, existing := range t.elements {
		if existing.Z() > maxZ {
			maxZ = existing.Z()
		}
	}
	e.SetZ(maxZ + zStep)
	t.elements = append(t.elements, e)
	t.staticInstance = nil
}

// RemoveElement detaches the element with the given PID and returns it.
func (t *ComponentTemplate) RemoveElement(pid string) (Element, bool) {
	for i, e := range t.elements {
		if e.PID() == pid {
			t.elements = append(t.elements[:i], t.elements[i+1:]...)
			t.staticInstance = nil
			return e, true
		}
	}
	return nil, false
}

// BringToFront moves the element above every sibling.
func (t *ComponentTemplate) BringToFront(pid string) {
	maxZ := 0
	for _, e := range t.elements {
		if e.Z() > maxZ {
			maxZ = e.Z()
		}
	}
	for _, e := range t.elements {
		if e.PID() == pid {
			e.SetZ(maxZ + zStep)
			break
		}
	}
	t.normalizeZ()
}

// SendToBack moves the element below every sibling.
func (t *ComponentTemplate) SendToBack(pid string) {
	minZ := 0
	for _, e := range t.elements {
		if e.Z() < minZ {
			minZ = e.Z()
		}
	}
	for _, e := range t.elements {
		if e.PID() == pid {
			e.SetZ(minZ - zStep)
			break
		}
	}
	t.normalizeZ()
}

func (t *ComponentTemplate) normalizeZ() {
	sorted := t.Elements()
	for i, e := range sorted {
		e.SetZ((i + 1) * zStep)
	}
	t.elements = sorted
}

// BoundFields returns the CSV column names the template's elements bind,
// in z-order, duplicates removed.
func (t *ComponentTemplate) BoundFields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.Elements() {
		if e.IsBound() && !seen[e.Name()] {
			seen[e.Name()] = true
			out = append(out, e.Name())
		}
	}
	return out
}

// IsStatic reports whether the template has no CSV-bound elements.
func (t *ComponentTemplate) IsStatic() bool {
	return len(t.BoundFields()) == 0
}

// Nodes returns the template's elements for registry tree walks.
func (t *ComponentTemplate) Nodes() []registry.Object {
	out := make([]registry.Object, len(t.elements))
	for i, e := range t.elements {
		out[i] = e
	}
	return out
}

// CloneTree deep-copies the template with fresh PIDs on every node.
func (t *ComponentTemplate) CloneTree() registry.Object {
	dup := *t
	dup.pid = registry.IssuePID(registry.KindComponentTemplate)
	dup.elements = make([]Element, len(t.elements))
	for i, e := range t.elements {
		dup.elements[i] = e.CloneTree().(Element)
	}
	dup.staticInstance = nil
	return &dup
}

// Instantiate clones the template into a ComponentInstance, applying the
// given data row to every CSV-bound element. A nil row yields an instance
// with the template's own content; bound elements missing from the row keep
// their template content (a column present but empty blanks the element).
func (t *ComponentTemplate) Instantiate(row map[string]string) *ComponentInstance {
	inst := &ComponentInstance{
		pid:             registry.IssuePID(registry.KindComponentInstance),
		templatePID:     t.pid,
		name:            t.name,
		geometry:        t.geometry,
		bleed:           t.bleed,
		background:      t.background,
		backgroundImage: t.backgroundImage,
		roundedCorners:  t.roundedCorners,
		cornerRadius:    t.cornerRadius,
		borderWidth:     t.borderWidth,
		row:             row,
	}
	for _, e := range t.Elements() {
		dup := e.CloneTree().(Element)
		if dup.IsBound() && row != nil {
			if value, ok := row[dup.Name()]; ok {
				dup.SetContent(value)
			}
		}
		inst.elements = append(inst.elements, dup)
	}
	return inst
}

// StaticInstance returns a shared data-free instance, built once and reused
// for every static slot of every page.
func (t *ComponentTemplate) StaticInstance() *ComponentInstance {
	if t.staticInstance == nil {
		t.staticInstance = t.Instantiate(nil)
	}
	return t.staticInstance
}

// ComponentInstance is a one-shot snapshot of a template, bound to at most
// one slot and one data row. Instances are never edited as templates.
type ComponentInstance struct {
	pid             string
	templatePID     string
	name            string
	geometry        units.UnitStrGeometry
	bleed           units.UnitStr
	background      Color
	backgroundImage string
	roundedCorners  bool
	cornerRadius    units.UnitStr
	borderWidth     units.UnitStr
	elements        []Element
	row             map[string]string

	// viewport, when set, restricts rendering to one tile of an oversize
	// component spread across several slots.
	viewport *units.PxRect
}

func (c *ComponentInstance) PID() string                     { return c.pid }
func (c *ComponentInstance) TemplatePID() string             { return c.templatePID }
func (c *ComponentInstance) Name() string                    { return c.name }
func (c *ComponentInstance) Geometry() units.UnitStrGeometry { return c.geometry }
func (c *ComponentInstance) Bleed() units.UnitStr            { return c.bleed }
func (c *ComponentInstance) Background() Color               { return c.background }
func (c *ComponentInstance) BackgroundImage() string         { return c.backgroundImage }
func (c *ComponentInstance) RoundedCorners() bool            { return c.roundedCorners }
func (c *ComponentInstance) CornerRadius() units.UnitStr     { return c.cornerRadius }
func (c *ComponentInstance) BorderWidth() units.UnitStr      { return c.borderWidth }
func (c *ComponentInstance) Row() map[string]string          { return c.row }

func (c *ComponentInstance) SetGeometry(g units.UnitStrGeometry) { c.geometry = g }

// Elements returns the instance's elements in paint order.
func (c *ComponentInstance) Elements() []Element {
	out := make([]Element, len(c.elements))
	copy(out, c.elements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z() < out[j].Z() })
	return out
}

// Viewport returns the tile window, or nil for a whole-component render.
func (c *ComponentInstance) Viewport() *units.PxRect { return c.viewport }

func (c *ComponentInstance) SetViewport(r *units.PxRect) { c.viewport = r }

// Nodes returns the instance's elements for registry tree walks.
func (c *ComponentInstance) Nodes() []registry.Object {
	out := make([]registry.Object, len(c.elements))
	for i, e := range c.elements {
		out[i] = e
	}
	return out
}

// CloneTree deep-copies the instance with fresh PIDs on every node.
func (c *ComponentInstance) CloneTree() registry.Object {
	dup := *c
	dup.pid = registry.IssuePID(registry.KindComponentInstance)
	dup.elements = make([]Element, len(c.elements))
	for i, e := range c.elements {
		dup.elements[i] = e.CloneTree().(Element)
	}
	return &dup
}

type instanceJSON struct {
	PID             string                `json:"pid"`
	TemplatePID     string                `json:"template_pid"`
	Name            string                `json:"name"`
	Geometry        units.UnitStrGeometry `json:"geometry"`
	Bleed           units.UnitStr         `json:"bleed"`
	Background      Color                 `json:"background_color"`
	BackgroundImage string                `json:"background_image,omitempty"`
	RoundedCorners  bool                  `json:"rounded_corners"`
	CornerRadius    units.UnitStr         `json:"corner_radius"`
	BorderWidth     units.UnitStr         `json:"border_width"`
	Row             map[string]string     `json:"row,omitempty"`
	Elements        []json.RawMessage     `json:"elements"`
}

// MarshalJSON encodes the instance in its persisted form.
func (c *ComponentInstance) MarshalJSON() ([]byte, error) {
	blob := instanceJSON{
		PID:             c.pid,
		TemplatePID:     c.templatePID,
		Name:            c.name,
		Geometry:        c.geometry,
		Bleed:           c.bleed,
		Background:      c.background,
		BackgroundImage: c.backgroundImage,
		RoundedCorners:  c.roundedCorners,
		CornerRadius:    c.cornerRadius,
		BorderWidth:     c.borderWidth,
		Row:             c.row,
	}
	for _, e := range c.Elements() {
		raw, err := marshalElement(e)
		if err != nil {
			return nil, err
		}
		blob.Elements = append(blob.Elements, raw)
	}
	return json.Marshal(blob)
}

func unmarshalInstance(data []byte) (*ComponentInstance, error) {
	var blob instanceJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid component instance")
	}
	kind, err := registry.ParsePID(blob.PID)
	if err != nil {
		return nil, err
	}
	if kind != registry.KindComponentInstance {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "PID %s is not a component instance", blob.PID)
	}
	inst := &ComponentInstance{
		pid:             blob.PID,
		templatePID:     blob.TemplatePID,
		name:            blob.Name,
		geometry:        blob.Geometry,
		bleed:           blob.Bleed,
		background:      blob.Background,
		backgroundImage: blob.BackgroundImage,
		roundedCorners:  blob.RoundedCorners,
		cornerRadius:    blob.CornerRadius,
		borderWidth:     blob.BorderWidth,
		row:             blob.Row,
	}
	for _, raw := range blob.Elements {
		e, err := unmarshalElement(raw)
		if err != nil {
			return nil, err
		}
		inst.elements = append(inst.elements, e)
	}
	return inst, nil
}

// UnmarshalJSON decodes the persisted form produced by MarshalJSON.
func (c *ComponentInstance) UnmarshalJSON(data []byte) error {
	inst, err := unmarshalInstance(data)
	if err != nil {
		return err
	}
	*c = *inst
	return nil
}

type componentJSON struct {
	PID             string                `json:"pid"`
	Name            string                `json:"name"`
	Geometry        units.UnitStrGeometry `json:"geometry"`
	Bleed           units.UnitStr         `json:"bleed"`
	Background      Color                 `json:"background_color"`
	BackgroundImage string                `json:"background_image,omitempty"`
	RoundedCorners  bool                  `json:"rounded_corners"`
	CornerRadius    units.UnitStr         `json:"corner_radius"`
	BorderWidth     units.UnitStr         `json:"border_width"`
	Copies          int                   `json:"copies"`
	CSVPath         string                `json:"csv_path,omitempty"`
	Elements        []json.RawMessage     `json:"elements"`
}

// MarshalJSON encodes the template in its persisted form.
func (t *ComponentTemplate) MarshalJSON() ([]byte, error) {
	blob := componentJSON{
		PID:             t.pid,
		Name:            t.name,
		Geometry:        t.geometry,
		Bleed:           t.bleed,
		Background:      t.background,
		BackgroundImage: t.backgroundImage,
		RoundedCorners:  t.roundedCorners,
		CornerRadius:    t.cornerRadius,
		BorderWidth:     t.borderWidth,
		Copies:          t.copies,
		CSVPath:         t.csvPath,
	}
	for _, e := range t.Elements() {
		raw, err := marshalElement(e)
		if err != nil {
			return nil, err
		}
		blob.Elements = append(blob.Elements, raw)
	}
	return json.Marshal(blob)
}

// UnmarshalJSON decodes the persisted form produced by MarshalJSON.
func (t *ComponentTemplate) UnmarshalJSON(data []byte) error {
	var blob componentJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid component template")
	}
	kind, err := registry.ParsePID(blob.PID)
	if err != nil {
		return err
	}
	if kind != registry.KindComponentTemplate {
		return errors.New(errors.ErrCodeInvalidTemplate, "PID %s is not a component template", blob.PID)
	}
	copies := blob.Copies
	if copies < 1 {
		copies = 1
	}
	*t = ComponentTemplate{
		pid:             blob.PID,
		name:            blob.Name,
		geometry:        blob.Geometry,
		bleed:           blob.Bleed,
		background:      blob.Background,
		backgroundImage: blob.BackgroundImage,
		roundedCorners:  blob.RoundedCorners,
		cornerRadius:    blob.CornerRadius,
		borderWidth:     blob.BorderWidth,
		copies:          copies,
		csvPath:         blob.CSVPath,
	}
	for _, raw := range blob.Elements {
		e, err := unmarshalElement(raw)
		if err != nil {
			return err
		}
		t.elements = append(t.elements, e)
	}
	return nil
}
