package model

import (
	"encoding/json"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/registry"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// LayoutSlot is one cell of a layout grid. Its geometry is derived from the
// owning template's page size, margins, spacing, and grid shape; content is
// a cloned component instance bound at pagination time.
type LayoutSlot struct {
	pid      string
	row, col int
	geometry units.UnitStrGeometry
	template *ComponentTemplate
	// templateRef carries the persisted template PID until BindTemplates
	// resolves it against loaded templates.
	templateRef string
	content     *ComponentInstance
}

// NewLayoutSlot creates a slot at the given grid position.
func NewLayoutSlot(row, col int, geometry units.UnitStrGeometry) *LayoutSlot {
	return &LayoutSlot{
		pid:      registry.IssuePID(registry.KindLayoutSlot),
		row:      row,
		col:      col,
		geometry: geometry,
	}
}

func (s *LayoutSlot) PID() string                     { return s.pid }
func (s *LayoutSlot) Row() int                        { return s.row }
func (s *LayoutSlot) Col() int                        { return s.col }
func (s *LayoutSlot) Geometry() units.UnitStrGeometry { return s.geometry }
func (s *LayoutSlot) Content() *ComponentInstance     { return s.content }

// Template returns the component template feeding this slot, or nil for an
// unassigned slot that stays empty on every page.
func (s *LayoutSlot) Template() *ComponentTemplate { return s.template }

// SetTemplate binds the slot to a component template. Pagination clones
// instances of it into the slot; the template itself is never placed.
func (s *LayoutSlot) SetTemplate(tpl *ComponentTemplate) {
	s.template = tpl
	if tpl != nil {
		s.templateRef = tpl.PID()
	} else {
		s.templateRef = ""
	}
}

// TemplateRef returns the persisted template PID, resolved or not.
func (s *LayoutSlot) TemplateRef() string { return s.templateRef }

// SetContent binds an instance to the slot, resizing it to exactly the
// slot's rectangle. Content never escapes slot bounds.
func (s *LayoutSlot) SetContent(inst *ComponentInstance) {
	if inst != nil {
		g := inst.Geometry().
			WithSize(s.geometry.Width(), s.geometry.Height()).
			WithPos(units.MustParse("0in"), units.MustParse("0in"))
		inst.SetGeometry(g)
	}
	s.content = inst
}

// ClearContent detaches and returns the bound instance, if any, so the
// caller can deregister it.
func (s *LayoutSlot) ClearContent() *ComponentInstance {
	inst := s.content
	s.content = nil
	return inst
}

// ReleaseContent drops the content reference when it matches pid. The
// registry calls this while deregistering so no slot holds a dead PID.
func (s *LayoutSlot) ReleaseContent(pid string) bool {
	if s.content != nil && s.content.PID() == pid {
		s.content = nil
		return true
	}
	return false
}

// Nodes returns the bound instance, if any, for registry tree walks.
func (s *LayoutSlot) Nodes() []registry.Object {
	if s.content == nil {
		return nil
	}
	return []registry.Object{s.content}
}

// CloneTree deep-copies the slot (and any bound content) with fresh PIDs.
func (s *LayoutSlot) CloneTree() registry.Object {
	dup := *s
	dup.pid = registry.IssuePID(registry.KindLayoutSlot)
	if s.content != nil {
		dup.content = s.content.CloneTree().(*ComponentInstance)
	}
	return &dup
}

// LayoutTemplate arranges component instances on a printable page as a
// rows by columns grid of slots. Slot geometry is always derived from page
// geometry, margins, spacing, and grid shape; it is stored only as a cache.
type LayoutTemplate struct {
	pid          string
	name         string
	geometry     units.UnitStrGeometry
	pageSize     string
	landscape    bool
	rows, cols   int
	marginTop    units.UnitStr
	marginBottom units.UnitStr
	marginLeft   units.UnitStr
	marginRight  units.UnitStr
	spacingX     units.UnitStr
	spacingY     units.UnitStr
	policy       string
	policyParams map[string]string
	slots        [][]*LayoutSlot
}

// NewLayoutTemplate creates a letter-sized 3x3 layout with standard print
// margins and the default pagination policy.
func NewLayoutTemplate(name string) (*LayoutTemplate, error) {
	pg, err := units.PageSize("letter", false)
	if err != nil {
		return nil, err
	}
	t := &LayoutTemplate{
		pid:          registry.IssuePID(registry.KindLayoutTemplate),
		name:         name,
		geometry:     pg,
		pageSize:     "letter",
		marginTop:    units.MustParse("0.5in"),
		marginBottom: units.MustParse("0.5in"),
		marginLeft:   units.MustParse("0.25in"),
		marginRight:  units.MustParse("0.25in"),
		spacingX:     units.MustParse("0in"),
		spacingY:     units.MustParse("0in"),
		policy:       "interleave",
	}
	if err := t.SetGrid(3, 3); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *LayoutTemplate) PID() string                     { return t.pid }
func (t *LayoutTemplate) Name() string                    { return t.name }
func (t *LayoutTemplate) SetName(name string)             { t.name = name }
func (t *LayoutTemplate) Geometry() units.UnitStrGeometry { return t.geometry }
func (t *LayoutTemplate) PageSizeName() string            { return t.pageSize }
func (t *LayoutTemplate) Landscape() bool                 { return t.landscape }
func (t *LayoutTemplate) Rows() int                       { return t.rows }
func (t *LayoutTemplate) Cols() int                       { return t.cols }
func (t *LayoutTemplate) Policy() string                  { return t.policy }
func (t *LayoutTemplate) PolicyParams() map[string]string { return t.policyParams }

func (t *LayoutTemplate) SetPolicy(name string, params map[string]string) {
	t.policy = name
	t.policyParams = params
}

// SetPageSize switches the page to a named size, recomputing slot geometry.
func (t *LayoutTemplate) SetPageSize(name string, landscape bool) error {
	pg, err := units.PageSize(name, landscape)
	if err != nil {
		return err
	}
	t.pageSize = name
	t.landscape = landscape
	t.geometry = t.geometry.WithSize(pg.Width(), pg.Height())
	return t.SetGrid(t.rows, t.cols)
}

// Margins returns top, bottom, left, right.
func (t *LayoutTemplate) Margins() (top, bottom, left, right units.UnitStr) {
	return t.marginTop, t.marginBottom, t.marginLeft, t.marginRight
}

// Spacing returns the horizontal and vertical inter-slot gaps.
func (t *LayoutTemplate) Spacing() (x, y units.UnitStr) {
	return t.spacingX, t.spacingY
}

// SetMargins replaces all four margins and recomputes slot geometry.
func (t *LayoutTemplate) SetMargins(top, bottom, left, right units.UnitStr) error {
	t.marginTop, t.marginBottom, t.marginLeft, t.marginRight = top, bottom, left, right
	return t.SetGrid(t.rows, t.cols)
}

// SetSpacing replaces the inter-slot gaps and recomputes slot geometry.
func (t *LayoutTemplate) SetSpacing(x, y units.UnitStr) error {
	t.spacingX, t.spacingY = x, y
	return t.SetGrid(t.rows, t.cols)
}

// SlotSize returns the derived width and height of every slot.
func (t *LayoutTemplate) SlotSize() (w, h units.UnitStr, err error) {
	if t.rows < 1 || t.cols < 1 {
		return w, h, errors.New(errors.ErrCodeConfiguration, "grid must be at least 1x1, got %dx%d", t.rows, t.cols)
	}
	availW := t.geometry.Width().
		Sub(t.marginLeft).
		Sub(t.marginRight).
		Sub(t.spacingX.Mul(float64(t.cols - 1)))
	availH := t.geometry.Height().
		Sub(t.marginTop).
		Sub(t.marginBottom).
		Sub(t.spacingY.Mul(float64(t.rows - 1)))
	if availW.Cmp(units.UnitStr{}) < 0 || availH.Cmp(units.UnitStr{}) < 0 {
		return w, h, errors.New(errors.ErrCodeConfiguration,
			"margins and spacing exceed the %s page", t.pageSize)
	}
	return availW.Div(float64(t.cols)), availH.Div(float64(t.rows)), nil
}

// SlotGeometry returns the derived geometry of the slot at (row, col):
// slot-local rect at origin, position offset from the page corner.
func (t *LayoutTemplate) SlotGeometry(row, col int) (units.UnitStrGeometry, error) {
	w, h, err := t.SlotSize()
	if err != nil {
		return units.UnitStrGeometry{}, err
	}
	x := t.marginLeft.Add(t.spacingX.Add(w).Mul(float64(col)))
	y := t.marginTop.Add(t.spacingY.Add(h).Mul(float64(row)))
	return units.NewGeometryAt(w, h, x, y), nil
}

// SetGrid resizes the grid to rows x cols, rebuilding slot geometry.
// Surviving slots keep their PIDs and content; removed slots are returned
// so the caller can deregister them.
func (t *LayoutTemplate) SetGrid(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return errors.New(errors.ErrCodeConfiguration, "grid must be at least 1x1, got %dx%d", rows, cols)
	}
	t.rows, t.cols = rows, cols

	grid := make([][]*LayoutSlot, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]*LayoutSlot, cols)
		for c := 0; c < cols; c++ {
			g, err := t.SlotGeometry(r, c)
			if err != nil {
				return err
			}
			if r < len(t.slots) && c < len(t.slots[r]) && t.slots[r][c] != nil {
				slot := t.slots[r][c]
				slot.geometry = g
				grid[r][c] = slot
			} else {
				grid[r][c] = NewLayoutSlot(r, c, g)
			}
		}
	}
	t.slots = grid
	return nil
}

// Slots returns the grid flattened in row-major order.
func (t *LayoutTemplate) Slots() []*LayoutSlot {
	out := make([]*LayoutSlot, 0, t.rows*t.cols)
	for _, row := range t.slots {
		out = append(out, row...)
	}
	return out
}

// SlotAt returns the slot at (row, col).
func (t *LayoutTemplate) SlotAt(row, col int) (*LayoutSlot, error) {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return nil, errors.New(errors.ErrCodeConfiguration, "no slot at (%d, %d) in a %dx%d grid", row, col, t.rows, t.cols)
	}
	return t.slots[row][col], nil
}

// SlotCount returns rows*cols.
func (t *LayoutTemplate) SlotCount() int { return t.rows * t.cols }

// AssignTemplate binds every slot to the given component template.
func (t *LayoutTemplate) AssignTemplate(tpl *ComponentTemplate) {
	for _, slot := range t.Slots() {
		slot.SetTemplate(tpl)
	}
}

// BindTemplates resolves persisted slot template references against loaded
// templates keyed by PID. Unresolvable references are left unbound and
// returned so the caller can report them.
func (t *LayoutTemplate) BindTemplates(templates map[string]*ComponentTemplate) []string {
	var unresolved []string
	for _, slot := range t.Slots() {
		if slot.templateRef == "" || slot.template != nil {
			continue
		}
		if tpl, ok := templates[slot.templateRef]; ok {
			slot.template = tpl
		} else {
			unresolved = append(unresolved, slot.templateRef)
		}
	}
	return unresolved
}

// Templates returns the distinct component templates bound to slots, in
// first-appearance (row-major) order.
func (t *LayoutTemplate) Templates() []*ComponentTemplate {
	seen := make(map[string]bool)
	var out []*ComponentTemplate
	for _, slot := range t.Slots() {
		if slot.template != nil && !seen[slot.template.PID()] {
			seen[slot.template.PID()] = true
			out = append(out, slot.template)
		}
	}
	return out
}

// Nodes returns the slots for registry tree walks.
func (t *LayoutTemplate) Nodes() []registry.Object {
	slots := t.Slots()
	out := make([]registry.Object, len(slots))
	for i, s := range slots {
		out[i] = s
	}
	return out
}

// CloneTree deep-copies the layout with fresh PIDs on every node.
func (t *LayoutTemplate) CloneTree() registry.Object {
	dup := *t
	dup.pid = registry.IssuePID(registry.KindLayoutTemplate)
	dup.slots = make([][]*LayoutSlot, len(t.slots))
	for r, row := range t.slots {
		dup.slots[r] = make([]*LayoutSlot, len(row))
		for c, slot := range row {
			dup.slots[r][c] = slot.CloneTree().(*LayoutSlot)
		}
	}
	return &dup
}

type slotJSON struct {
	PID         string                `json:"pid"`
	Row         int                   `json:"row"`
	Column      int                   `json:"column"`
	Geometry    units.UnitStrGeometry `json:"geometry"`
	TemplatePID string                `json:"template_pid,omitempty"`
	Content     json.RawMessage       `json:"content,omitempty"`
}

type layoutJSON struct {
	PID          string                `json:"pid"`
	Name         string                `json:"name"`
	Geometry     units.UnitStrGeometry `json:"geometry"`
	PageSize     string                `json:"page_size"`
	Landscape    bool                  `json:"landscape,omitempty"`
	Rows         int                   `json:"rows"`
	Columns      int                   `json:"columns"`
	MarginTop    units.UnitStr         `json:"margin_top"`
	MarginBottom units.UnitStr         `json:"margin_bottom"`
	MarginLeft   units.UnitStr         `json:"margin_left"`
	MarginRight  units.UnitStr         `json:"margin_right"`
	SpacingX     units.UnitStr         `json:"spacing_x"`
	SpacingY     units.UnitStr         `json:"spacing_y"`
	Policy       policyJSON            `json:"pagination_policy"`
	Slots        []slotJSON            `json:"slots"`
}

type policyJSON struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// MarshalJSON encodes the layout in its persisted form. Slot content, when
// present, embeds a full component instance dict.
func (t *LayoutTemplate) MarshalJSON() ([]byte, error) {
	blob := layoutJSON{
		PID:          t.pid,
		Name:         t.name,
		Geometry:     t.geometry,
		PageSize:     t.pageSize,
		Landscape:    t.landscape,
		Rows:         t.rows,
		Columns:      t.cols,
		MarginTop:    t.marginTop,
		MarginBottom: t.marginBottom,
		MarginLeft:   t.marginLeft,
		MarginRight:  t.marginRight,
		SpacingX:     t.spacingX,
		SpacingY:     t.spacingY,
		Policy:       policyJSON{Type: t.policy, Params: t.policyParams},
	}
	for _, slot := range t.Slots() {
		entry := slotJSON{
			PID:         slot.pid,
			Row:         slot.row,
			Column:      slot.col,
			Geometry:    slot.geometry,
			TemplatePID: slot.templateRef,
		}
		if slot.content != nil {
			raw, err := json.Marshal(slot.content)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode slot content")
			}
			entry.Content = raw
		}
		blob.Slots = append(blob.Slots, entry)
	}
	return json.Marshal(blob)
}

// UnmarshalJSON decodes the persisted form produced by MarshalJSON. The
// slot list must match rows*columns; slot geometry is recomputed from the
// page inputs, never trusted from the file.
func (t *LayoutTemplate) UnmarshalJSON(data []byte) error {
	var blob layoutJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid layout template")
	}
	kind, err := registry.ParsePID(blob.PID)
	if err != nil {
		return err
	}
	if kind != registry.KindLayoutTemplate {
		return errors.New(errors.ErrCodeInvalidTemplate, "PID %s is not a layout template", blob.PID)
	}
	if blob.Rows < 1 || blob.Columns < 1 {
		return errors.New(errors.ErrCodeInvalidTemplate, "grid must be at least 1x1, got %dx%d", blob.Rows, blob.Columns)
	}
	if n := len(blob.Slots); n != 0 && n != blob.Rows*blob.Columns {
		return errors.New(errors.ErrCodeInvalidTemplate,
			"layout has %d slots, want %d for a %dx%d grid", n, blob.Rows*blob.Columns, blob.Rows, blob.Columns)
	}
	policy := blob.Policy.Type
	if policy == "" {
		policy = "interleave"
	}
	*t = LayoutTemplate{
		pid:          blob.PID,
		name:         blob.Name,
		geometry:     blob.Geometry,
		pageSize:     blob.PageSize,
		landscape:    blob.Landscape,
		marginTop:    blob.MarginTop,
		marginBottom: blob.MarginBottom,
		marginLeft:   blob.MarginLeft,
		marginRight:  blob.MarginRight,
		spacingX:     blob.SpacingX,
		spacingY:     blob.SpacingY,
		policy:       policy,
		policyParams: blob.Policy.Params,
	}
	if err := t.SetGrid(blob.Rows, blob.Columns); err != nil {
		return err
	}
	for _, entry := range blob.Slots {
		if entry.Row < 0 || entry.Row >= t.rows || entry.Column < 0 || entry.Column >= t.cols {
			return errors.New(errors.ErrCodeInvalidTemplate,
				"slot (%d, %d) outside the %dx%d grid", entry.Row, entry.Column, t.rows, t.cols)
		}
		slot := t.slots[entry.Row][entry.Column]
		slot.pid = entry.PID
		slot.templateRef = entry.TemplatePID
		if len(entry.Content) > 0 {
			inst, err := unmarshalInstance(entry.Content)
			if err != nil {
				return err
			}
			slot.SetContent(inst)
		}
	}
	return nil
}
