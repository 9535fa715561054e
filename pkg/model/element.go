package model

import (
	"encoding/json"
	"strings"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/registry"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// BindingPrefix marks an element name as a CSV column binding. An element
// named "@title" receives the "@title" column of the bound dataset row.
const BindingPrefix = "@"

// Alignment positions element content inside its rectangle.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// FontSpec describes the typeface of a text element. Size is a physical
// quantity so text keeps its printed height across DPIs.
type FontSpec struct {
	Family string        `json:"family"`
	Size   units.UnitStr `json:"size"`
	Bold   bool          `json:"bold,omitempty"`
	Italic bool          `json:"italic,omitempty"`
}

// Style carries the visual properties shared by every element kind.
type Style struct {
	Color       Color         `json:"color"`
	BgColor     Color         `json:"bg_color"`
	BorderColor Color         `json:"border_color"`
	BorderWidth units.UnitStr `json:"border_width"`
	Alignment   Alignment     `json:"alignment"`
}

func defaultStyle() Style {
	return Style{
		Color:       Black,
		BgColor:     Transparent,
		BorderColor: Black,
		BorderWidth: units.MustParse("0pt"),
		Alignment:   AlignLeft,
	}
}

// Element is one visual node of a component: text, image, or vector.
// Elements are pure data; rendering lives in the export package.
type Element interface {
	registry.Object
	registry.Cloner

	Name() string
	SetName(string)
	Geometry() units.UnitStrGeometry
	SetGeometry(units.UnitStrGeometry)
	Z() int
	SetZ(int)
	Content() string
	SetContent(string)
	Style() *Style

	// IsBound reports whether the element's name starts with the CSV
	// binding sentinel.
	IsBound() bool

	kind() registry.Kind
	encode() (elementJSON, error)
}

type elementBase struct {
	pid         string
	templatePID string
	name        string
	geometry    units.UnitStrGeometry
	z           int
	style       Style
	content     string
}

func (e *elementBase) PID() string                         { return e.pid }
func (e *elementBase) TemplatePID() string                 { return e.templatePID }
func (e *elementBase) Name() string                        { return e.name }
func (e *elementBase) SetName(name string)                 { e.name = name }
func (e *elementBase) Geometry() units.UnitStrGeometry     { return e.geometry }
func (e *elementBase) SetGeometry(g units.UnitStrGeometry) { e.geometry = g }
func (e *elementBase) Z() int                              { return e.z }
func (e *elementBase) SetZ(z int)                          { e.z = z }
func (e *elementBase) Content() string                     { return e.content }
func (e *elementBase) SetContent(content string)           { e.content = content }
func (e *elementBase) Style() *Style                       { return &e.style }

func (e *elementBase) IsBound() bool { return strings.HasPrefix(e.name, BindingPrefix) }

func (e *elementBase) encodeBase() elementJSON {
	return elementJSON{
		PID:         e.pid,
		TemplatePID: e.templatePID,
		Name:        e.name,
		Geometry:    e.geometry,
		Z:           e.z,
		Style:       e.style,
		Content:     e.content,
	}
}

func (e *elementBase) cloneBase(k registry.Kind) elementBase {
	dup := *e
	dup.pid = registry.IssuePID(k)
	return dup
}

// TextElement renders a run of text inside its rectangle.
type TextElement struct {
	elementBase
	Font FontSpec
}

// NewTextElement creates a text element with a fresh PID.
func NewTextElement(name string, geometry units.UnitStrGeometry) *TextElement {
	return &TextElement{
		elementBase: elementBase{
			pid:      registry.IssuePID(registry.KindTextElement),
			name:     name,
			geometry: geometry,
			style:    defaultStyle(),
		},
		Font: FontSpec{Family: "DejaVu Sans", Size: units.MustParse("12pt")},
	}
}

func (e *TextElement) kind() registry.Kind { return registry.KindTextElement }

func (e *TextElement) CloneTree() registry.Object {
	return &TextElement{elementBase: e.cloneBase(e.kind()), Font: e.Font}
}

func (e *TextElement) encode() (elementJSON, error) {
	blob := e.encodeBase()
	font, err := json.Marshal(e.Font)
	if err != nil {
		return elementJSON{}, errors.Wrap(errors.ErrCodeInternal, err, "encode font")
	}
	blob.Font = font
	return blob, nil
}

// ImageElement renders a raster image file scaled into its rectangle.
type ImageElement struct {
	elementBase
	KeepAspect bool
}

// NewImageElement creates an image element with a fresh PID. Content holds
// the image file path, or a CSV-bound path at merge time.
func NewImageElement(name string, geometry units.UnitStrGeometry) *ImageElement {
	return &ImageElement{
		elementBase: elementBase{
			pid:      registry.IssuePID(registry.KindImageElement),
			name:     name,
			geometry: geometry,
			style:    defaultStyle(),
		},
		KeepAspect: true,
	}
}

func (e *ImageElement) kind() registry.Kind { return registry.KindImageElement }

func (e *ImageElement) CloneTree() registry.Object {
	return &ImageElement{elementBase: e.cloneBase(e.kind()), KeepAspect: e.KeepAspect}
}

func (e *ImageElement) encode() (elementJSON, error) {
	blob := e.encodeBase()
	blob.KeepAspect = &e.KeepAspect
	return blob, nil
}

// VectorElement renders SVG path data scaled into its rectangle. Content
// holds the path commands ("M0 0L10 10z").
type VectorElement struct {
	elementBase
}

// NewVectorElement creates a vector element with a fresh PID.
func NewVectorElement(name string, geometry units.UnitStrGeometry) *VectorElement {
	return &VectorElement{
		elementBase: elementBase{
			pid:      registry.IssuePID(registry.KindVectorElement),
			name:     name,
			geometry: geometry,
			style:    defaultStyle(),
		},
	}
}

func (e *VectorElement) kind() registry.Kind { return registry.KindVectorElement }

func (e *VectorElement) CloneTree() registry.Object {
	return &VectorElement{elementBase: e.cloneBase(e.kind())}
}

func (e *VectorElement) encode() (elementJSON, error) {
	return e.encodeBase(), nil
}

// elementJSON is the persisted element envelope. The PID prefix tags the
// concrete subtype on load.
type elementJSON struct {
	PID         string                `json:"pid"`
	TemplatePID string                `json:"template_pid,omitempty"`
	Name        string                `json:"name"`
	Geometry    units.UnitStrGeometry `json:"geometry"`
	Z           int                   `json:"z"`
	Style       Style                 `json:"style"`
	Content     string                `json:"content,omitempty"`
	Font        json.RawMessage       `json:"font,omitempty"`
	KeepAspect  *bool                 `json:"keep_aspect,omitempty"`
}

func marshalElement(e Element) (json.RawMessage, error) {
	blob, err := e.encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(blob)
}

// unmarshalElement decodes one element, dispatching the concrete type from
// the PID prefix through a closed table.
func unmarshalElement(data json.RawMessage) (Element, error) {
	var blob elementJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid element")
	}
	kind, err := registry.ParsePID(blob.PID)
	if err != nil {
		return nil, err
	}
	base := elementBase{
		pid:         blob.PID,
		templatePID: blob.TemplatePID,
		name:        blob.Name,
		geometry:    blob.Geometry,
		z:           blob.Z,
		style:       blob.Style,
		content:     blob.Content,
	}
	switch kind {
	case registry.KindTextElement:
		el := &TextElement{elementBase: base}
		if len(blob.Font) > 0 {
			if err := json.Unmarshal(blob.Font, &el.Font); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid font")
			}
		}
		return el, nil
	case registry.KindImageElement:
		el := &ImageElement{elementBase: base, KeepAspect: true}
		if blob.KeepAspect != nil {
			el.KeepAspect = *blob.KeepAspect
		}
		return el, nil
	case registry.KindVectorElement:
		return &VectorElement{elementBase: base}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "PID %s is not an element", blob.PID)
	}
}
