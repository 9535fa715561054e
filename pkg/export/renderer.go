package export

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/pagination"
	"github.com/prototypyside/prototypyside/pkg/rctx"
)

// renderer draws model objects onto a canvas context. It holds only shared
// resources; all drawing is a pure function of (instance, context).
// Coordinates are millimeters with the origin at the top-left
// (canvas.CartesianIV).
type renderer struct {
	fonts   *FontStore
	baseDir string
	bleed   bool
}

func pxToMM(px float64, dpi int) float64 {
	return px / float64(dpi) * 25.4
}

// renderPage draws every filled placement of a pagination page.
func (r *renderer) renderPage(gc *canvas.Context, page pagination.Page, rc rctx.Context) error {
	for _, pl := range page.Placements {
		if pl.Instance == nil {
			continue
		}
		x := pl.Slot.Geometry().PosX().MM()
		y := pl.Slot.Geometry().PosY().MM()
		if err := r.renderInstance(gc, pl.Instance, x, y, rc); err != nil {
			return err
		}
	}
	return nil
}

// renderInstance draws one component instance with its top-left corner at
// (x, y) mm. A tiled instance carries a pixel viewport; the viewed region
// is shifted onto the page and anything outside falls off the page bounds.
func (r *renderer) renderInstance(gc *canvas.Context, inst *model.ComponentInstance, x, y float64, rc rctx.Context) error {
	if vp := inst.Viewport(); vp != nil {
		x -= pxToMM(vp.X, rc.DPI)
		y -= pxToMM(vp.Y, rc.DPI)
	}

	w := inst.Geometry().Width().MM()
	h := inst.Geometry().Height().MM()

	r.drawBackground(gc, inst, x, y, w, h)
	if inst.BackgroundImage() != "" {
		if err := r.drawImageFile(gc, inst.BackgroundImage(), x, y, w, h, true); err != nil {
			return err
		}
	}

	for _, el := range inst.Elements() {
		ex := x + el.Geometry().PosX().MM()
		ey := y + el.Geometry().PosY().MM()
		if err := r.renderElement(gc, el, ex, ey); err != nil {
			return err
		}
	}

	r.drawBorder(gc, inst, x, y, w, h)
	return nil
}

func (r *renderer) drawBackground(gc *canvas.Context, inst *model.ComponentInstance, x, y, w, h float64) {
	if r.bleed && !inst.Bleed().IsZero() {
		b := inst.Bleed().MM()
		x -= b
		y -= b
		w += 2 * b
		h += 2 * b
	}
	bg := inst.Background()
	if bg.A() == 0 {
		return
	}
	gc.SetFillColor(bg.NRGBA())
	gc.SetStrokeColor(canvas.Transparent)
	gc.DrawPath(x, y, r.componentPath(inst, w, h))
}

func (r *renderer) drawBorder(gc *canvas.Context, inst *model.ComponentInstance, x, y, w, h float64) {
	if inst.BorderWidth().IsZero() {
		return
	}
	gc.SetFillColor(canvas.Transparent)
	gc.SetStrokeColor(canvas.Black)
	gc.SetStrokeWidth(inst.BorderWidth().MM())
	gc.DrawPath(x, y, r.componentPath(inst, w, h))
}

func (r *renderer) componentPath(inst *model.ComponentInstance, w, h float64) *canvas.Path {
	if inst.RoundedCorners() && !inst.CornerRadius().IsZero() {
		return canvas.RoundedRectangle(w, h, inst.CornerRadius().MM())
	}
	return canvas.Rectangle(w, h)
}

func (r *renderer) renderElement(gc *canvas.Context, el model.Element, x, y float64) error {
	w := el.Geometry().Width().MM()
	h := el.Geometry().Height().MM()
	style := el.Style()

	if style.BgColor.A() != 0 {
		gc.SetFillColor(style.BgColor.NRGBA())
		gc.SetStrokeColor(canvas.Transparent)
		gc.DrawPath(x, y, canvas.Rectangle(w, h))
	}

	var err error
	switch e := el.(type) {
	case *model.TextElement:
		err = r.drawText(gc, e, x, y, w)
	case *model.ImageElement:
		if e.Content() != "" {
			err = r.drawImageFile(gc, e.Content(), x, y, w, h, e.KeepAspect)
		}
	case *model.VectorElement:
		err = r.drawVector(gc, e, x, y)
	}
	if err != nil {
		return err
	}

	if !style.BorderWidth.IsZero() {
		gc.SetFillColor(canvas.Transparent)
		gc.SetStrokeColor(style.BorderColor.NRGBA())
		gc.SetStrokeWidth(style.BorderWidth.MM())
		gc.DrawPath(x, y, canvas.Rectangle(w, h))
	}
	return nil
}

func (r *renderer) drawText(gc *canvas.Context, el *model.TextElement, x, y, w float64) error {
	content := el.Content()
	if content == "" {
		return nil
	}
	face, err := r.fonts.Face(el.Font, el.Style().Color.NRGBA())
	if err != nil {
		return err
	}

	align := canvas.Left
	anchorX := x
	switch el.Style().Alignment {
	case model.AlignCenter:
		align = canvas.Center
		anchorX = x + w/2
	case model.AlignRight:
		align = canvas.Right
		anchorX = x + w
	}

	metrics := face.Metrics()
	cursorY := y
	for _, line := range wrapText(content, w, face) {
		gc.DrawText(anchorX, cursorY+metrics.Ascent, canvas.NewTextLine(face, line, align))
		cursorY += metrics.LineHeight
	}
	return nil
}

func (r *renderer) drawImageFile(gc *canvas.Context, path string, x, y, w, h float64, keepAspect bool) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open image %s", path)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "decode image %s", path)
	}

	imgW := float64(img.Bounds().Dx())
	imgH := float64(img.Bounds().Dy())
	if imgW <= 0 || imgH <= 0 || w <= 0 || h <= 0 {
		return nil
	}

	if keepAspect {
		// contain: uniform scale, centered in the rectangle
		dpmm := imgW / w
		if alt := imgH / h; alt > dpmm {
			dpmm = alt
		}
		drawnW := imgW / dpmm
		drawnH := imgH / dpmm
		gc.DrawImage(x+(w-drawnW)/2, y+(h-drawnH)/2, img, canvas.DPMM(dpmm))
		return nil
	}

	// stretch: scale each axis independently through the view matrix
	gc.Push()
	gc.ComposeView(canvas.Identity.Translate(x, y).Scale(w/imgW, h/imgH))
	gc.DrawImage(0, 0, img, canvas.DPMM(1))
	gc.Pop()
	return nil
}

func (r *renderer) drawVector(gc *canvas.Context, el *model.VectorElement, x, y float64) error {
	data := strings.TrimSpace(el.Content())
	if data == "" {
		return nil
	}
	path, err := canvas.ParseSVGPath(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "vector element %s", el.Name())
	}
	gc.SetFillColor(el.Style().Color.NRGBA())
	gc.SetStrokeColor(canvas.Transparent)
	gc.DrawPath(x, y, path)
	return nil
}

// wrapText splits content into lines that fit within width mm, breaking at
// spaces and honoring explicit newlines. A word wider than the box gets a
// line of its own rather than being split mid-word.
func wrapText(content string, width float64, face *canvas.FontFace) []string {
	var lines []string
	for _, paragraph := range strings.Split(content, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			joined := current + " " + word
			if width > 0 && face.TextWidth(joined) > width {
				lines = append(lines, current)
				current = word
				continue
			}
			current = joined
		}
		lines = append(lines, current)
	}
	return lines
}
