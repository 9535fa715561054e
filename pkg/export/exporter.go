// Package export renders pagination pages to PDF and PNG files via
// github.com/tdewolff/canvas. Rendering is a function of the model and a
// render context; the Exporter only wires shared resources (fonts, the
// raster cache) into that function.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/prototypyside/prototypyside/pkg/cache"
	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/pagination"
	"github.com/prototypyside/prototypyside/pkg/rctx"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// Options configures an export run.
type Options struct {
	// DPI is the raster resolution for PNG output and the raster route.
	DPI int

	// IncludeBleed expands component backgrounds by their bleed.
	IncludeBleed bool

	// Route picks who paints component content. The raster route renders
	// each component to a cached image and composes pages from those.
	Route rctx.Route

	// FontDir overrides system font lookup.
	FontDir string

	// BaseDir resolves relative image paths.
	BaseDir string
}

// Exporter renders pagination pages into output files.
type Exporter struct {
	logger *log.Logger
	opts   Options
	fonts  *FontStore
	cache  cache.Cache
	keyer  cache.Keyer
}

// rasterTTL bounds how long cached component rasters are reused.
const rasterTTL = 24 * time.Hour

// New creates an exporter. A nil cache disables raster reuse.
func New(logger *log.Logger, c cache.Cache, opts Options) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	return &Exporter{
		logger: logger,
		opts:   opts,
		fonts:  NewFontStore(opts.FontDir),
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
	}
}

// renderContext derives the export render context. Exports measure in
// millimeters regardless of the editing unit.
func (e *Exporter) renderContext() rctx.Context {
	return rctx.New(e.opts.DPI, units.Mm).
		WithMode(rctx.Export).
		WithRoute(e.opts.Route).
		WithTab(rctx.LayoutTab)
}

// ExportPDF writes every page of the run into one PDF file.
func (e *Exporter) ExportPDF(ctx context.Context, mgr *pagination.Manager, layout *model.LayoutTemplate, path string) error {
	w := layout.Geometry().Width().MM()
	h := layout.Geometry().Height().MM()
	rc := e.renderContext()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()

	writer := pdf.New(f, w, h, nil)
	count := 0
	it := mgr.Iter()
	for {
		page, ok := it.Next()
		if !ok {
			break
		}
		if page.Index > 0 {
			writer.NewPage(w, h)
		}
		c := canvas.New(w, h)
		gc := canvas.NewContext(c)
		gc.SetCoordSystem(canvas.CartesianIV)
		if err := e.renderPage(ctx, gc, page, rc); err != nil {
			return err
		}
		c.RenderTo(writer)
		count++
	}
	if err := it.Err(); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write %s", path)
	}
	e.logger.Info("exported pdf", "path", path, "pages", count)
	return nil
}

// ExportPNG writes one numbered PNG per page next to baseName and returns
// the file paths, e.g. deck-001.png, deck-002.png.
func (e *Exporter) ExportPNG(ctx context.Context, mgr *pagination.Manager, layout *model.LayoutTemplate, dir, baseName string) ([]string, error) {
	w := layout.Geometry().Width().MM()
	h := layout.Geometry().Height().MM()
	rc := e.renderContext()
	dpmm := float64(e.opts.DPI) / 25.4

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}

	var paths []string
	it := mgr.Iter()
	for {
		page, ok := it.Next()
		if !ok {
			break
		}
		c := canvas.New(w, h)
		gc := canvas.NewContext(c)
		gc.SetCoordSystem(canvas.CartesianIV)
		if err := e.renderPage(ctx, gc, page, rc); err != nil {
			return nil, err
		}

		img := rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
		path := filepath.Join(dir, fmt.Sprintf("%s-%03d.png", baseName, page.Index+1))
		if err := writePNG(path, img); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	e.logger.Info("exported png", "dir", dir, "pages", len(paths))
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "encode %s", path)
	}
	return nil
}

// renderPage draws one pagination page, going through the raster cache
// when the route makes the parent paint.
func (e *Exporter) renderPage(ctx context.Context, gc *canvas.Context, page pagination.Page, rc rctx.Context) error {
	r := &renderer{fonts: e.fonts, baseDir: e.opts.BaseDir, bleed: e.opts.IncludeBleed}
	if rc.ChildPaints() {
		return r.renderPage(gc, page, rc)
	}
	for _, pl := range page.Placements {
		if pl.Instance == nil {
			continue
		}
		img, err := e.rasterInstance(ctx, r, pl.Instance, rc)
		if err != nil {
			return err
		}
		x := pl.Slot.Geometry().PosX().MM()
		y := pl.Slot.Geometry().PosY().MM()
		gc.DrawImage(x, y, img, canvas.DPMM(float64(rc.DPI)/25.4))
	}
	return nil
}

// rasterInstance renders one component instance to an image, reusing the
// cached raster when the same content was already rendered at this DPI.
func (e *Exporter) rasterInstance(ctx context.Context, r *renderer, inst *model.ComponentInstance, rc rctx.Context) (image.Image, error) {
	key := e.keyer.ComponentKey(inst.TemplatePID(), contentHash(inst), cache.RenderKeyOpts{
		DPI:          rc.DPI,
		IncludeBleed: e.opts.IncludeBleed,
		Format:       "png",
	})
	if data, hit, err := e.cache.Get(ctx, key); err == nil && hit {
		if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}

	w := inst.Geometry().Width().MM()
	h := inst.Geometry().Height().MM()
	c := canvas.New(w, h)
	gc := canvas.NewContext(c)
	gc.SetCoordSystem(canvas.CartesianIV)
	if err := r.renderInstance(gc, inst, 0, 0, rc); err != nil {
		return nil, err
	}
	img := rasterizer.Draw(c, canvas.DPMM(float64(rc.DPI)/25.4), canvas.DefaultColorSpace)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err == nil {
		if err := e.cache.Set(ctx, key, buf.Bytes(), rasterTTL); err != nil {
			e.logger.Debug("raster cache write failed", "err", err)
		}
	}
	return img, nil
}

// contentHash fingerprints the data that changes an instance's pixels:
// element contents in name order plus the background image.
func contentHash(inst *model.ComponentInstance) string {
	parts := make([]string, 0, len(inst.Elements())+1)
	for _, el := range inst.Elements() {
		parts = append(parts, el.Name()+"="+el.Content())
	}
	sort.Strings(parts)
	parts = append(parts, inst.BackgroundImage())
	return cache.Hash([]byte(strings.Join(parts, "\x00")))
}
