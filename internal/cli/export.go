package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prototypyside/prototypyside/pkg/cache"
	"github.com/prototypyside/prototypyside/pkg/config"
	"github.com/prototypyside/prototypyside/pkg/export"
	"github.com/prototypyside/prototypyside/pkg/rctx"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	exportDir string // output directory (required)
	pdf       bool   // write one PDF per layout
	png       bool   // write numbered PNGs per layout
	csv       string // dataset override for data-bound templates
	bleed     bool   // expand component backgrounds by their bleed
	dpi       int    // raster resolution override
	noCache   bool   // skip the render cache
}

// newExportCmd creates the export command. It renders every layout built
// from the given template files into the export directory; defaults to PDF
// when neither --pdf nor --png is given.
func newExportCmd() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [template...]",
		Short: "Render templates to print-ready PDF or PNG pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.exportDir, "export", "e", "", "output directory (required)")
	cmd.Flags().BoolVar(&opts.pdf, "pdf", false, "export a PDF per layout (default)")
	cmd.Flags().BoolVar(&opts.png, "png", false, "export numbered PNG pages per layout")
	cmd.Flags().StringVar(&opts.csv, "csv", "", "CSV file overriding the templates' datasets")
	cmd.Flags().BoolVar(&opts.bleed, "bleed", false, "include bleed area in component backgrounds")
	cmd.Flags().IntVar(&opts.dpi, "dpi", 0, "raster resolution (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	_ = cmd.MarkFlagRequired("export")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts *exportOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	if !opts.pdf && !opts.png {
		opts.pdf = true
	}
	dpi := opts.dpi
	if dpi <= 0 {
		dpi = cfg.PrintDPI
	}

	p, err := loadProject(logger, args, opts.csv)
	if err != nil {
		return err
	}

	files := 0
	for _, layout := range p.layouts {
		mgr, err := p.manager(layout, cfg.LockAt)
		if err != nil {
			return err
		}

		// PDF pages stay vector; PNG pages compose from cached component
		// rasters so repeated instances render once.
		renderCache := newRenderCache(cfg, opts.noCache)
		newExporter := func(route rctx.Route) *export.Exporter {
			return export.New(logger, renderCache, export.Options{
				DPI:          dpi,
				IncludeBleed: opts.bleed,
				Route:        route,
				FontDir:      cfg.FontDir,
				BaseDir:      p.dirs[layout.PID()],
			})
		}

		base := outputBase(layout.Name())
		if opts.pdf {
			path := filepath.Join(opts.exportDir, base+".pdf")
			if err := newExporter(rctx.Composite).ExportPDF(ctx, mgr, layout, path); err != nil {
				return err
			}
			printFile(path)
			files++
		}
		if opts.png {
			paths, err := newExporter(rctx.Raster).ExportPNG(ctx, mgr, layout, opts.exportDir, base)
			if err != nil {
				return err
			}
			for _, path := range paths {
				printFile(path)
			}
			files += len(paths)
		}
	}

	prog.done(fmt.Sprintf("Exported %d file(s) from %d layout(s)", files, len(p.layouts)))
	return nil
}

// outputBase turns a layout name into a safe file name stem.
func outputBase(name string) string {
	base := strings.TrimSpace(name)
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, base)
	if base == "" {
		base = "layout"
	}
	return base
}

// newRenderCache opens the file-backed render cache, degrading to a no-op
// cache when disabled or when the cache directory is unavailable.
func newRenderCache(cfg config.Config, noCache bool) cache.Cache {
	if noCache || cfg.NoCache {
		return cache.NewNullCache()
	}
	dir, err := config.CacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return c
}
