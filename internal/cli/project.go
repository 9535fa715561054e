package cli

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/merge"
	"github.com/prototypyside/prototypyside/pkg/model"
	"github.com/prototypyside/prototypyside/pkg/pagination"
	"github.com/prototypyside/prototypyside/pkg/registry"
)

// project is the loaded working set of one CLI invocation: every template
// file given on the command line, registered and bound together, with CSV
// datasets attached to the component templates that declare them.
type project struct {
	logger     *log.Logger
	registry   *registry.Registry
	layouts    []*model.LayoutTemplate
	components map[string]*model.ComponentTemplate
	dirs       map[string]string // template PID -> directory of its file
	merges     *merge.Manager
}

// loadProject reads the given template files and wires them together.
// csvOverride, when set, replaces the csv path of every data-bound
// component template.
func loadProject(logger *log.Logger, paths []string, csvOverride string) (*project, error) {
	if logger == nil {
		logger = log.Default()
	}
	p := &project{
		logger:     logger,
		registry:   registry.New(logger),
		components: make(map[string]*model.ComponentTemplate),
		dirs:       make(map[string]string),
		merges:     merge.NewManager(logger),
	}

	for _, path := range paths {
		tpl, err := model.LoadTemplateFile(path)
		if err != nil {
			return nil, err
		}
		if err := p.registry.RegisterTree(tpl); err != nil {
			return nil, err
		}
		dir := filepath.Dir(path)
		switch t := tpl.(type) {
		case *model.LayoutTemplate:
			p.layouts = append(p.layouts, t)
			p.dirs[t.PID()] = dir
		case *model.ComponentTemplate:
			p.components[t.PID()] = t
			p.dirs[t.PID()] = dir
		}
		logger.Debug("loaded template", "path", path, "pid", tpl.PID(), "name", tpl.Name())
	}

	for _, layout := range p.layouts {
		if unresolved := layout.BindTemplates(p.components); len(unresolved) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidTemplate,
				"layout %q references templates not given on the command line: %s",
				layout.Name(), strings.Join(unresolved, ", "))
		}
	}

	// A run with only component templates gets a default layout grid so
	// they can still paginate and export.
	if len(p.layouts) == 0 {
		if len(p.components) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidTemplate,
				"give exactly one component template or include a layout template, got %d components and no layout",
				len(p.components))
		}
		layout, err := model.NewLayoutTemplate("sheet")
		if err != nil {
			return nil, err
		}
		for _, tpl := range p.components {
			layout.AssignTemplate(tpl)
			p.dirs[layout.PID()] = p.dirs[tpl.PID()]
		}
		p.layouts = append(p.layouts, layout)
	}

	for pid, tpl := range p.components {
		path := tpl.CSVPath()
		if csvOverride != "" && len(tpl.BoundFields()) > 0 {
			path = csvOverride
		}
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.dirs[pid], path)
		}
		data, err := p.merges.Load(path, tpl)
		if err != nil {
			return nil, err
		}
		warnHeaderMismatches(tpl, data)
		logger.Debug("loaded dataset", "path", path, "template", tpl.Name(), "rows", len(data.Rows))
	}

	return p, nil
}

// warnHeaderMismatches reports bound fields the dataset cannot fill and
// @-columns no element consumes. Neither is fatal: missing fields render
// empty, unused columns are ignored.
func warnHeaderMismatches(tpl *model.ComponentTemplate, data *merge.CSVData) {
	status := data.ValidateHeaders(tpl)
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch status[name] {
		case merge.FieldMissing:
			printWarning("%s: column %q missing from %s, slots render empty",
				tpl.Name(), name, filepath.Base(data.Path))
		case merge.FieldUnused:
			printWarning("%s: column %q in %s matches no element",
				tpl.Name(), name, filepath.Base(data.Path))
		}
	}
}

// sources builds the pagination inputs: one fresh exclusive cursor per
// data-bound component template.
func (p *project) sources() pagination.Sources {
	s := pagination.Sources{}
	pids := make([]string, 0, len(p.components))
	for pid := range p.components {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	for _, pid := range pids {
		if _, ok := p.merges.Dataset(pid); ok {
			s[pid] = []pagination.DataSource{p.merges.Source(pid)}
		}
	}
	return s
}

// manager builds a pagination manager for one loaded layout.
func (p *project) manager(layout *model.LayoutTemplate, lockAt int) (*pagination.Manager, error) {
	opts := []pagination.Option{}
	if lockAt > 0 {
		opts = append(opts, pagination.WithPageCeiling(lockAt))
	}
	return pagination.NewManager(layout, p.sources(), p.logger, opts...)
}
