package units

import (
	"sort"
	"strings"

	"github.com/prototypyside/prototypyside/pkg/errors"
)

// pageSizes maps canonical page-size keys to their physical dimensions.
// North American sizes are defined in inches, ISO 216 sizes in millimeters.
var pageSizes = map[string]UnitStrGeometry{
	"letter":  NewGeometry(MustParse("8.5in"), MustParse("11in")),
	"legal":   NewGeometry(MustParse("8.5in"), MustParse("14in")),
	"tabloid": NewGeometry(MustParse("11in"), MustParse("17in")),
	"super-b": NewGeometry(MustParse("13in"), MustParse("19in")),
	"a4":      NewGeometry(MustParse("210mm"), MustParse("297mm")),
	"a3":      NewGeometry(MustParse("297mm"), MustParse("420mm")),
	"a3+":     NewGeometry(MustParse("329mm"), MustParse("483mm")),
	"a2":      NewGeometry(MustParse("420mm"), MustParse("594mm")),
	"a1":      NewGeometry(MustParse("594mm"), MustParse("841mm")),
	"a0":      NewGeometry(MustParse("841mm"), MustParse("1189mm")),
}

// PageSize returns the geometry for a named page size. Lookup is
// case-insensitive. landscape swaps width and height.
func PageSize(name string, landscape bool) (UnitStrGeometry, error) {
	g, ok := pageSizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return UnitStrGeometry{}, errors.New(errors.ErrCodeConfiguration, "unknown page size: %q", name)
	}
	if landscape {
		g = NewGeometry(g.Height(), g.Width())
	}
	return g, nil
}

// PageSizeNames returns the sorted list of supported page-size keys.
func PageSizeNames() []string {
	names := make([]string, 0, len(pageSizes))
	for name := range pageSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
