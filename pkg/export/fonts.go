package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// FontStore loads and caches font families for rendering. Families resolve
// from an optional font directory first (files named after the family),
// then from the system font index.
type FontStore struct {
	dir string

	mu       sync.Mutex
	families map[string]*canvas.FontFamily
	fallback *canvas.FontFamily
}

// FallbackFamily is tried when a text element's family cannot be loaded.
const FallbackFamily = "DejaVu Sans"

// NewFontStore creates a store that searches dir before the system fonts.
// An empty dir uses system fonts only.
func NewFontStore(dir string) *FontStore {
	return &FontStore{dir: dir, families: make(map[string]*canvas.FontFamily)}
}

// Face builds a font face for the given spec, sized in points.
func (s *FontStore) Face(spec model.FontSpec, col color.Color) (*canvas.FontFace, error) {
	style := fontStyle(spec.Bold, spec.Italic)
	family, err := s.family(spec.Family, style)
	if err != nil {
		return nil, err
	}
	return family.Face(spec.Size.PT(), col, style, canvas.FontNormal), nil
}

func (s *FontStore) family(name string, style canvas.FontStyle) (*canvas.FontFamily, error) {
	if name == "" {
		name = FallbackFamily
	}
	key := fmt.Sprintf("%s|%d", name, style)

	s.mu.Lock()
	defer s.mu.Unlock()
	if family, ok := s.families[key]; ok {
		return family, nil
	}

	family := canvas.NewFontFamily(name)
	if err := s.load(family, name, style); err != nil {
		fallback, fbErr := s.loadFallback(style)
		if fbErr != nil {
			return nil, errors.Wrap(errors.ErrCodeExport, err, "load font family %q", name)
		}
		s.families[key] = fallback
		return fallback, nil
	}
	s.families[key] = family
	return family, nil
}

func (s *FontStore) load(family *canvas.FontFamily, name string, style canvas.FontStyle) error {
	if s.dir != "" {
		for _, ext := range []string{".ttf", ".otf"} {
			path := filepath.Join(s.dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return family.LoadFontFile(path, style)
			}
		}
	}
	return family.LoadSystemFont(name, style)
}

func (s *FontStore) loadFallback(style canvas.FontStyle) (*canvas.FontFamily, error) {
	if s.fallback != nil {
		return s.fallback, nil
	}
	family := canvas.NewFontFamily(FallbackFamily)
	if err := family.LoadSystemFont(FallbackFamily, style); err != nil {
		return nil, err
	}
	s.fallback = family
	return family, nil
}

func fontStyle(bold, italic bool) canvas.FontStyle {
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	return style
}
