package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/registry"
)

// Template is a loadable top-level document: a component template or a
// layout template.
type Template interface {
	registry.Object
	registry.Composite
	registry.Cloner
	Name() string
}

// DecodeTemplate decodes a template document, dispatching the concrete
// type from the PID prefix.
func DecodeTemplate(data []byte) (Template, error) {
	var head struct {
		PID string `json:"pid"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid template document")
	}
	kind, err := registry.ParsePID(head.PID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "invalid template document")
	}
	switch kind {
	case registry.KindComponentTemplate:
		t := new(ComponentTemplate)
		if err := json.Unmarshal(data, t); err != nil {
			return nil, err
		}
		return t, nil
	case registry.KindLayoutTemplate:
		t := new(LayoutTemplate)
		if err := json.Unmarshal(data, t); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidTemplate,
			"unrecognized template type %q for PID %s", kind.Name(), head.PID)
	}
}

// LoadTemplateFile reads and decodes a template JSON file.
func LoadTemplateFile(path string) (Template, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, errors.New(errors.ErrCodeInvalidPath, "template file must be .json: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "template file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot read template file: %s", path)
	}
	t, err := DecodeTemplate(data)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "loading %s", filepath.Base(path))
	}
	return t, nil
}

// SaveTemplateFile encodes and writes a template document.
func SaveTemplateFile(path string, t Template) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode template")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot write template file: %s", path)
	}
	return nil
}
