// Package merge loads CSV datasets and hands out row cursors to the
// pagination engine. Columns that feed template elements are named with the
// "@" sentinel; other columns are carried but never bound.
package merge

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// FieldStatus classifies one @-field when a dataset is checked against a
// template's bound elements.
type FieldStatus string

const (
	// FieldOK means the template binds the column and the CSV provides it.
	FieldOK FieldStatus = "ok"
	// FieldMissing means the template binds a column the CSV lacks.
	FieldMissing FieldStatus = "missing"
	// FieldUnused means the CSV provides a column no element binds.
	FieldUnused FieldStatus = "warn"
)

// CSVData holds one parsed CSV file: its @-headers and its rows keyed by
// header name.
type CSVData struct {
	Path    string
	Headers []string
	Rows    []map[string]string

	// Skipped counts malformed rows dropped during the load.
	Skipped int
}

// ReadCSV parses CSV content. The first record is the header row; a file
// whose header has no @-columns yields zero rows, matching the convention
// that only sentinel columns drive a merge. Rows with the wrong field count
// are skipped, not fatal.
func ReadCSV(r io.Reader, logger *log.Logger) (*CSVData, error) {
	if logger == nil {
		logger = log.Default()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeParse, "CSV file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "invalid CSV header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	data := &CSVData{Headers: header}
	bound := false
	for _, h := range header {
		if strings.HasPrefix(h, model.BindingPrefix) {
			bound = true
			break
		}
	}
	if !bound {
		return data, nil
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			data.Skipped++
			logger.Warn("skipping malformed CSV row", "line", line, "err", err)
			continue
		}
		if len(record) != len(header) {
			data.Skipped++
			logger.Warn("skipping CSV row with wrong field count",
				"line", line, "fields", len(record), "want", len(header))
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			row[h] = record[i]
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

// LoadCSV reads and parses a CSV file.
func LoadCSV(path string, logger *log.Logger) (*CSVData, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "CSV file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot open CSV file: %s", path)
	}
	defer f.Close()

	data, err := ReadCSV(f, logger)
	if err != nil {
		return nil, err
	}
	data.Path = path
	return data, nil
}

// ValidateHeaders checks the dataset's @-columns against the template's
// bound element names and classifies every field seen on either side.
func (d *CSVData) ValidateHeaders(tpl *model.ComponentTemplate) map[string]FieldStatus {
	bound := make(map[string]bool)
	for _, name := range tpl.BoundFields() {
		bound[name] = true
	}
	provided := make(map[string]bool)
	for _, h := range d.Headers {
		if strings.HasPrefix(h, model.BindingPrefix) {
			provided[h] = true
		}
	}

	out := make(map[string]FieldStatus)
	for name := range bound {
		if provided[name] {
			out[name] = FieldOK
		} else {
			out[name] = FieldMissing
		}
	}
	for name := range provided {
		if !bound[name] {
			out[name] = FieldUnused
		}
	}
	return out
}

// Cursor walks one dataset's rows in order. Each cursor is exclusively
// owned by the pagination policy it is handed to; two policies never share
// one, which prevents double-consumption of rows.
type Cursor struct {
	data *CSVData
	next int
}

// Remaining returns how many rows are left.
func (c *Cursor) Remaining() int {
	if c == nil || c.data == nil {
		return 0
	}
	return len(c.data.Rows) - c.next
}

// NextRow returns the next row and advances, or (nil, false) once the
// dataset is exhausted.
func (c *Cursor) NextRow() (map[string]string, bool) {
	if c.Remaining() == 0 {
		return nil, false
	}
	row := c.data.Rows[c.next]
	c.next++
	return row, true
}

// Manager caches loaded datasets keyed by the owning template's PID and
// hands out fresh cursors for pagination runs.
type Manager struct {
	logger   *log.Logger
	datasets map[string]*CSVData
}

// NewManager creates an empty merge manager.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		logger:   logger,
		datasets: make(map[string]*CSVData),
	}
}

// Load reads a CSV file and binds it to the template. Datasets always bind
// to the root template's PID, never a clone's.
func (m *Manager) Load(path string, tpl *model.ComponentTemplate) (*CSVData, error) {
	data, err := LoadCSV(path, m.logger)
	if err != nil {
		return nil, err
	}
	m.datasets[tpl.PID()] = data

	for field, status := range data.ValidateHeaders(tpl) {
		switch status {
		case FieldMissing:
			m.logger.Warn("CSV lacks a bound column", "field", field, "file", path)
		case FieldUnused:
			m.logger.Warn("CSV column bound by no element", "field", field, "file", path)
		}
	}
	return data, nil
}

// Dataset returns the dataset bound to the template PID, if any.
func (m *Manager) Dataset(templatePID string) (*CSVData, bool) {
	data, ok := m.datasets[templatePID]
	return data, ok
}

// Source hands out a fresh exclusive cursor over the template's dataset.
// A template with no dataset gets an empty cursor.
func (m *Manager) Source(templatePID string) *Cursor {
	return &Cursor{data: m.datasets[templatePID]}
}

// RowCount returns the number of rows bound to the template PID.
func (m *Manager) RowCount(templatePID string) int {
	if data, ok := m.datasets[templatePID]; ok {
		return len(data.Rows)
	}
	return 0
}
