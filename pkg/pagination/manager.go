package pagination

import (
	"github.com/charmbracelet/log"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// DefaultPageCeiling bounds a single pagination run. A policy that never
// signals exhaustion is a contract violation, not a reason to spin forever.
const DefaultPageCeiling = 500

// Manager is a thin cache over a Policy: it prepares the policy lazily,
// builds pages in strictly increasing index order, and serves cached pages
// on re-reads. It is single-owner; concurrent callers must serialize.
type Manager struct {
	layout  *model.LayoutTemplate
	sources Sources
	policy  Policy
	logger  *log.Logger

	pages    []Page
	done     bool
	prepared bool
	ceiling  int
}

// Option tunes a Manager.
type Option func(*Manager)

// WithPageCeiling overrides the hard page-count bound.
func WithPageCeiling(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.ceiling = n
		}
	}
}

// WithPolicy bypasses the layout's persisted policy name.
func WithPolicy(p Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// NewManager builds a manager for the layout. The policy comes from the
// layout's persisted policy name unless WithPolicy overrides it.
func NewManager(layout *model.LayoutTemplate, sources Sources, logger *log.Logger, opts ...Option) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		layout:  layout,
		sources: sources,
		logger:  logger,
		ceiling: DefaultPageCeiling,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.policy == nil {
		policy, err := New(layout.Policy(), layout.PolicyParams())
		if err != nil {
			return nil, err
		}
		m.policy = policy
	}
	return m, nil
}

func (m *Manager) ensurePrepared() error {
	if m.prepared {
		return nil
	}
	if err := m.policy.Prepare(m.layout, m.sources); err != nil {
		return err
	}
	m.prepared = true
	m.logger.Debug("pagination prepared",
		"policy", m.policy.Name(),
		"slots", m.layout.SlotCount())
	return nil
}

// buildNext asks the policy for one more page. Returns false once the
// policy signals exhaustion.
func (m *Manager) buildNext() (bool, error) {
	if m.done {
		return false, nil
	}
	if len(m.pages) >= m.ceiling {
		return false, errors.New(errors.ErrCodePagination,
			"pagination exceeded the %d page ceiling; policy %q never signalled exhaustion",
			m.ceiling, m.policy.Name())
	}
	placements, err := m.policy.NextPage()
	if err != nil {
		return false, err
	}
	if placements == nil {
		m.done = true
		return false, nil
	}
	if want := m.layout.SlotCount(); len(placements) != want {
		return false, errors.New(errors.ErrCodePagination,
			"policy %q produced %d placements for %d slots", m.policy.Name(), len(placements), want)
	}
	m.pages = append(m.pages, Page{Index: len(m.pages), Placements: placements})
	return true, nil
}

func (m *Manager) ensurePages(n int) (bool, error) {
	if err := m.ensurePrepared(); err != nil {
		return false, err
	}
	for len(m.pages) < n {
		more, err := m.buildNext()
		if err != nil {
			return false, err
		}
		if !more {
			return false, nil
		}
	}
	return true, nil
}

// Generate drains the policy eagerly, bounded by the page ceiling.
func (m *Manager) Generate() error {
	if err := m.ensurePrepared(); err != nil {
		return err
	}
	for {
		more, err := m.buildNext()
		if err != nil {
			return err
		}
		if !more {
			m.logger.Debug("pagination complete", "pages", len(m.pages))
			return nil
		}
	}
}

// PageCount returns the number of pages, forcing full generation.
func (m *Manager) PageCount() (int, error) {
	if err := m.Generate(); err != nil {
		return 0, err
	}
	return len(m.pages), nil
}

// GetPage returns page i, generating pages 0..i as a side effect.
// Indices beyond exhaustion fail with PAGE_OUT_OF_RANGE.
func (m *Manager) GetPage(i int) (Page, error) {
	if i < 0 {
		return Page{}, errors.New(errors.ErrCodePageRange, "page index %d is negative", i)
	}
	ok, err := m.ensurePages(i + 1)
	if err != nil {
		return Page{}, err
	}
	if !ok {
		return Page{}, errors.New(errors.ErrCodePageRange,
			"page %d out of range: layout paginates to %d pages", i, len(m.pages))
	}
	return m.pages[i], nil
}

// NextOf reports whether page i exists, generating lazily. It backs
// iteration without the out-of-range error.
func (m *Manager) NextOf(i int) (Page, bool, error) {
	if i < 0 {
		return Page{}, false, errors.New(errors.ErrCodePageRange, "page index %d is negative", i)
	}
	ok, err := m.ensurePages(i + 1)
	if err != nil || !ok {
		return Page{}, false, err
	}
	return m.pages[i], true, nil
}

// Iter returns a lazy iterator that always restarts from page zero,
// serving cached pages before asking the policy for more.
func (m *Manager) Iter() *Iter { return &Iter{m: m} }

// Iter walks pages in order. Next returns false at exhaustion or error;
// check Err afterwards.
type Iter struct {
	m   *Manager
	idx int
	err error
}

// Next returns the next page while one exists.
func (it *Iter) Next() (Page, bool) {
	page, ok, err := it.m.NextOf(it.idx)
	if err != nil {
		it.err = err
		return Page{}, false
	}
	if !ok {
		return Page{}, false
	}
	it.idx++
	return page, true
}

// Err returns the error that stopped iteration, if any.
func (it *Iter) Err() error { return it.err }
