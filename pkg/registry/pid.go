// Package registry implements prefix-typed object identity and lifetime
// management for the Prototypyside core.
//
// Every domain object carries a PID of the form "<prefix>_<uuid4>", where
// the prefix is a closed, compile-time table mapping to exactly one concrete
// kind ("ct" component template, "ls" layout slot, ...). The [Registry]
// maps live PIDs to objects, enforces uniqueness, and implements deep-clone
// semantics with fresh PIDs for template instantiation and previews.
package registry

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/prototypyside/prototypyside/pkg/errors"
)

// Kind identifies a concrete registrable object type.
type Kind int

const (
	KindComponentTemplate Kind = iota
	KindComponentInstance
	KindTextElement
	KindImageElement
	KindVectorElement
	KindLayoutTemplate
	KindLayoutSlot
	KindPage
)

// kindPrefixes is the closed prefix table. A PID's prefix always resolves
// to exactly one kind; additions here are the only way to mint new kinds.
var kindPrefixes = map[Kind]string{
	KindComponentTemplate: "ct",
	KindComponentInstance: "cc",
	KindTextElement:       "te",
	KindImageElement:      "ie",
	KindVectorElement:     "ve",
	KindLayoutTemplate:    "lt",
	KindLayoutSlot:        "ls",
	KindPage:              "pg",
}

var prefixKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindPrefixes))
	for k, p := range kindPrefixes {
		m[p] = k
	}
	return m
}()

// String returns the kind's PID prefix.
func (k Kind) String() string {
	if p, ok := kindPrefixes[k]; ok {
		return p
	}
	return "??"
}

// Name returns a human-readable kind name for CLI output.
func (k Kind) Name() string {
	switch k {
	case KindComponentTemplate:
		return "component template"
	case KindComponentInstance:
		return "component instance"
	case KindTextElement:
		return "text element"
	case KindImageElement:
		return "image element"
	case KindVectorElement:
		return "vector element"
	case KindLayoutTemplate:
		return "layout template"
	case KindLayoutSlot:
		return "layout slot"
	case KindPage:
		return "page"
	}
	return "unknown"
}

// KindForPrefix resolves a PID prefix to its kind.
func KindForPrefix(prefix string) (Kind, error) {
	k, ok := prefixKinds[strings.ToLower(prefix)]
	if !ok {
		return 0, errors.New(errors.ErrCodeParse, "unregistered PID prefix: %q", prefix)
	}
	return k, nil
}

// IssuePID returns a freshly generated globally-unique identifier tagged
// with the kind's prefix, e.g. "ct_1b4e28ba-2fa1-4d3b-..." .
// Panics on a kind outside the prefix table.
func IssuePID(k Kind) string {
	p, ok := kindPrefixes[k]
	if !ok {
		panic(fmt.Sprintf("registry: IssuePID called with unregistered kind %d", k))
	}
	return p + "_" + uuid.NewString()
}

// ParsePID validates a PID string and returns its kind.
// Malformed PIDs (missing separator, unregistered prefix, invalid UUID)
// fail with a PARSE_ERROR.
func ParsePID(pid string) (Kind, error) {
	prefix, rest, ok := strings.Cut(pid, "_")
	if !ok || rest == "" {
		return 0, errors.New(errors.ErrCodeParse, "malformed PID: %q", pid)
	}
	k, err := KindForPrefix(prefix)
	if err != nil {
		return 0, err
	}
	u, err := uuid.Parse(rest)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeParse, err, "malformed PID: %q", pid)
	}
	if u.Version() != 4 {
		return 0, errors.New(errors.ErrCodeParse, "PID %q does not carry a v4 UUID", pid)
	}
	return k, nil
}

// KindOf returns the kind encoded by a PID's prefix without validating the
// UUID portion. Used for dispatching persisted objects by tag.
func KindOf(pid string) (Kind, error) {
	prefix, _, ok := strings.Cut(pid, "_")
	if !ok {
		return 0, errors.New(errors.ErrCodeParse, "malformed PID: %q", pid)
	}
	return KindForPrefix(prefix)
}
