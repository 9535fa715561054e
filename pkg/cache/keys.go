package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys for the two cacheable render products.
type Keyer interface {
	// ComponentKey identifies one rasterized component instance. The
	// contentHash covers the instance's merged field values so edits and
	// different CSV rows never collide.
	ComponentKey(templatePID, contentHash string, opts RenderKeyOpts) string

	// PageKey identifies one fully composed page raster.
	PageKey(layoutPID string, pageIndex int, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render settings that change the produced pixels.
type RenderKeyOpts struct {
	DPI          int    `json:"dpi"`
	IncludeBleed bool   `json:"include_bleed"`
	Format       string `json:"format"`
}

// DefaultKeyer hashes settings into stable keys.
type DefaultKeyer struct{}

func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

func (k *DefaultKeyer) ComponentKey(templatePID, contentHash string, opts RenderKeyOpts) string {
	return hashKey("comp", templatePID, contentHash, opts)
}

func (k *DefaultKeyer) PageKey(layoutPID string, pageIndex int, opts RenderKeyOpts) string {
	return hashKey("page", layoutPID, pageIndex, opts)
}

// ScopedKeyer prefixes another Keyer's keys so separate projects sharing
// one cache directory stay isolated.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ComponentKey(templatePID, contentHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.ComponentKey(templatePID, contentHash, opts)
}

func (k *ScopedKeyer) PageKey(layoutPID string, pageIndex int, opts RenderKeyOpts) string {
	return k.prefix + k.inner.PageKey(layoutPID, pageIndex, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
