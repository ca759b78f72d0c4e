package topic

import (
	"strings"
)

// Builder constructs and parses topic strings under a common root namespace.
// Every topic has the shape {root}/{segment}/{identifier}, where segment may
// itself contain slashes.
type Builder struct {
	// root is the base namespace for all topics (e.g., "imc/v1").
	root string
}

// NewBuilder creates a Builder for the given root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, Separator)}
}

// Root returns the namespace every topic starts with.
func (b *Builder) Root() string {
	return b.root
}

// Build returns {root}/{segment}/{id}.
func (b *Builder) Build(segment, id string) string {
	return b.root + Separator + segment + Separator + id
}

// Wildcard returns the filter matching segment for every identifier.
// Result: {root}/{segment}/+
func (b *Builder) Wildcard(segment string) string {
	return b.Build(segment, Wildcard)
}

// Parse splits a concrete topic into its segment and identifier. It fails for
// topics outside the root or without an identifier level.
func (b *Builder) Parse(topic string) (segment, id string, ok bool) {
	rest, found := strings.CutPrefix(topic, b.root+Separator)
	if !found {
		return "", "", false
	}

	i := strings.LastIndexByte(rest, '/')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
