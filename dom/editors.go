package dom

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// EditorRegistry is the host page's table of rich-text editor instances.
type EditorRegistry interface {
	IDs() []string
	SetContent(id, content string) error
}

// MemoryEditors keeps editor content keyed by instance id.
type MemoryEditors map[string]string

// IDs returns the registered ids in sorted order.
func (m MemoryEditors) IDs() []string {
	ids := maps.Keys(m)
	slices.Sort(ids)
	return ids
}

// SetContent replaces the content of a registered instance.
func (m MemoryEditors) SetContent(id, content string) error {
	if _, ok := m[id]; !ok {
		return fmt.Errorf("editor %q: %w", id, ErrNotFound)
	}
	m[id] = content
	return nil
}
