package spi

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

// UnsetIdno is the project id of a store that holds no dataset.
const UnsetIdno int64 = -1

// ErrDuplicatePadID is returned by Add when a record with the same pad id is
// already stored.
var ErrDuplicatePadID = errors.New("duplicate pad id")

// Metadata is the project-level information extracted from a dataset.
type Metadata struct {
	Idno        int64
	ProductName string
}

// Group is one bucket of a grouping: all components of a type sharing a key
// (a size string or a component id).
type Group struct {
	ComponentType string
	Key           string
	Components    []*Component
}

// StructureEntry summarises a group for presentation.
type StructureEntry struct {
	ComponentType string `json:"component_type"`
	Key           string `json:"key"`
	Count         int    `json:"count"`
}

// grouping is a two level index type -> key -> components that remembers
// insertion order at both levels so iteration is deterministic.
type grouping struct {
	types   []string
	keys    map[string][]string
	buckets map[string]map[string][]*Component
}

func newGrouping() *grouping {
	return &grouping{
		keys:    make(map[string][]string),
		buckets: make(map[string]map[string][]*Component),
	}
}

func (g *grouping) add(componentType, key string, c *Component) {
	byKey, ok := g.buckets[componentType]
	if !ok {
		byKey = make(map[string][]*Component)
		g.buckets[componentType] = byKey
		g.types = append(g.types, componentType)
	}
	if _, ok := byKey[key]; !ok {
		g.keys[componentType] = append(g.keys[componentType], key)
	}
	byKey[key] = append(byKey[key], c)
}

func (g *grouping) groups() []Group {
	var out []Group
	for _, t := range g.types {
		for _, k := range g.keys[t] {
			out = append(out, Group{ComponentType: t, Key: k, Components: g.buckets[t][k]})
		}
	}
	return out
}

func (g *grouping) get(componentType, key string) []*Component {
	return g.buckets[componentType][key]
}

// Store owns every Component of the loaded dataset and indexes them by
// (type, size) and (type, component id). It is rebuilt wholesale on every
// successful parse.
type Store struct {
	mu sync.RWMutex

	components []*Component
	padIDs     map[int64]struct{}
	bySize     *grouping
	byID       *grouping

	idno        int64
	productName string
	lineIDs     []string
	panelIDs    []string
	seenLines   map[string]struct{}
	seenPanels  map[string]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	s.resetLocked(Metadata{Idno: UnsetIdno})
	return s
}

func (s *Store) resetLocked(meta Metadata) {
	s.components = nil
	s.padIDs = make(map[int64]struct{})
	s.bySize = newGrouping()
	s.byID = newGrouping()
	s.idno = meta.Idno
	s.productName = meta.ProductName
	s.lineIDs = nil
	s.panelIDs = nil
	s.seenLines = make(map[string]struct{})
	s.seenPanels = make(map[string]struct{})
}

// Clear drops all components and resets the metadata. The store stays usable.
func (s *Store) Clear() {
	s.Reset(Metadata{Idno: UnsetIdno})
}

// Reset clears the store and installs new project metadata.
func (s *Store) Reset(meta Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(meta)
}

// Replace moves the contents of staged into s in one step, so readers see
// either the old dataset or the new one. staged is left empty.
func (s *Store) Replace(staged *Store) {
	if s == staged {
		return
	}
	staged.mu.Lock()
	defer staged.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.components = staged.components
	s.padIDs = staged.padIDs
	s.bySize = staged.bySize
	s.byID = staged.byID
	s.idno = staged.idno
	s.productName = staged.productName
	s.lineIDs = staged.lineIDs
	s.panelIDs = staged.panelIDs
	s.seenLines = staged.seenLines
	s.seenPanels = staged.seenPanels
	staged.resetLocked(Metadata{Idno: UnsetIdno})
}

// Add appends c to the flat list and both indices.
func (s *Store) Add(c *Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.padIDs[c.PadID]; dup {
		return fmt.Errorf("pad %d: %w", c.PadID, ErrDuplicatePadID)
	}
	s.padIDs[c.PadID] = struct{}{}
	s.components = append(s.components, c)
	s.bySize.add(c.ComponentType, c.Size(), c)
	s.byID.add(c.ComponentType, c.ComponentID, c)

	if _, ok := s.seenLines[c.LineID]; !ok {
		s.seenLines[c.LineID] = struct{}{}
		s.lineIDs = append(s.lineIDs, c.LineID)
	}
	if _, ok := s.seenPanels[c.PanelID]; !ok {
		s.seenPanels[c.PanelID] = struct{}{}
		s.panelIDs = append(s.panelIDs, c.PanelID)
	}
	return nil
}

// Len returns the number of stored components.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components)
}

// All returns a copy of the component list in insertion order.
func (s *Store) All() []*Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Component, len(s.components))
	copy(out, s.components)
	return out
}

// Each calls fn for every component while holding the write lock, stopping
// at the first error. It is the only sanctioned way to mutate records in place.
func (s *Store) Each(fn func(i, n int, c *Component) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.components)
	for i, c := range s.components {
		if err := fn(i, n, c); err != nil {
			return err
		}
	}
	return nil
}

// IterBySize yields every (type, size) group in insertion order.
// Callers must not add components while iterating.
func (s *Store) IterBySize() iter.Seq[Group] {
	return s.iterate(func() []Group { return s.bySize.groups() })
}

// IterByID yields every (type, component id) group in insertion order.
func (s *Store) IterByID() iter.Seq[Group] {
	return s.iterate(func() []Group { return s.byID.groups() })
}

func (s *Store) iterate(snapshot func() []Group) iter.Seq[Group] {
	return func(yield func(Group) bool) {
		s.mu.RLock()
		groups := snapshot()
		s.mu.RUnlock()
		for _, g := range groups {
			if !yield(g) {
				return
			}
		}
	}
}

// BySize returns the components of one type and size.
func (s *Store) BySize(componentType, size string) []*Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bySize.get(componentType, size)
}

// ByType returns every component of componentType across all sizes.
func (s *Store) ByType(componentType string) []*Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Component
	for _, k := range s.bySize.keys[componentType] {
		out = append(out, s.bySize.get(componentType, k)...)
	}
	return out
}

// ByID returns the components carrying id.
func (s *Store) ByID(id string) []*Component {
	if id == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID.get(TypeOf(id), id)
}

// Idno returns the project id, or UnsetIdno.
func (s *Store) Idno() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idno
}

// ProductName returns the product group of the loaded dataset.
func (s *Store) ProductName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productName
}

// LineIDs returns the production lines seen, in first-seen order.
func (s *Store) LineIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.lineIDs...)
}

// PanelIDs returns the panel ids seen, in first-seen order.
func (s *Store) PanelIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.panelIDs...)
}
