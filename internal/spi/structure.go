package spi

import (
	"iter"
	"sort"
	"strconv"
)

// StructureBySize summarises the (type, size) grouping sorted by type then
// size string.
func (s *Store) StructureBySize() []StructureEntry {
	out := s.structure(s.IterBySize())
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ComponentType != out[j].ComponentType {
			return out[i].ComponentType < out[j].ComponentType
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// StructureByID summarises the (type, component id) grouping in natural
// order, so R2 comes before R10.
func (s *Store) StructureByID() []StructureEntry {
	out := s.structure(s.IterByID())
	sort.SliceStable(out, func(i, j int) bool {
		return naturalLess(out[i], out[j])
	})
	return out
}

func (s *Store) structure(groups iter.Seq[Group]) []StructureEntry {
	var out []StructureEntry
	for g := range groups {
		out = append(out, StructureEntry{
			ComponentType: g.ComponentType,
			Key:           g.Key,
			Count:         len(g.Components),
		})
	}
	return out
}

// splitNatural splits an id into its leading letters and the digits that
// immediately follow them. A missing number counts as 0.
func splitNatural(id string) (prefix string, number int) {
	i := 0
	for i < len(id) && isASCIILetter(id[i]) {
		i++
	}
	j := i
	for j < len(id) && id[j] >= '0' && id[j] <= '9' {
		j++
	}
	if j > i {
		if n, err := strconv.Atoi(id[i:j]); err == nil {
			number = n
		}
	}
	return id[:i], number
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func naturalLess(a, b StructureEntry) bool {
	if a.ComponentType != b.ComponentType {
		return a.ComponentType < b.ComponentType
	}
	ap, an := splitNatural(a.Key)
	bp, bn := splitNatural(b.Key)
	if ap != bp {
		return ap < bp
	}
	return an < bn
}
