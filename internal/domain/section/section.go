// Package section implements the section-identity resolver: it maps
// loosely-formatted class labels onto the fixed set of canonical sections and
// their candidate roster filenames. The lookup tables are held in an immutable
// Catalog value constructed once at startup and passed to whoever needs it;
// there is no package-level mutable state.
package section

import (
	"sort"
	"strings"
)

// ID is a canonical section identifier, one of the deployment-defined set.
type ID string

// String returns the string representation of the section ID.
func (id ID) String() string {
	return string(id)
}

// Section describes one canonical section: the alias spellings accepted for
// it and the ordered list of roster filenames it has historically been saved
// under. The first filename is canonical and is the name used when a new
// roster is uploaded for the section.
type Section struct {
	ID        ID
	Aliases   []string
	Filenames []string
}

// Catalog is the fixed closed set of known sections with a precomputed
// alias lookup table. A Catalog is immutable after construction.
type Catalog struct {
	sections []Section
	byAlias  map[string]ID
	byID     map[ID]Section
}

// NewCatalog builds a Catalog from the given sections. The canonical ID of
// each section is registered as an alias of itself, so Resolve(string(id))
// always round-trips.
func NewCatalog(sections []Section) *Catalog {
	c := &Catalog{
		sections: make([]Section, len(sections)),
		byAlias:  make(map[string]ID),
		byID:     make(map[ID]Section, len(sections)),
	}
	copy(c.sections, sections)

	for _, s := range c.sections {
		c.byID[s.ID] = s
		c.byAlias[looseKey(string(s.ID))] = s.ID
		for _, alias := range s.Aliases {
			c.byAlias[looseKey(alias)] = s.ID
		}
	}
	return c
}

// looseKey normalizes a raw section label for alias lookup: lower-case,
// surrounding whitespace stripped, and internal spaces, "." and "-" all
// unified to a single "_" separator with runs collapsed. Matching is
// case/space/punctuation-insensitive but not spelling-tolerant.
func looseKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", ".", "_", "-", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// Resolve maps a free-form section label to its canonical ID. Unknown labels
// are returned unchanged: callers must treat an unresolved label as an
// unknown section and fall back gracefully (e.g. probing "{label}.csv").
func (c *Catalog) Resolve(raw string) ID {
	if id, ok := c.byAlias[looseKey(raw)]; ok {
		return id
	}
	return ID(raw)
}

// Known reports whether the given ID is one of the catalog's canonical
// sections.
func (c *Catalog) Known(id ID) bool {
	_, ok := c.byID[id]
	return ok
}

// Filenames returns the ordered candidate roster filenames for a canonical
// ID, the first being authoritative for saves. For an ID outside the catalog
// it returns the literal "{id}.csv" probe as a last resort.
func (c *Catalog) Filenames(id ID) []string {
	if s, ok := c.byID[id]; ok {
		out := make([]string, len(s.Filenames))
		copy(out, s.Filenames)
		return out
	}
	return []string{string(id) + ".csv"}
}

// SaveFilename returns the filename a newly uploaded roster for the section
// must be saved under.
func (c *Catalog) SaveFilename(id ID) string {
	return c.Filenames(id)[0]
}

// IDs returns the canonical section IDs in sorted order.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, 0, len(c.sections))
	for _, s := range c.sections {
		ids = append(ids, s.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Default returns the deployment catalog for the CSE/CSD sections, including
// every historical alias and roster filename the department has accumulated.
func Default() *Catalog {
	return NewCatalog([]Section{
		{
			ID:        "II-CSE_A",
			Aliases:   []string{"II CSE A", "II-CSE.A"},
			Filenames: []string{"II-CSE_A.csv", "II-CSE.A.csv"},
		},
		{
			ID:        "II-CSE_B",
			Aliases:   []string{"II CSE B", "II-CSE.B"},
			Filenames: []string{"II-CSE_B.csv", "II-CSE.B.csv"},
		},
		{
			ID:        "II-CSE_C",
			Aliases:   []string{"II CSE C", "II-CSE.C"},
			Filenames: []string{"II-CSE_C.csv", "II-CSE.C.csv"},
		},
		{
			ID:        "II-CSD",
			Aliases:   []string{"CSE_DS", "CSE.DS", "II-CSE_DS", "II-CSE.DS", "II CSE DS"},
			Filenames: []string{"II-CSD.csv", "CSE_DS.csv", "CSE.DS.csv", "II-CSE_DS.csv", "II-CSE.DS.csv"},
		},
		{
			ID:        "III-CSE",
			Aliases:   []string{"III CSE"},
			Filenames: []string{"III-CSE.csv"},
		},
		{
			// "lll-CSD" (lower-case L's) shows up in old exports.
			ID:        "III-CSD",
			Aliases:   []string{"III CSD", "lll-CSD"},
			Filenames: []string{"III-CSD.csv", "lll-CSD.csv"},
		},
	})
}
