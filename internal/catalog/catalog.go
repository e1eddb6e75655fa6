package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"meditate/internal/services"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var loadEmbedded = sync.OnceValues(func() (*Catalog, error) {
	return Parse(embeddedCatalog)
})

// Catalog is an immutable, id-ordered set of entries.
type Catalog struct {
	entries []Entry
	byID    map[int]int
	byName  map[string]int
	bySlug  map[string]int
}

type document struct {
	Entries []Entry `yaml:"entries"`
}

// Default returns the embedded catalog. It is parsed on first use and shared
// afterwards.
func Default() (*Catalog, error) {
	return loadEmbedded()
}

// Load reads a catalog document from path. An empty path selects the
// embedded catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "read", "Failed to read catalog document", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "parse", "Invalid catalog document", err)
	}
	if len(doc.Entries) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "parse", "Catalog has no entries", nil)
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(doc.Entries)),
		byID:    make(map[int]int, len(doc.Entries)),
		byName:  make(map[string]int, len(doc.Entries)),
		bySlug:  make(map[string]int, len(doc.Entries)),
	}
	for _, entry := range doc.Entries {
		entry.normalize()
		if err := entry.validate(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", "validate", "Invalid catalog entry", err)
		}
		if _, dup := c.byID[entry.ID]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", "validate", fmt.Sprintf("Duplicate id %d", entry.ID), nil)
		}
		if _, dup := c.bySlug[entry.Slug]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", "validate", fmt.Sprintf("Duplicate slug %q", entry.Slug), nil)
		}
		c.entries = append(c.entries, entry)
		c.byID[entry.ID] = -1
		c.bySlug[entry.Slug] = -1
	}

	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].ID < c.entries[j].ID })
	for idx, entry := range c.entries {
		c.byID[entry.ID] = idx
		c.bySlug[entry.Slug] = idx
		if _, dup := c.byName[entry.Name]; !dup {
			c.byName[entry.Name] = idx
		}
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of every entry in id order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Bounds returns the lowest and highest entry ids.
func (c *Catalog) Bounds() (int, int) {
	if len(c.entries) == 0 {
		return 0, 0
	}
	return c.entries[0].ID, c.entries[len(c.entries)-1].ID
}

// ByID looks up an entry by its id.
func (c *Catalog) ByID(id int) (Entry, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// ByName looks up an entry by exact display name.
func (c *Catalog) ByName(name string) (Entry, bool) {
	idx, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Lookup resolves a CLI argument that may be an id, a display name, or a slug.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if id, err := strconv.Atoi(key); err == nil {
		return c.ByID(id)
	}
	if entry, ok := c.ByName(key); ok {
		return entry, true
	}
	idx, ok := c.bySlug[strings.ToLower(key)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// BySeason returns the entries tagged with season, in id order.
func (c *Catalog) BySeason(season Season) []Entry {
	var out []Entry
	for _, entry := range c.entries {
		if entry.Season == season {
			out = append(out, entry)
		}
	}
	return out
}
