package catalog

import (
	"fmt"
	"strings"

	"meditate/internal/services"
)

// Selection picks the entries a run renders: an inclusive id range or an
// exact display-name match. Exactly one mode is active.
type Selection struct {
	Start int
	End   int
	Name  string
}

// RangeSelection selects ids start through end inclusive.
func RangeSelection(start, end int) Selection {
	return Selection{Start: start, End: end}
}

// NameSelection selects the entry whose display name equals name.
func NameSelection(name string) Selection {
	return Selection{Name: strings.TrimSpace(name)}
}

// ByName reports whether the selection filters by display name.
func (s Selection) ByName() bool {
	return s.Name != ""
}

func (s Selection) String() string {
	if s.ByName() {
		return fmt.Sprintf("name=%s", s.Name)
	}
	return fmt.Sprintf("ids %d-%d", s.Start, s.End)
}

// Validate rejects malformed ranges.
func (s Selection) Validate() error {
	if s.ByName() {
		return nil
	}
	if s.Start <= 0 || s.End <= 0 {
		return services.Wrap(services.ErrValidation, "catalog", "select", fmt.Sprintf("Range bounds must be positive (got %d-%d)", s.Start, s.End), nil)
	}
	if s.Start > s.End {
		return services.Wrap(services.ErrValidation, "catalog", "select", fmt.Sprintf("Range start %d exceeds end %d", s.Start, s.End), nil)
	}
	return nil
}

// Select resolves sel against the catalog. A name that matches nothing
// returns an error marked services.ErrNotFound; ranges outside the catalog
// simply select nothing.
func (c *Catalog) Select(sel Selection) ([]Entry, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.ByName() {
		entry, ok := c.ByName(sel.Name)
		if !ok {
			return nil, services.Wrap(services.ErrNotFound, "catalog", "select", fmt.Sprintf("No catalog entry named %q", sel.Name), nil)
		}
		return []Entry{entry}, nil
	}
	var out []Entry
	for _, entry := range c.entries {
		if entry.ID >= sel.Start && entry.ID <= sel.End {
			out = append(out, entry)
		}
	}
	return out, nil
}
