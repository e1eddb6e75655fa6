package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"meditate/internal/textutil"
)

// Season is the closed set of season tags an entry may carry.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// Seasons lists every valid season in calendar order.
var Seasons = []Season{Spring, Summer, Autumn, Winter}

var seasonAliases = map[string]Season{
	"spring": Spring,
	"summer": Summer,
	"autumn": Autumn,
	"fall":   Autumn,
	"winter": Winter,
	"春":      Spring,
	"夏":      Summer,
	"秋":      Autumn,
	"冬":      Winter,
}

// ParseSeason accepts English names and the single-character Chinese tags.
func ParseSeason(value string) (Season, error) {
	season, ok := seasonAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("unknown season %q", value)
	}
	return season, nil
}

// Valid reports whether s belongs to the closed season set.
func (s Season) Valid() bool {
	switch s {
	case Spring, Summer, Autumn, Winter:
		return true
	}
	return false
}

func (s Season) String() string { return string(s) }

// UnmarshalYAML normalizes season aliases while decoding. Unrecognized tags
// are kept as written so the entry fails when its script is built rather
// than taking the whole catalog down.
func (s *Season) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseSeason(raw)
	if err != nil {
		*s = Season(strings.ToLower(strings.TrimSpace(raw)))
		return nil
	}
	*s = parsed
	return nil
}

// Entry describes one herb and the descriptive text its script is built from.
type Entry struct {
	ID        int    `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Slug      string `yaml:"slug" json:"slug"`
	Effect    string `yaml:"effect" json:"effect"`
	Season    Season `yaml:"season" json:"season"`
	Visual    string `yaml:"visual" json:"visual"`
	Sensation string `yaml:"sensation" json:"sensation"`
	Aroma     string `yaml:"aroma" json:"aroma"`
}

// FileName returns the finished-track name for this entry.
func (e Entry) FileName(ext string) string {
	return textutil.TrackFileName(e.ID, e.Slug, ext)
}

// Label renders "07 薄荷 (bohe)" for tables and log lines.
func (e Entry) Label() string {
	return fmt.Sprintf("%02d %s (%s)", e.ID, e.Name, e.Slug)
}

func (e *Entry) normalize() {
	e.Name = strings.TrimSpace(e.Name)
	e.Effect = strings.TrimSpace(e.Effect)
	e.Visual = strings.TrimSpace(e.Visual)
	e.Sensation = strings.TrimSpace(e.Sensation)
	e.Aroma = strings.TrimSpace(e.Aroma)
	e.Slug = textutil.Slugify(e.Slug)
}

func (e Entry) validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("entry %q: id must be positive", e.Name)
	}
	if e.Name == "" {
		return fmt.Errorf("entry %d: name is required", e.ID)
	}
	if !textutil.IsSlug(e.Slug) {
		return fmt.Errorf("entry %d: slug is required", e.ID)
	}
	return nil
}
