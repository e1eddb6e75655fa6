package script

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"meditate/internal/catalog"
	"meditate/internal/services"
)

// Segment is one spoken line followed by Pause seconds of silence, or a pure
// pause when Text is empty.
type Segment struct {
	Text  string  `json:"text,omitempty"`
	Pause float64 `json:"pause"`
}

// HasSpeech reports whether the segment needs speech synthesis.
func (s Segment) HasSpeech() bool { return s.Text != "" }

// IsPurePause reports whether the segment is silence only.
func (s Segment) IsPurePause() bool { return s.Text == "" && s.Pause > 0 }

// Script is the ordered narration for one entry.
type Script struct {
	EntryID  int       `json:"entry_id"`
	Segments []Segment `json:"segments"`
}

// SpeechCharacters counts the characters that will be spoken.
func (s Script) SpeechCharacters() int {
	total := 0
	for _, seg := range s.Segments {
		total += utf8.RuneCountInString(seg.Text)
	}
	return total
}

// PauseSeconds sums every pause in the script.
func (s Script) PauseSeconds() float64 {
	total := 0.0
	for _, seg := range s.Segments {
		total += seg.Pause
	}
	return total
}

// EstimatedDuration returns the heuristic track length: perChar seconds for
// every spoken character plus the exact pauses.
func (s Script) EstimatedDuration(perChar float64) float64 {
	return float64(s.SpeechCharacters())*perChar + s.PauseSeconds()
}

// Build produces the script for entry.
func Build(entry catalog.Entry) (Script, error) {
	greeting, ok := seasonGreetings[entry.Season]
	if !ok {
		return Script{}, services.Wrap(services.ErrConfiguration, "script", "build",
			fmt.Sprintf("No greeting for season %q", entry.Season), nil)
	}
	closing, ok := seasonClosings[entry.Season]
	if !ok {
		return Script{}, services.Wrap(services.ErrConfiguration, "script", "build",
			fmt.Sprintf("No closing for season %q", entry.Season), nil)
	}
	if missing := missingFields(entry); len(missing) > 0 {
		return Script{}, services.Wrap(services.ErrConfiguration, "script", "build",
			"Missing template data: "+strings.Join(missing, ", "), nil)
	}

	fill := strings.NewReplacer(
		"{name}", entry.Name,
		"{greeting}", greeting,
		"{closing}", closing,
		"{visual}", entry.Visual,
		"{aroma}", entry.Aroma,
		"{effect}", entry.Effect,
		"{sensation}", entry.Sensation,
	)

	out := Script{EntryID: entry.ID, Segments: make([]Segment, 0, len(template))}
	for _, line := range template {
		out.Segments = appendSegment(out.Segments, Segment{
			Text:  strings.TrimSpace(fill.Replace(line.text)),
			Pause: line.pause,
		})
	}
	return out, nil
}

// appendSegment drops no-op segments and folds consecutive pure pauses into
// one.
func appendSegment(segments []Segment, seg Segment) []Segment {
	if seg.Pause < 0 {
		seg.Pause = 0
	}
	if seg.Text == "" && seg.Pause == 0 {
		return segments
	}
	if seg.IsPurePause() && len(segments) > 0 && segments[len(segments)-1].IsPurePause() {
		segments[len(segments)-1].Pause += seg.Pause
		return segments
	}
	return append(segments, seg)
}

func missingFields(entry catalog.Entry) []string {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", entry.Name},
		{"visual", entry.Visual},
		{"aroma", entry.Aroma},
		{"effect", entry.Effect},
		{"sensation", entry.Sensation},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
