package logging

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSubject builds the component/entry/stage prefix used in console output,
// for example "batch · Entry #07 (fade)".
func FormatSubject(component, entryID, stage string) string {
	component = strings.TrimSpace(component)
	entryID = strings.TrimSpace(entryID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 2)
	if component != "" {
		parts = append(parts, component)
	}
	if n, err := strconv.Atoi(entryID); err == nil {
		entryID = fmt.Sprintf("%02d", n)
	}
	switch {
	case entryID != "" && stage != "":
		parts = append(parts, "Entry #"+entryID+" ("+stage+")")
	case entryID != "":
		parts = append(parts, "Entry #"+entryID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
