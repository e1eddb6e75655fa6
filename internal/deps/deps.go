package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"meditate/internal/config"
)

// Requirement describes an external binary dependency.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the binaries a render run invokes, resolved from config.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "edge-tts",
			Command:     cfg.TTS.Command,
			Description: "Required for speech synthesis",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Required for silence, concatenation, and fades",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Measures concatenated track duration",
			Optional:    !cfg.Fade.ProbeDuration,
		},
	}
}

// CheckBinaries evaluates the availability of each requirement.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     req.Command,
			Description: req.Description,
			Optional:    req.Optional,
		}
		command := strings.TrimSpace(req.Command)
		if command == "" {
			status.Detail = "no command configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
		} else {
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
