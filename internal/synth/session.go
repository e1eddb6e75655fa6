package synth

import (
	"context"

	"meditate/internal/logging"
	"meditate/internal/script"
)

// Session accumulates the clips for one entry in render order.
type Session struct {
	synth    *Synthesizer
	workDir  string
	clips    []Clip
	estimate float64
}

// NewSession starts an empty clip list rooted at workDir.
func (s *Synthesizer) NewSession(workDir string) *Session {
	return &Session{synth: s, workDir: workDir}
}

// Add renders the segment at position segIndex and appends its clips.
// Nothing is appended when rendering fails.
func (ss *Session) Add(ctx context.Context, segIndex int, seg script.Segment) error {
	clips, err := ss.synth.Synthesize(ctx, seg, len(ss.clips), ss.workDir)
	if err != nil {
		return err
	}
	for i := range clips {
		clips[i].Segment = segIndex
		ss.estimate += clips[i].Estimate
	}
	ss.clips = append(ss.clips, clips...)
	return nil
}

// RenderAll adds every segment of sc in order, calling progress after each
// one when it is non-nil. It stops at the first failure.
func (ss *Session) RenderAll(ctx context.Context, sc script.Script, progress func(done, total int)) error {
	total := len(sc.Segments)
	for i, seg := range sc.Segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ss.Add(ctx, i, seg); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	logging.WithContext(ctx, ss.synth.logger).Debug("segments rendered",
		logging.Int("segments", total),
		logging.Int("clips", len(ss.clips)),
		logging.Float64("estimate_seconds", ss.estimate),
	)
	return nil
}

// Clips returns a copy of the ordered clip list.
func (ss *Session) Clips() []Clip {
	out := make([]Clip, len(ss.clips))
	copy(out, ss.clips)
	return out
}

// Estimate is the running duration total across all clips.
func (ss *Session) Estimate() float64 {
	return ss.estimate
}
