package synth_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"meditate/internal/config"
	"meditate/internal/logging"
	"meditate/internal/script"
	"meditate/internal/services"
	"meditate/internal/synth"
)

type call struct {
	name string
	args []string
}

// fakeTools writes a small payload to whatever output path the command names.
type fakeTools struct {
	calls        []call
	failSpeech   bool
	failSilence  int
	emptySpeech  bool
	silenceCalls int
}

func (f *fakeTools) run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	switch name {
	case "edge-tts":
		if f.failSpeech {
			return errors.New("voice unavailable")
		}
		idx := slices.Index(args, "--write-media")
		payload := []byte("speech")
		if f.emptySpeech {
			payload = nil
		}
		return os.WriteFile(args[idx+1], payload, 0o644)
	case "ffmpeg":
		f.silenceCalls++
		if f.silenceCalls <= f.failSilence {
			return errors.New("exit status 1")
		}
		return os.WriteFile(args[len(args)-1], []byte("silence"), 0o644)
	}
	return errors.New("unexpected command " + name)
}

func newSynth(t *testing.T, tools *fakeTools) *synth.Synthesizer {
	t.Helper()
	cfg := config.Default()
	s := synth.New(&cfg, logging.NewNop())
	s.WithCommandRunner(tools.run)
	return s
}

func TestSynthesizeSpeechAndPause(t *testing.T) {
	tools := &fakeTools{}
	s := newSynth(t, tools)
	dir := t.TempDir()

	clips, err := s.Synthesize(context.Background(), script.Segment{Text: "歡迎", Pause: 2}, 4, dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected speech and silence clips, got %d", len(clips))
	}
	if clips[0].Role != synth.RoleSpeech || clips[0].Index != 4 || filepath.Base(clips[0].Path) != "seg_004_speech.mp3" {
		t.Fatalf("unexpected speech clip %+v", clips[0])
	}
	if clips[1].Role != synth.RoleSilence || clips[1].Index != 5 || filepath.Base(clips[1].Path) != "seg_005_silence.mp3" {
		t.Fatalf("unexpected silence clip %+v", clips[1])
	}
	if math.Abs(clips[0].Estimate-0.6) > 1e-9 || clips[1].Estimate != 2 {
		t.Fatalf("unexpected estimates %v %v", clips[0].Estimate, clips[1].Estimate)
	}

	tts := tools.calls[0]
	for _, want := range []string{"--voice", "zh-TW-HsiaoChenNeural", "--rate=-15%", "--pitch=-5Hz", "歡迎"} {
		if !slices.Contains(tts.args, want) {
			t.Fatalf("tts args %v missing %q", tts.args, want)
		}
	}
	silence := strings.Join(tools.calls[1].args, " ")
	for _, want := range []string{"-f lavfi", "anullsrc=r=24000:cl=mono", "-t 2 ", "-c:a libmp3lame", "-q:a 2"} {
		if !strings.Contains(silence, want) {
			t.Fatalf("silence args %q missing %q", silence, want)
		}
	}
}

func TestSynthesizePurePause(t *testing.T) {
	tools := &fakeTools{}
	s := newSynth(t, tools)

	clips, err := s.Synthesize(context.Background(), script.Segment{Pause: 20}, 0, t.TempDir())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(clips) != 1 || clips[0].Role != synth.RoleSilence || clips[0].Estimate != 20 {
		t.Fatalf("unexpected clips %+v", clips)
	}
	if len(tools.calls) != 1 || tools.calls[0].name != "ffmpeg" {
		t.Fatalf("expected only ffmpeg, got %+v", tools.calls)
	}
}

func TestSpeechFailureIsSynthesisError(t *testing.T) {
	tools := &fakeTools{failSpeech: true}
	s := newSynth(t, tools)
	_, err := s.Synthesize(context.Background(), script.Segment{Text: "歡迎", Pause: 1}, 0, t.TempDir())
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	if len(tools.calls) != 1 {
		t.Fatalf("expected silence to be skipped after speech failure, got %d calls", len(tools.calls))
	}
}

func TestSpeechWithoutOutputIsSynthesisError(t *testing.T) {
	tools := &fakeTools{emptySpeech: true}
	s := newSynth(t, tools)
	_, err := s.Synthesize(context.Background(), script.Segment{Text: "歡迎"}, 0, t.TempDir())
	if !errors.Is(err, services.ErrSynthesis) || !strings.Contains(err.Error(), "no audio") {
		t.Fatalf("expected empty-output synthesis error, got %v", err)
	}
}

func TestSilenceRetriesOnce(t *testing.T) {
	tools := &fakeTools{failSilence: 1}
	s := newSynth(t, tools)
	clips, err := s.Synthesize(context.Background(), script.Segment{Pause: 3}, 0, t.TempDir())
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(clips) != 1 || tools.silenceCalls != 2 {
		t.Fatalf("expected one clip after two attempts, got %d clips / %d calls", len(clips), tools.silenceCalls)
	}
}

func TestSilenceGivesUpAfterRetry(t *testing.T) {
	tools := &fakeTools{failSilence: 5}
	s := newSynth(t, tools)
	_, err := s.Synthesize(context.Background(), script.Segment{Pause: 3}, 0, t.TempDir())
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	if tools.silenceCalls != 2 {
		t.Fatalf("expected exactly two attempts, got %d", tools.silenceCalls)
	}
}

func TestSpeechTimeoutIsMarked(t *testing.T) {
	cfg := config.Default()
	cfg.TTS.TimeoutSeconds = 1
	s := synth.New(&cfg, logging.NewNop())
	s.WithCommandRunner(func(ctx context.Context, _ string, _ ...string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	_, err := s.Synthesize(context.Background(), script.Segment{Text: "慢"}, 0, t.TempDir())
	if !errors.Is(err, services.ErrSynthesis) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected synthesis timeout, got %v", err)
	}
}

func TestSessionAccumulatesInOrder(t *testing.T) {
	tools := &fakeTools{}
	s := newSynth(t, tools)
	session := s.NewSession(t.TempDir())
	sc := script.Script{EntryID: 1, Segments: []script.Segment{
		{Text: "一二", Pause: 2},
		{Pause: 20},
		{Text: "三", Pause: 1},
	}}

	var progress []int
	if err := session.RenderAll(context.Background(), sc, func(done, _ int) { progress = append(progress, done) }); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	clips := session.Clips()
	if len(clips) != 5 {
		t.Fatalf("expected 5 clips, got %d", len(clips))
	}
	for i, clip := range clips {
		if clip.Index != i {
			t.Fatalf("clip %d has index %d", i, clip.Index)
		}
	}
	wantSegments := []int{0, 0, 1, 2, 2}
	for i, clip := range clips {
		if clip.Segment != wantSegments[i] {
			t.Fatalf("clip %d attributed to segment %d, want %d", i, clip.Segment, wantSegments[i])
		}
	}
	want := sc.EstimatedDuration(0.3)
	if math.Abs(session.Estimate()-want) > 1e-9 {
		t.Fatalf("session estimate %v, want %v", session.Estimate(), want)
	}
	if !slices.Equal(progress, []int{1, 2, 3}) {
		t.Fatalf("unexpected progress %v", progress)
	}
}

func TestSessionStopsAtFirstFailure(t *testing.T) {
	tools := &fakeTools{failSilence: 5}
	s := newSynth(t, tools)
	session := s.NewSession(t.TempDir())
	sc := script.Script{Segments: []script.Segment{{Text: "一"}, {Pause: 3}, {Text: "二"}}}
	if err := session.RenderAll(context.Background(), sc, nil); !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	if len(session.Clips()) != 1 {
		t.Fatalf("expected only the first clip, got %d", len(session.Clips()))
	}
}
