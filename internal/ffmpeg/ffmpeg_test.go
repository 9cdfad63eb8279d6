package ffmpeg

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec, err := New(zerolog.Nop(), 4)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if exec.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if exec.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
}

func TestStreamOutputParsesProgressBlocks(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}

	output := strings.Join([]string{
		"frame=120",
		"fps=29.97",
		"time=00:00:04.00",
		"speed=1.5x",
		"progress=continue",
		"frame=240",
		"fps=30.00",
		"time=00:00:08.00",
		"speed=1.6x",
		"progress=end",
	}, "\n")

	var updates []Progress
	e.streamOutput(strings.NewReader(output), func(p *Progress) {
		updates = append(updates, *p)
	}, nil)

	if len(updates) != 2 {
		t.Fatalf("expected 2 progress updates, got %d", len(updates))
	}
	if updates[0].Frame != 120 || updates[1].Frame != 240 {
		t.Errorf("frames = %d, %d", updates[0].Frame, updates[1].Frame)
	}
	if updates[1].Time != "00:00:08.00" {
		t.Errorf("time = %q", updates[1].Time)
	}
	if updates[1].Speed != "1.6x" {
		t.Errorf("speed = %q", updates[1].Speed)
	}
}

func TestStreamOutputSkipsEmptyBlocks(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}

	// A progress terminator with no frame data must not fire the handler.
	var updates int
	e.streamOutput(strings.NewReader("progress=end\n"), func(p *Progress) {
		updates++
	}, nil)
	if updates != 0 {
		t.Errorf("expected no updates for empty block, got %d", updates)
	}
}

func TestStreamOutputForwardsLogLines(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}

	var lines []string
	e.streamOutput(strings.NewReader("Input #0, mov\nframe=1\nprogress=end\n"), nil, func(line string) {
		lines = append(lines, line)
	})
	if len(lines) != 3 {
		t.Errorf("expected all 3 lines forwarded, got %d", len(lines))
	}
}

func TestRunRejectsEmptyArgs(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec, err := New(zerolog.Nop(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := exec.Run(context.Background(), RunOptions{}); err == nil {
		t.Error("expected error for empty args")
	}
}

func TestDefaultAnalysisFormat(t *testing.T) {
	f := DefaultAnalysisFormat()
	if f.Codec != "pcm_s16le" || f.SampleRate != 16000 || f.Channels != 1 {
		t.Errorf("unexpected analysis format: %+v", f)
	}
}
