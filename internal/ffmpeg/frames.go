package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// FrameReader streams downscaled grayscale frames decoded by ffmpeg. It is
// a finite, non-restartable sequence that owns the decode subprocess;
// Close must be called on every path, early termination included.
type FrameReader struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	reader    *bufio.Reader
	width     int
	height    int
	frameSize int
	closed    bool
}

// OpenFrameReader starts a decode session for input, scaling each frame by
// scale and converting to 8-bit grayscale. Width and height of the scaled
// frames are derived from the probe so the raw stream can be chunked.
func (e *Executor) OpenFrameReader(ctx context.Context, input string, scale float64) (*FrameReader, error) {
	info, err := e.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe before frame decode: %w", err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("no video stream in %s", input)
	}

	if scale <= 0 || scale > 1 {
		scale = 1
	}
	w := int(float64(info.Width) * scale)
	h := int(float64(info.Height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	args := []string{
		"-i", input,
		"-vf", fmt.Sprintf("scale=%d:%d,format=gray", w, h),
		"-f", "rawvideo",
		"-v", "error",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start frame decode: %w", err)
	}

	e.logger.Debug().
		Str("input", input).
		Int("width", w).
		Int("height", h).
		Msg("frame decode session started")

	return &FrameReader{
		cmd:       cmd,
		stdout:    stdout,
		reader:    bufio.NewReaderSize(stdout, 1<<16),
		width:     w,
		height:    h,
		frameSize: w * h,
	}, nil
}

// Size returns the scaled frame dimensions.
func (r *FrameReader) Size() (int, int) {
	return r.width, r.height
}

// Next returns the next grayscale frame, row-major, or io.EOF when the
// stream ends. The returned slice is owned by the caller.
func (r *FrameReader) Next() ([]byte, error) {
	if r.closed {
		return nil, io.EOF
	}
	buf := make([]byte, r.frameSize)
	if _, err := io.ReadFull(r.reader, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return buf, nil
}

// Close releases the decode subprocess. Safe to call more than once.
func (r *FrameReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	_ = r.stdout.Close()
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.cmd.Wait()
	return nil
}
