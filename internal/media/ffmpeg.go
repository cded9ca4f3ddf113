// Package media probes video files using the ffmpeg toolchain.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds each external probe. A file that takes longer than
// this to inspect is treated as undecodable.
const probeTimeout = 30 * time.Second

// FFmpegProber probes duration with ffprobe and samples a representative
// frame with ffmpeg. Both binaries must be on PATH (or set explicitly).
type FFmpegProber struct {
	FFprobePath string
	FFmpegPath  string
}

// NewFFmpegProber returns a prober using the binaries from PATH.
func NewFFmpegProber() *FFmpegProber {
	return &FFmpegProber{FFprobePath: "ffprobe", FFmpegPath: "ffmpeg"}
}

// ProbeDuration returns the container duration in seconds.
func (p *FFmpegProber) ProbeDuration(path string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path).Output()
	if err != nil {
		return 0, fmt.Errorf("media: ffprobe failed for %s: %w", path, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("media: unparsable duration for %s: %w", path, err)
	}
	return seconds, nil
}

// CaptureThumbnail extracts a single JPEG frame from one second in, falling
// back to the first frame for clips shorter than that.
func (p *FFmpegProber) CaptureThumbnail(path string) ([]byte, error) {
	frame, err := p.captureAt(path, "1")
	if err != nil || len(frame) == 0 {
		frame, err = p.captureAt(path, "0")
	}
	if err != nil {
		return nil, fmt.Errorf("media: thumbnail capture failed for %s: %w", path, err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("media: no frame decoded from %s", path)
	}
	return frame, nil
}

func (p *FFmpegProber) captureAt(path, offset string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, p.FFmpegPath,
		"-v", "error",
		"-ss", offset,
		"-i", path,
		"-frames:v", "1",
		"-vf", "scale=320:-1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1")
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
