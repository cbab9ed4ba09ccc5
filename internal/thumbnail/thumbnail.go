package thumbnail

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aslanbek/fieldlog/internal/media"
)

const (
	defaultWidth = 320
	frameOffset  = "00:00:01"
)

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Extractor derives a single still-frame JPEG from a video file. A failed
// extraction degrades the attachment (no preview) but never fails it.
type Extractor struct {
	binary string
	width  int
	run    runner
}

// New constructs an Extractor around the given ffmpeg binary.
func New(binary string) *Extractor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Extractor{binary: binary, width: defaultWidth, run: execRunner}
}

// Derive extracts a thumbnail image from the processed video payload.
func (e *Extractor) Derive(ctx context.Context, video media.ProcessedFile) (media.ProcessedFile, error) {
	if len(video.Payload) == 0 {
		return media.ProcessedFile{}, fmt.Errorf("empty video payload")
	}

	in, err := os.CreateTemp("", "fieldlog-thumb-in-*")
	if err != nil {
		return media.ProcessedFile{}, fmt.Errorf("create temp input: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(video.Payload); err != nil {
		in.Close()
		return media.ProcessedFile{}, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return media.ProcessedFile{}, fmt.Errorf("close temp input: %w", err)
	}

	out, err := os.CreateTemp("", "fieldlog-thumb-out-*.jpg")
	if err != nil {
		return media.ProcessedFile{}, fmt.Errorf("create temp output: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", frameOffset,
		"-i", in.Name(),
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", e.width),
		"-q:v", "4",
		outPath,
	}

	if output, err := e.run(ctx, e.binary, args...); err != nil {
		return media.ProcessedFile{}, fmt.Errorf("ffmpeg thumbnail: %w: %s", err, strings.TrimSpace(string(output)))
	}

	payload, err := os.ReadFile(outPath)
	if err != nil {
		return media.ProcessedFile{}, fmt.Errorf("read thumbnail output: %w", err)
	}
	if len(payload) == 0 {
		return media.ProcessedFile{}, fmt.Errorf("ffmpeg thumbnail produced no output")
	}

	return media.ProcessedFile{
		Payload:     payload,
		ContentType: "image/jpeg",
		Size:        int64(len(payload)),
	}, nil
}
