package compress

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aslanbek/fieldlog/internal/config"
	"github.com/aslanbek/fieldlog/internal/media"
)

// runner executes an external binary. It exists as a seam so tests can
// substitute the ffmpeg invocation.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Compressor downscales and requantizes media through ffmpeg. Kinds without a
// configured policy pass through unchanged.
type Compressor struct {
	binary string
	video  config.CompressionPolicy
	image  config.CompressionPolicy
	run    runner
}

// New constructs a Compressor from media configuration.
func New(cfg config.MediaConfig) *Compressor {
	binary := strings.TrimSpace(cfg.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Compressor{
		binary: binary,
		video:  cfg.Video,
		image:  cfg.Image,
		run:    execRunner,
	}
}

// Compress transforms the raw file according to the policy for its MIME
// family. The returned size never exceeds the policy ceiling; a violation is
// reported as a CeilingError.
func (c *Compressor) Compress(ctx context.Context, file media.RawFile) (media.ProcessedFile, error) {
	if len(file.Payload) == 0 {
		return media.ProcessedFile{}, ErrEmptyInput
	}

	switch file.Kind() {
	case media.KindVideo:
		return c.transcode(ctx, file, c.video, ".mp4", "video/mp4", videoArgs(c.video))
	case media.KindImage:
		return c.transcode(ctx, file, c.image, ".jpg", "image/jpeg", imageArgs(c.image))
	default:
		// Audio and unclassified payloads pass through unchanged.
		return media.ProcessedFile{
			Payload:     file.Payload,
			ContentType: file.ContentType,
			Size:        int64(len(file.Payload)),
		}, nil
	}
}

func (c *Compressor) transcode(ctx context.Context, file media.RawFile, policy config.CompressionPolicy, outExt, outContentType string, filterArgs []string) (media.ProcessedFile, error) {
	in, err := os.CreateTemp("", "fieldlog-in-*")
	if err != nil {
		return media.ProcessedFile{}, fmt.Errorf("create temp input: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(file.Payload); err != nil {
		in.Close()
		return media.ProcessedFile{}, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return media.ProcessedFile{}, fmt.Errorf("close temp input: %w", err)
	}

	out, err := os.CreateTemp("", "fieldlog-out-*"+outExt)
	if err != nil {
		return media.ProcessedFile{}, fmt.Errorf("create temp output: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := append([]string{"-y", "-hide_banner", "-loglevel", "error", "-i", in.Name()}, filterArgs...)
	args = append(args, outPath)

	if output, err := c.run(ctx, c.binary, args...); err != nil {
		return media.ProcessedFile{}, fmt.Errorf("ffmpeg transcode: %w: %s", err, strings.TrimSpace(string(output)))
	}

	payload, err := os.ReadFile(outPath)
	if err != nil {
		return media.ProcessedFile{}, fmt.Errorf("read transcode output: %w", err)
	}
	if len(payload) == 0 {
		return media.ProcessedFile{}, fmt.Errorf("ffmpeg transcode produced no output")
	}

	size := int64(len(payload))
	if ceiling := policy.CeilingBytes(); size > ceiling {
		return media.ProcessedFile{}, &CeilingError{Attempted: size, Ceiling: ceiling}
	}

	return media.ProcessedFile{
		Payload:     payload,
		ContentType: outContentType,
		Size:        size,
	}, nil
}

func videoArgs(policy config.CompressionPolicy) []string {
	return []string{
		"-vf", scaleFilter(policy),
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", videoCRF(policy.Quality)),
		"-preset", "medium",
		"-movflags", "+faststart",
		"-c:a", "aac",
	}
}

func imageArgs(policy config.CompressionPolicy) []string {
	return []string{
		"-vf", scaleFilter(policy),
		"-frames:v", "1",
		"-q:v", fmt.Sprintf("%d", imageQScale(policy.Quality)),
	}
}

// scaleFilter shrinks oversized inputs while preserving aspect ratio; inputs
// already within bounds are left at their native resolution.
func scaleFilter(policy config.CompressionPolicy) string {
	return fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", policy.MaxWidth, policy.MaxHeight)
}

// videoCRF maps quality 0..1 onto the x264 CRF range 36..18.
func videoCRF(quality float64) int {
	return 36 - int(clamp01(quality)*18)
}

// imageQScale maps quality 0..1 onto mjpeg qscale 31..2.
func imageQScale(quality float64) int {
	return 31 - int(clamp01(quality)*29)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
