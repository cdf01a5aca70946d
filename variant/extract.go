package variant

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FrameExtractor writes a single still frame of a video to outPath.
// The default implementation shells out to ffmpeg; the embedding application
// can substitute its own.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, outPath string, width int, seek time.Duration) error
}

const extractTimeout = 2 * time.Minute

func NewFFmpegExtractor() FrameExtractor {
	return ffmpegExtractor{binPath: "ffmpeg"}
}

type ffmpegExtractor struct {
	binPath string
}

func (f ffmpegExtractor) ExtractFrame(ctx context.Context, videoPath string, outPath string, width int, seek time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-ss", strconv.FormatFloat(seek.Seconds(), 'f', -1, 64),
		"-i", videoPath,
		"-frames:v", "1",
	}
	if width > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-1", width))
	}
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, f.binPath, args...)
	stderr := bytes.Buffer{}
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
