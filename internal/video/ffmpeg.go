package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpegAvailable reports whether the ffmpeg binary is on PATH. Video
// synthesis is skipped entirely when it is not.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Mux combines the rendered frame sequence and the mixed audio into
// an H.264 MP4 at outPath.
func Mux(ctx context.Context, framesDir, audioPath, outPath string) error {
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(FrameRate),
		"-i", filepath.Join(framesDir, "frame_%04d.png"),
		"-i", audioPath,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(string(out), 500))
	}
	return nil
}

// tail returns at most n trailing bytes of s, for error messages.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
