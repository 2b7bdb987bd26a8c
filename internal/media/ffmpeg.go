// Package media shrinks audio before it is sent for transcription.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Compressor re-encodes audio to mono 16 kHz low-bitrate Opus, which keeps
// hour-long recordings under the speech-to-text upload limit.
type Compressor struct {
	FFmpeg  string // binary path, "ffmpeg" when empty
	Bitrate string // "32k" when empty
}

// Args returns the ffmpeg arguments that compress in to out.
func (c Compressor) Args(in, out string) []string {
	bitrate := c.Bitrate
	if bitrate == "" {
		bitrate = "32k"
	}
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", in,
		"-vn", "-ac", "1", "-ar", "16000",
		"-c:a", "libopus", "-b:a", bitrate,
		out,
	}
}

// OutputPath is the compressed file's location next to in.
func OutputPath(in string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(filepath.Dir(in), base+"_16k.ogg")
}

// Compress writes a compressed copy of in and returns its path.
func (c Compressor) Compress(ctx context.Context, in string) (string, error) {
	bin := c.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	out := OutputPath(in)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, c.Args(in, out)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
