package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type FFmpegTranscoder struct {
	bin string
}

// DetectFFmpeg resolves the ffmpeg binary once. ok is false when it is not
// installed, in which case uploads go to transcription unconverted.
func DetectFFmpeg(bin string) (t *FFmpegTranscoder, ok bool) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, false
	}
	return &FFmpegTranscoder{bin: path}, true
}

// Convert writes <input-without-ext>.converted.<format> next to the input.
// A partial output is removed on failure.
func (t *FFmpegTranscoder) Convert(ctx context.Context, inputPath, format string) (string, error) {
	out := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".converted." + format

	cmd := exec.CommandContext(ctx, t.bin,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-f", format,
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(out)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
