package speech

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake ffmpeg: copies the -i argument to the last argument
const copyScript = `#!/bin/sh
in=""; out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift 2;;
    *) out="$1"; shift;;
  esac
done
cp "$in" "$out"
`

const failScript = `#!/bin/sh
for a in "$@"; do out="$a"; done
echo partial > "$out"
echo "Invalid data found when processing input" >&2
exit 1
`

func fakeFFmpeg(t *testing.T, script string) *FFmpegTranscoder {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a unix shell")
	}
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	tr, ok := DetectFFmpeg(bin)
	require.True(t, ok)
	return tr
}

func TestDetectFFmpegMissing(t *testing.T) {
	tr, ok := DetectFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	assert.False(t, ok)
	assert.Nil(t, tr)
}

func TestConvertWritesNextToInput(t *testing.T) {
	tr := fakeFFmpeg(t, copyScript)
	dir := t.TempDir()
	in := filepath.Join(dir, "1700000000.webm")
	require.NoError(t, os.WriteFile(in, []byte("webm"), 0o644))

	out, err := tr.Convert(context.Background(), in, "mp3")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "1700000000.converted.mp3"), out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "webm", string(b))
}

func TestConvertFailureRemovesPartialOutput(t *testing.T) {
	tr := fakeFFmpeg(t, failScript)
	dir := t.TempDir()
	in := filepath.Join(dir, "a.webm")
	require.NoError(t, os.WriteFile(in, []byte("webm"), 0o644))

	_, err := tr.Convert(context.Background(), in, "mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")

	_, statErr := os.Stat(filepath.Join(dir, "a.converted.mp3"))
	assert.True(t, os.IsNotExist(statErr))
}
