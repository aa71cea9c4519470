package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Vovarama1992/lingua_tutor/internal/apperr"
	"github.com/Vovarama1992/lingua_tutor/internal/error_notificator"
	"github.com/Vovarama1992/lingua_tutor/internal/metrics"
	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

type fakeTranscoder struct {
	err   error
	calls int
}

func (f *fakeTranscoder) Convert(_ context.Context, in, format string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return "", err
	}
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".converted." + format
	return out, os.WriteFile(out, append([]byte("mp3:"), data...), 0o644)
}

type fakeTranscriber struct {
	text     string
	err      error
	calls    int
	gotPath  string
	gotAudio []byte
	gotLang  string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path, lang string) (string, error) {
	f.calls++
	f.gotPath, f.gotLang = path, lang
	f.gotAudio, _ = os.ReadFile(path)
	return f.text, f.err
}

type fakeDialogue struct {
	reply    string
	err      error
	block    bool
	gotTurns []tutor.Turn
}

func (f *fakeDialogue) Reply(ctx context.Context, turns []tutor.Turn) (string, error) {
	f.gotTurns = turns
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type fakeSynth struct {
	audio    []byte
	err      error
	gotVoice string
	gotSpeed float64
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, voice string, speed float64) ([]byte, error) {
	f.gotVoice, f.gotSpeed = voice, speed
	return f.audio, f.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	sources []string
}

func (f *fakeNotifier) Notify(_ context.Context, source string, _ error, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source)
	return nil
}

type fakeArchiver struct {
	saved chan string
}

func (f *fakeArchiver) SaveRecording(_ context.Context, sessionID string, _ []byte, filename, _ string) (string, error) {
	f.saved <- sessionID + "/" + filename
	return "https://s3/" + filename, nil
}

type fixture struct {
	svc         *Service
	store       *tutor.Store
	uploadDir   string
	transcoder  *fakeTranscoder
	transcriber *fakeTranscriber
	dialogue    *fakeDialogue
	synth       *fakeSynth
	notifier    *fakeNotifier
	metrics     *metrics.Metrics
}

func newFixture(t *testing.T, withTranscoder bool) *fixture {
	t.Helper()
	f := &fixture{
		store:       tutor.NewStore(0, zaptest.NewLogger(t)),
		uploadDir:   filepath.Join(t.TempDir(), "uploads"),
		transcoder:  &fakeTranscoder{},
		transcriber: &fakeTranscriber{text: "Bonjour"},
		dialogue:    &fakeDialogue{reply: "Bonjour ! Comment ça va ?"},
		synth:       &fakeSynth{audio: []byte("ID3-mp3-bytes")},
		notifier:    &fakeNotifier{},
		metrics:     metrics.NewMetrics(prometheus.NewRegistry()),
	}
	f.build(t, withTranscoder, 0)
	return f
}

func (f *fixture) build(t *testing.T, withTranscoder bool, timeout time.Duration) {
	t.Helper()
	deps := Deps{
		Sessions:    f.store,
		Transcriber: f.transcriber,
		Dialogue:    f.dialogue,
		Synthesizer: f.synth,
		Notifier:    f.notifier,
		Metrics:     f.metrics,
		Logger:      zaptest.NewLogger(t),
	}
	if withTranscoder {
		deps.Transcoder = f.transcoder
	}
	f.svc = NewService(Config{
		UploadDir:    f.uploadDir,
		Language:     "fr",
		Voice:        "alloy",
		Speed:        0.85,
		StageTimeout: timeout,
	}, deps)
}

func (f *fixture) assertNoArtifacts(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files left in upload dir")
}

func webm() Request {
	return Request{
		SessionID: "s1",
		Audio:     []byte("webm-recording"),
		MIMEType:  "audio/webm;codecs=opus",
		Filename:  "blob",
		Level:     "beginner",
	}
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.svc.Run(context.Background(), webm())
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", res.RecognizedText)
	assert.Equal(t, "Bonjour ! Comment ça va ?", res.AssistantText)
	assert.NotEmpty(t, res.AudioBase64)
	decoded, err := base64.StdEncoding.DecodeString(res.AudioBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-mp3-bytes"), decoded)

	assert.Equal(t, 1, f.transcoder.calls)
	assert.True(t, strings.HasSuffix(f.transcriber.gotPath, ".converted.mp3"))
	assert.Equal(t, []byte("mp3:webm-recording"), f.transcriber.gotAudio)
	assert.Equal(t, "fr", f.transcriber.gotLang)
	assert.Equal(t, "alloy", f.synth.gotVoice)
	assert.InDelta(t, 0.85, f.synth.gotSpeed, 0.0001)

	turns := f.store.Get("s1").Snapshot()
	require.Len(t, turns, 3)
	assert.Equal(t, tutor.PromptFor("beginner"), turns[0].Content)
	assert.Equal(t, tutor.Turn{Role: tutor.RoleUser, Content: "Bonjour"}, turns[1])
	assert.Equal(t, tutor.Turn{Role: tutor.RoleAssistant, Content: "Bonjour ! Comment ça va ?"}, turns[2])

	f.assertNoArtifacts(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExchangesCompleted))
}

func TestRunWithoutTranscoderPassesOriginalBytes(t *testing.T) {
	f := newFixture(t, false)
	require.False(t, f.svc.HasTranscoder())

	_, err := f.svc.Run(context.Background(), webm())
	require.NoError(t, err)

	assert.Equal(t, 0, f.transcoder.calls)
	assert.Equal(t, []byte("webm-recording"), f.transcriber.gotAudio)
	assert.Equal(t, ".webm", filepath.Ext(f.transcriber.gotPath))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TranscoderSkipped))
	f.assertNoArtifacts(t)
}

func TestRunTranscoderFailure(t *testing.T) {
	f := newFixture(t, true)
	f.transcoder.err = errors.New("ffmpeg: exit status 1")

	_, err := f.svc.Run(context.Background(), webm())

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConversion))
	assert.Equal(t, 0, f.transcriber.calls)
	assert.Equal(t, 1, f.store.Get("s1").Len())
	assert.Equal(t, []string{"transcode"}, f.notifier.sources)
	f.assertNoArtifacts(t)
}

func TestRunRecognitionFailure(t *testing.T) {
	f := newFixture(t, true)
	f.transcriber.err = errors.New("whisper: status code: 500")

	_, err := f.svc.Run(context.Background(), webm())

	assert.True(t, apperr.Is(err, apperr.KindRecognition))
	assert.Nil(t, f.dialogue.gotTurns)
	f.assertNoArtifacts(t)
}

func TestRunEmptyTranscript(t *testing.T) {
	f := newFixture(t, false)
	f.transcriber.text = "   "

	_, err := f.svc.Run(context.Background(), webm())

	assert.True(t, apperr.Is(err, apperr.KindRecognition))
	assert.Equal(t, 1, f.store.Get("s1").Len())
}

func TestRunDialogueFailureKeepsUserTurn(t *testing.T) {
	f := newFixture(t, true)
	f.dialogue.err = errors.New("status code: 503")

	res, err := f.svc.Run(context.Background(), webm())

	assert.Nil(t, res)
	assert.True(t, apperr.Is(err, apperr.KindGeneration))
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))

	turns := f.store.Get("s1").Snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, tutor.Turn{Role: tutor.RoleUser, Content: "Bonjour"}, turns[1])
	f.assertNoArtifacts(t)
}

type stuckSender struct {
	unblock chan struct{}
}

func (s *stuckSender) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	<-s.unblock
	return tgbotapi.Message{}, nil
}

func TestRunStalledAlertReleasesSession(t *testing.T) {
	f := newFixture(t, true)
	sender := &stuckSender{unblock: make(chan struct{})}
	t.Cleanup(func() { close(sender.unblock) })

	f.svc.notifier = error_notificator.NewService(error_notificator.NewInfra(sender, 1), zaptest.NewLogger(t))
	f.svc.notifyTimeout = 20 * time.Millisecond
	f.dialogue.err = errors.New("status code: 503")

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Run(context.Background(), webm())
		done <- err
	}()

	select {
	case err := <-done:
		assert.True(t, apperr.Is(err, apperr.KindGeneration))
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked on a stalled alert")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	release, err := f.store.Get("s1").Acquire(ctx)
	require.NoError(t, err)
	release()
}

func TestRunSynthesisFailure(t *testing.T) {
	f := newFixture(t, true)
	f.synth.err = errors.New("tts down")

	_, err := f.svc.Run(context.Background(), webm())

	assert.True(t, apperr.Is(err, apperr.KindSynthesis))
	assert.Equal(t, 3, f.store.Get("s1").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExchangesFailed))
	f.assertNoArtifacts(t)
}

func TestRunEmptyAudio(t *testing.T) {
	f := newFixture(t, true)
	req := webm()
	req.Audio = nil

	_, err := f.svc.Run(context.Background(), req)

	assert.True(t, apperr.Is(err, apperr.KindInput))
	assert.Equal(t, 0, f.transcoder.calls)
	_, ok := f.store.Lookup("s1")
	assert.False(t, ok)
}

func TestRunStageTimeoutIsRetryable(t *testing.T) {
	f := newFixture(t, false)
	f.dialogue.block = true
	f.build(t, false, 20*time.Millisecond)

	_, err := f.svc.Run(context.Background(), webm())

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindGeneration))
	assert.True(t, apperr.Retryable(err))
	assert.Equal(t, http.StatusGatewayTimeout, apperr.HTTPStatus(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StageFailures.WithLabelValues("dialogue", "true")))
}

func TestRunLevelFirstSelectionWins(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Run(context.Background(), webm())
	require.NoError(t, err)

	req := webm()
	req.Level = "advanced"
	_, err = f.svc.Run(context.Background(), req)
	require.NoError(t, err)

	turns := f.store.Get("s1").Snapshot()
	require.Len(t, turns, 5)
	assert.Equal(t, tutor.PromptFor("beginner"), turns[0].Content)
	assert.Len(t, f.dialogue.gotTurns, 4)
}

func TestRunSessionsAreIsolated(t *testing.T) {
	f := newFixture(t, false)

	a := webm()
	b := webm()
	b.SessionID = "s2"
	b.Level = "advanced"

	_, err := f.svc.Run(context.Background(), a)
	require.NoError(t, err)
	_, err = f.svc.Run(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 3, f.store.Get("s1").Len())
	assert.Equal(t, tutor.PromptFor("advanced"), f.store.Get("s2").Snapshot()[0].Content)
}

func TestRunArchivesRecording(t *testing.T) {
	f := newFixture(t, false)
	arch := &fakeArchiver{saved: make(chan string, 1)}
	f.svc.archiver = arch
	f.svc.logger = zap.NewNop()

	_, err := f.svc.Run(context.Background(), webm())
	require.NoError(t, err)

	select {
	case got := <-arch.saved:
		assert.Equal(t, "s1/blob", got)
	case <-time.After(time.Second):
		t.Fatal("recording was not archived")
	}
}

func TestUploadExt(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Filename: "voice.MP3"}, ".mp3"},
		{Request{Filename: "blob", MIMEType: "audio/ogg; codecs=opus"}, ".ogg"},
		{Request{Filename: "blob.bin", MIMEType: "application/octet-stream"}, ".webm"},
		{Request{}, ".webm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uploadExt(tt.req), "%+v", tt.req)
	}
}
