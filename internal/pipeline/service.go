package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Vovarama1992/lingua_tutor/internal/ai"
	"github.com/Vovarama1992/lingua_tutor/internal/apperr"
	"github.com/Vovarama1992/lingua_tutor/internal/metrics"
	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

var (
	errNoSpeech   = errors.New("no speech recognized")
	errEmptyReply = errors.New("empty assistant reply")
	errNoAudio    = errors.New("synthesized audio is empty")
)

const (
	notifyTimeout  = 5 * time.Second
	archiveTimeout = 30 * time.Second
)

type Config struct {
	UploadDir    string
	TargetFormat string
	Language     string
	Voice        string
	Speed        float64
	StageTimeout time.Duration
}

type Deps struct {
	Sessions Sessions
	// Transcoder is nil when no converter is installed.
	Transcoder  Transcoder
	Transcriber Transcriber
	Dialogue    Dialogue
	Synthesizer Synthesizer
	Archiver    Archiver
	Notifier    Notifier
	Budget      tutor.Budget
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

type Service struct {
	cfg           Config
	hasTranscoder bool
	notifyTimeout time.Duration

	sessions    Sessions
	transcoder  Transcoder
	transcriber Transcriber
	dialogue    Dialogue
	synthesizer Synthesizer
	archiver    Archiver
	notifier    Notifier
	budget      tutor.Budget
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewService(cfg Config, d Deps) *Service {
	if cfg.TargetFormat == "" {
		cfg.TargetFormat = "mp3"
	}
	return &Service{
		cfg:           cfg,
		hasTranscoder: d.Transcoder != nil,
		notifyTimeout: notifyTimeout,
		sessions:      d.Sessions,
		transcoder:    d.Transcoder,
		transcriber:   d.Transcriber,
		dialogue:      d.Dialogue,
		synthesizer:   d.Synthesizer,
		archiver:      d.Archiver,
		notifier:      d.Notifier,
		budget:        d.Budget,
		metrics:       d.Metrics,
		logger:        d.Logger,
	}
}

func (s *Service) HasTranscoder() bool { return s.hasTranscoder }

// Run executes one voice exchange. Stages run strictly in order and the
// first failure aborts the rest; turns appended before the failure stay in
// the session. Temp files are removed on every exit path.
func (s *Service) Run(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	log := s.logger.With(zap.String("session", req.SessionID))

	defer func() {
		if err != nil {
			s.metrics.ExchangesFailed.Inc()
			log.Error("voice exchange failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		s.metrics.ExchangesCompleted.Inc()
		log.Info("voice exchange done", zap.Duration("elapsed", time.Since(start)))
	}()

	if len(req.Audio) == 0 {
		return nil, apperr.New(apperr.KindInput, "upload", "audio file is missing or empty")
	}

	var artifacts []string
	defer func() { s.cleanup(log, artifacts) }()

	inputPath, err := s.saveUpload(req)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	artifacts = append(artifacts, inputPath)

	s.metrics.UploadBytes.Observe(float64(len(req.Audio)))
	log.Info("audio received",
		zap.String("path", inputPath),
		zap.String("size", humanize.Bytes(uint64(len(req.Audio)))),
		zap.String("mime", req.MIMEType),
		zap.String("level", req.Level),
	)
	s.archive(req)

	sess := s.sessions.Get(req.SessionID)
	release, err := sess.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for session: %w", err)
	}
	defer release()

	if sess.SelectLevel(req.Level) {
		log.Info("level selected", zap.String("level", req.Level))
	}

	// 1) конвертация, если есть ffmpeg
	transcriptionPath := inputPath
	if s.hasTranscoder {
		var converted string
		err = s.stage(ctx, req.SessionID, "transcode", apperr.KindConversion, func(ctx context.Context) error {
			var err error
			converted, err = s.transcoder.Convert(ctx, inputPath, s.cfg.TargetFormat)
			return err
		})
		if converted != "" {
			artifacts = append(artifacts, converted)
		}
		if err != nil {
			return nil, err
		}
		transcriptionPath = converted
	} else {
		s.metrics.TranscoderSkipped.Inc()
		log.Warn("transcoder unavailable, sending original upload")
	}

	// 2) голос -> текст
	var text string
	err = s.stage(ctx, req.SessionID, "transcribe", apperr.KindRecognition, func(ctx context.Context) error {
		var err error
		text, err = s.transcriber.Transcribe(ctx, transcriptionPath, s.cfg.Language)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errNoSpeech
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("transcribed", zap.String("text", text))

	if err := sess.AppendUser(text); err != nil {
		return nil, apperr.Wrap(apperr.KindRecognition, "transcribe", err)
	}

	// 3) ответ тьютора
	var reply string
	err = s.stage(ctx, req.SessionID, "dialogue", apperr.KindGeneration, func(ctx context.Context) error {
		var err error
		reply, err = s.dialogue.Reply(ctx, s.budget.Fit(sess.Snapshot()))
		if err == nil && strings.TrimSpace(reply) == "" {
			err = errEmptyReply
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := sess.AppendAssistant(reply); err != nil {
		return nil, apperr.Wrap(apperr.KindGeneration, "dialogue", err)
	}

	// 4) ответ -> голос
	var audio []byte
	err = s.stage(ctx, req.SessionID, "synthesize", apperr.KindSynthesis, func(ctx context.Context) error {
		var err error
		audio, err = s.synthesizer.Synthesize(ctx, reply, s.cfg.Voice, s.cfg.Speed)
		if err == nil && len(audio) == 0 {
			err = errNoAudio
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("synthesized", zap.String("size", humanize.Bytes(uint64(len(audio)))))

	return &Result{
		RecognizedText: text,
		AssistantText:  reply,
		Audio:          audio,
		AudioBase64:    base64.StdEncoding.EncodeToString(audio),
	}, nil
}

// stage runs fn under the adapter timeout and tags its failure with kind.
func (s *Service) stage(ctx context.Context, sessionID, name string, kind apperr.Kind, fn func(context.Context) error) error {
	stageCtx := ctx
	if s.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()
	}

	started := time.Now()
	err := fn(stageCtx)
	timeout := err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(stageCtx.Err(), context.DeadlineExceeded))
	s.metrics.ObserveStage(name, time.Since(started), err, timeout)
	if err == nil {
		return nil
	}

	if timeout {
		err = apperr.Timeout(kind, name, err)
	} else {
		err = apperr.Wrap(kind, name, err)
	}
	s.notify(ctx, sessionID, name, err)
	return err
}

func (s *Service) notify(ctx context.Context, sessionID, stage string, err error) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	details := fmt.Sprintf("session=%s\n%s", sessionID, ai.Diagnose(errors.Unwrap(err)))
	_ = s.notifier.Notify(nctx, stage, err, details)
}

// archive stores the raw recording in the background, failures are logged only.
func (s *Service) archive(req Request) {
	if s.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		url, err := s.archiver.SaveRecording(ctx, req.SessionID, req.Audio, uploadName(req), req.MIMEType)
		if err != nil {
			s.logger.Warn("archive: upload failed", zap.String("session", req.SessionID), zap.Error(err))
			return
		}
		s.logger.Debug("archive: recording stored", zap.String("url", url))
	}()
}

func (s *Service) saveUpload(req Request) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	pattern := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-*" + uploadExt(req)
	f, err := os.CreateTemp(s.cfg.UploadDir, pattern)
	if err != nil {
		return "", err
	}

	if _, err := f.Write(req.Audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *Service) cleanup(log *zap.Logger, paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("cleanup: failed to remove temp file", zap.String("path", p), zap.Error(err))
		}
	}
}

var audioExts = map[string]string{
	"audio/webm":  ".webm",
	"video/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
}

// uploadExt keeps the container hint the transcription services rely on.
// Browser recordings without a usable hint are webm.
func uploadExt(req Request) string {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	for _, known := range audioExts {
		if ext == known {
			return ext
		}
	}
	if mt, _, err := mime.ParseMediaType(req.MIMEType); err == nil {
		if ext, ok := audioExts[mt]; ok {
			return ext
		}
	}
	return ".webm"
}

func uploadName(req Request) string {
	if req.Filename != "" {
		return req.Filename
	}
	return "recording" + uploadExt(req)
}
