package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Vovarama1992/lingua_tutor/internal/ai"
	"github.com/Vovarama1992/lingua_tutor/internal/archive"
	"github.com/Vovarama1992/lingua_tutor/internal/config"
	"github.com/Vovarama1992/lingua_tutor/internal/delivery"
	"github.com/Vovarama1992/lingua_tutor/internal/error_notificator"
	"github.com/Vovarama1992/lingua_tutor/internal/infra"
	"github.com/Vovarama1992/lingua_tutor/internal/metrics"
	"github.com/Vovarama1992/lingua_tutor/internal/pipeline"
	"github.com/Vovarama1992/lingua_tutor/internal/speech"
	"github.com/Vovarama1992/lingua_tutor/internal/translation"
	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

const sweepInterval = 10 * time.Minute

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// DB
	// =========================================================================

	db, err := infra.OpenPostgres(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := translation.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	var alerts error_notificator.Notificator
	if cfg.Telegram.Enabled() {
		tg, err := error_notificator.NewTelegramInfra(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatalf("failed to init telegram notifier: %v", err)
		}
		alerts = tg
	}
	errService := error_notificator.NewService(alerts, baseLogger)

	// =========================================================================
	// CLIENTS (STT / LLM / TTS)
	// =========================================================================

	oaCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	oaCfg.HTTPClient = &http.Client{Timeout: cfg.AdapterTimeout + 5*time.Second}
	oaClient := openai.NewClientWithConfig(oaCfg)

	llm := ai.NewOpenAIClient(oaClient, cfg.OpenAI.ChatModel, cfg.OpenAI.CompletionModel, cfg.OpenAI.Temperature)
	oaSpeech := speech.NewOpenAIClient(oaClient, cfg.OpenAI.STTModel, cfg.OpenAI.TTSModel)

	var stt speech.STTClient = oaSpeech
	if cfg.Speech.STTProvider == config.ProviderDeepgram {
		stt = speech.NewDeepgramClient(cfg.Speech.DeepgramAPIKey)
	}

	var tts speech.TTSClient = oaSpeech
	voice := cfg.Speech.Voice
	if cfg.Speech.TTSProvider == config.ProviderElevenLabs {
		tts = speech.NewElevenLabsClient(cfg.Speech.ElevenLabsAPIKey, cfg.Speech.ElevenLabsVoice)
		voice = cfg.Speech.ElevenLabsVoice
	}

	var dialogue ai.Dialogue = llm
	if cfg.Dialogue.Provider == config.ProviderPerplexity {
		dialogue = ai.NewPerplexityClient(cfg.Dialogue.PerplexityAPIKey, cfg.Dialogue.PerplexityModel)
	}

	speechService := speech.NewService(stt, tts)

	// ffmpeg может отсутствовать, тогда отправляем исходный файл
	var transcoder pipeline.Transcoder
	if !cfg.DisableTranscoder {
		if ff, ok := speech.DetectFFmpeg(cfg.FFmpegPath); ok {
			transcoder = ff
		}
	}

	var archiver pipeline.Archiver
	if cfg.S3.Enabled() {
		s3Client, err := archive.NewS3Client(ctx, archive.Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Secure:    cfg.S3.Secure,
		})
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		archiver = archive.NewService(s3Client)
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	count, err := tutor.NewTokenCounter(cfg.OpenAI.ChatModel)
	if err != nil {
		baseLogger.Warn("tokenizer unavailable, estimating history size", zap.Error(err))
	}

	store := tutor.NewStore(cfg.SessionIdleTTL, baseLogger)
	store.OnSweep(func(active int) { m.ActiveSessions.Set(float64(active)) })
	go store.Run(ctx, sweepInterval)

	voicePipeline := pipeline.NewService(pipeline.Config{
		UploadDir:    cfg.UploadDir,
		TargetFormat: "mp3",
		Language:     cfg.Speech.Language,
		Voice:        voice,
		Speed:        cfg.Speech.Speed,
		StageTimeout: cfg.AdapterTimeout,
	}, pipeline.Deps{
		Sessions:    store,
		Transcoder:  transcoder,
		Transcriber: speechService,
		Dialogue:    dialogue,
		Synthesizer: speechService,
		Archiver:    archiver,
		Notifier:    errService,
		Budget:      tutor.Budget{Limit: cfg.HistoryTokenLimit, Count: count},
		Metrics:     m,
		Logger:      baseLogger,
	})

	translationService := translation.NewService(
		llm,
		translation.NewRepo(db),
		errService,
		m,
		baseLogger,
		cfg.AdapterTimeout,
	)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Session-ID"},
		AllowCredentials: false,
	}))

	delivery.RegisterRoutes(
		r,
		delivery.NewTranscribeHandler(voicePipeline, store, m, zl),
		delivery.NewSessionHandler(store, m, zl),
		delivery.NewChatHandler(translationService, zl),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cfg.StaticDir,
	)

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error("shutdown", zap.Error(err))
		}
	}()

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + srv.Addr,
		Service: "lingua_tutor",
	})
	baseLogger.Info("voice pipeline ready",
		zap.Bool("transcoder", voicePipeline.HasTranscoder()),
		zap.String("stt", cfg.Speech.STTProvider),
		zap.String("tts", cfg.Speech.TTSProvider),
		zap.String("dialogue", cfg.Dialogue.Provider),
		zap.Bool("archive", archiver != nil),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
