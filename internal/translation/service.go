package translation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/Vovarama1992/lingua_tutor/internal/ai"
	"github.com/Vovarama1992/lingua_tutor/internal/apperr"
	"github.com/Vovarama1992/lingua_tutor/internal/metrics"
)

const (
	maxTokens   = 60
	temperature = 0.5

	notifyTimeout = 5 * time.Second

	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	completer ai.Completer
	repo      Repo
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	timeout   time.Duration

	notifyTimeout time.Duration
}

func NewService(completer ai.Completer, repo Repo, notifier Notifier, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration) *Service {
	return &Service{
		completer: completer,
		repo:      repo,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		timeout:   timeout,

		notifyTimeout: notifyTimeout,
	}
}

// Translate asks the completion model for a translation and stores it.
// Nothing is stored when the model call fails.
func (s *Service) Translate(ctx context.Context, message, language string) (string, error) {
	message = strings.TrimSpace(message)
	language = strings.ToLower(strings.TrimSpace(language))

	if message == "" {
		return "", apperr.New(apperr.KindInput, "translate", "message is empty")
	}
	if !isLanguageTag(language) {
		return "", apperr.New(apperr.KindInput, "translate", "language must be a 2-letter code")
	}

	translated, err := s.complete(ctx, fmt.Sprintf("Translate the following English text to %s: '%s'", language, message))
	if err != nil {
		s.fail("generation", err)
		if s.notifier != nil {
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
			_ = s.notifier.Notify(nctx, "translate", err, "language="+language)
			cancel()
		}
		return "", err
	}

	id, err := s.repo.Create(ctx, translated, language)
	if err != nil {
		s.fail("persistence", err)
		return "", apperr.Wrap(apperr.KindPersistence, "save translation", err)
	}

	s.metrics.Translations.Inc()
	s.logger.Info("translation stored", zap.Int64("id", id), zap.String("language", language))
	return translated, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.completer.Complete(ctx, prompt, maxTokens, temperature)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperr.Timeout(apperr.KindGeneration, "translate", err)
		}
		return "", apperr.Wrap(apperr.KindGeneration, "translate", err)
	}
	if out == "" {
		return "", apperr.New(apperr.KindGeneration, "translate", "empty completion")
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, language string, limit int) ([]Message, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language != "" && !isLanguageTag(language) {
		return nil, apperr.New(apperr.KindInput, "list", "language must be a 2-letter code")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	msgs, err := s.repo.List(ctx, language, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "list translations", err)
	}
	return msgs, nil
}

func (s *Service) fail(cause string, err error) {
	s.metrics.TranslationFailure.WithLabelValues(cause).Inc()
	s.logger.Error("translation failed", zap.String("cause", cause), zap.Error(err))
}

func isLanguageTag(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
