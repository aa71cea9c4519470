package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vovarama1992/lingua_tutor/internal/apperr"
)

const (
	ProviderOpenAI     = "openai"
	ProviderDeepgram   = "deepgram"
	ProviderElevenLabs = "elevenlabs"
	ProviderPerplexity = "perplexity"
)

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// DSN собирает строку подключения для lib/pq
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type OpenAIConfig struct {
	APIKey          string
	ChatModel       string
	CompletionModel string
	Temperature     float32
	STTModel        string
	TTSModel        string
}

type SpeechConfig struct {
	STTProvider      string
	TTSProvider      string
	Language         string
	Voice            string
	Speed            float64
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
}

type DialogueConfig struct {
	Provider         string
	PerplexityAPIKey string
	PerplexityModel  string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

func (c S3Config) Enabled() bool { return c.Endpoint != "" && c.Bucket != "" }

type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (c TelegramConfig) Enabled() bool { return c.Token != "" && c.ChatID != 0 }

type Config struct {
	Port     string
	DB       DBConfig
	OpenAI   OpenAIConfig
	Speech   SpeechConfig
	Dialogue DialogueConfig
	S3       S3Config
	Telegram TelegramConfig

	FFmpegPath        string
	DisableTranscoder bool
	UploadDir         string
	StaticDir         string
	AdapterTimeout    time.Duration
	SessionIdleTTL    time.Duration
	HistoryTokenLimit int
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv)
}

// LoadFrom builds the config from getenv. All problems are reported in a
// single configuration error.
func LoadFrom(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Port: p.str("PORT", "3001"),
		DB: DBConfig{
			User:     p.required("DB_USER"),
			Password: p.required("DB_PASSWORD"),
			Host:     p.required("DB_HOST"),
			Port:     p.required("DB_PORT"),
			Name:     p.required("DB_NAME"),
			SSLMode:  p.str("DB_SSLMODE", "require"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          p.required("OPENAI_API_KEY"),
			ChatModel:       p.str("CHAT_MODEL", "gpt-3.5-turbo"),
			CompletionModel: p.str("COMPLETION_MODEL", "gpt-3.5-turbo-instruct"),
			Temperature:     float32(p.float("CHAT_TEMPERATURE", 0.7)),
			STTModel:        p.str("STT_MODEL", "whisper-1"),
			TTSModel:        p.str("TTS_MODEL", "tts-1"),
		},
		Speech: SpeechConfig{
			STTProvider:      p.oneOf("STT_PROVIDER", ProviderOpenAI, ProviderDeepgram),
			TTSProvider:      p.oneOf("TTS_PROVIDER", ProviderOpenAI, ProviderElevenLabs),
			Language:         p.str("TRANSCRIBE_LANGUAGE", "fr"),
			Voice:            p.str("TTS_VOICE", "alloy"),
			Speed:            p.float("TTS_SPEED", 0.85),
			DeepgramAPIKey:   getenv("DEEPGRAM_API_KEY"),
			ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY"),
			ElevenLabsVoice:  getenv("ELEVENLABS_VOICE_ID"),
		},
		Dialogue: DialogueConfig{
			Provider:         p.oneOf("DIALOGUE_PROVIDER", ProviderOpenAI, ProviderPerplexity),
			PerplexityAPIKey: getenv("PERPLEXITY_API_KEY"),
			PerplexityModel:  p.str("PERPLEXITY_MODEL", "sonar"),
		},
		S3: S3Config{
			Endpoint:  getenv("S3_ENDPOINT"),
			AccessKey: getenv("S3_ACCESS_KEY"),
			SecretKey: getenv("S3_SECRET_KEY"),
			Bucket:    getenv("S3_BUCKET"),
			Region:    getenv("S3_REGION"),
			Secure:    p.boolean("S3_SECURE", true),
		},
		Telegram: TelegramConfig{
			Token:  getenv("TELEGRAM_ALERT_TOKEN"),
			ChatID: p.int64("TELEGRAM_ALERT_CHAT_ID", 0),
		},
		FFmpegPath:        p.str("FFMPEG_PATH", "ffmpeg"),
		DisableTranscoder: p.boolean("DISABLE_TRANSCODER", false),
		UploadDir:         p.str("UPLOAD_DIR", "uploads"),
		StaticDir:         p.str("STATIC_DIR", "chat-app/build"),
		AdapterTimeout:    p.duration("ADAPTER_TIMEOUT", 60*time.Second),
		SessionIdleTTL:    p.duration("SESSION_IDLE_TTL", 2*time.Hour),
		HistoryTokenLimit: int(p.int64("HISTORY_TOKEN_LIMIT", 12000)),
	}

	// ключи провайдеров нужны только когда провайдер выбран
	if cfg.Speech.STTProvider == ProviderDeepgram {
		p.need("DEEPGRAM_API_KEY")
	}
	if cfg.Speech.TTSProvider == ProviderElevenLabs {
		p.need("ELEVENLABS_API_KEY")
	}
	if cfg.Dialogue.Provider == ProviderPerplexity {
		p.need("PERPLEXITY_API_KEY")
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		p.problems = append(p.problems, "TELEGRAM_ALERT_CHAT_ID is required when TELEGRAM_ALERT_TOKEN is set")
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type parser struct {
	getenv   func(string) string
	missing  []string
	problems []string
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) required(key string) string {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		p.missing = append(p.missing, key)
	}
	return v
}

func (p *parser) need(key string) {
	p.required(key)
}

func (p *parser) oneOf(key string, allowed ...string) string {
	v := strings.ToLower(p.str(key, allowed[0]))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	p.problems = append(p.problems, fmt.Sprintf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), v))
	return allowed[0]
}

func (p *parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s: invalid number %q", key, raw))
		return def
	}
	return v
}

func (p *parser) int64(key string, def int64) int64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s: invalid integer %q", key, raw))
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s: invalid boolean %q", key, raw))
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s: invalid duration %q", key, raw))
		return def
	}
	return v
}

func (p *parser) err() error {
	var parts []string
	if len(p.missing) > 0 {
		parts = append(parts, "missing required env: "+strings.Join(p.missing, ", "))
	}
	parts = append(parts, p.problems...)
	if len(parts) == 0 {
		return nil
	}
	return apperr.New(apperr.KindConfiguration, "config", strings.Join(parts, "; "))
}
