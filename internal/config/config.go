package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/school-tg-bridge/internal/humanize"
)

// Config — вся конфигурация процесса. В остальном коде os.Getenv
// не трогаем — только через этот объект.
type Config struct {
	Port        string
	DatabaseURL string

	OpenAIKey        string
	ChatModel        string
	EmbeddingModel   string
	ModelCallTimeout time.Duration

	// Транспортный sidecar (Telegram-клиент живёт отдельным процессом).
	TransportBaseURL string
	TransportToken   string

	// Исходящие лимиты (process-wide).
	MaxPerMinute int
	MaxPerHour   int
	MaxPerDay    int

	// Входящие лимиты на одного студента.
	InboundMaxPerMinute int
	InboundMinGap       time.Duration

	// Retrieval.
	SearchThreshold float64
	SearchTopK      int

	// История диалога, передаваемая агенту.
	HistoryLimit int

	// Повторы отправки.
	MaxSendRetries    int
	MaxLimiterRetries int

	// Диапазоны пауз. Крутятся через окружение, без пересборки.
	Pacing humanize.Pacing
}

// Load читает окружение и валидирует обязательные переменные.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		ChatModel:        getEnv("OPENAI_MODEL", ""),
		EmbeddingModel:   getEnv("OPENAI_EMBEDDING_MODEL", ""),
		ModelCallTimeout: getEnvDuration("MODEL_CALL_TIMEOUT", 90*time.Second),

		TransportBaseURL: getEnv("TRANSPORT_BASE_URL", ""),
		TransportToken:   getEnv("TRANSPORT_TOKEN", ""),

		MaxPerMinute: getEnvInt("MAX_PER_MINUTE", 8),
		MaxPerHour:   getEnvInt("MAX_PER_HOUR", 40),
		MaxPerDay:    getEnvInt("MAX_PER_DAY", 200),

		InboundMaxPerMinute: getEnvInt("INBOUND_MAX_PER_MINUTE", 10),
		InboundMinGap:       getEnvDuration("INBOUND_MIN_GAP", 2*time.Second),

		SearchThreshold: getEnvFloat("SEARCH_THRESHOLD", 0.7),
		SearchTopK:      getEnvInt("SEARCH_TOP_K", 5),

		HistoryLimit: getEnvInt("HISTORY_LIMIT", 10),

		MaxSendRetries:    getEnvInt("MAX_SEND_RETRIES", 3),
		MaxLimiterRetries: getEnvInt("MAX_LIMITER_RETRIES", 5),

		Pacing: loadPacing(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadPacing накладывает переменные окружения поверх рабочих
// диапазонов. Граница диапазона — пара PACING_X_MIN / PACING_X_MAX
// в формате time.ParseDuration ("3s", "450ms").
func loadPacing() humanize.Pacing {
	p := humanize.DefaultPacing()

	p.ReadShort = getEnvRange("PACING_READ_SHORT", p.ReadShort)
	p.ReadNormal = getEnvRange("PACING_READ_NORMAL", p.ReadNormal)
	p.ReadLong = getEnvRange("PACING_READ_LONG", p.ReadLong)
	p.ReadShortChars = getEnvInt("PACING_READ_SHORT_CHARS", p.ReadShortChars)
	p.ReadNormalChars = getEnvInt("PACING_READ_NORMAL_CHARS", p.ReadNormalChars)

	p.ThinkSimple = getEnvRange("PACING_THINK_SIMPLE", p.ThinkSimple)
	p.ThinkNormal = getEnvRange("PACING_THINK_NORMAL", p.ThinkNormal)
	p.ThinkComplex = getEnvRange("PACING_THINK_COMPLEX", p.ThinkComplex)
	p.SimpleChars = getEnvInt("PACING_SIMPLE_CHARS", p.SimpleChars)
	p.NormalChars = getEnvInt("PACING_NORMAL_CHARS", p.NormalChars)

	p.TypingPerChar = getEnvRange("PACING_TYPING_PER_CHAR", p.TypingPerChar)
	p.TypingBase = getEnvDuration("PACING_TYPING_BASE", p.TypingBase)
	p.TypingMax = getEnvDuration("PACING_TYPING_MAX", p.TypingMax)
	p.ComposingRefresh = getEnvDuration("PACING_COMPOSING_REFRESH", p.ComposingRefresh)

	p.Connector = getEnvRange("PACING_CONNECTOR", p.Connector)
	p.Continuation = getEnvRange("PACING_CONTINUATION", p.Continuation)
	p.Afterthought = getEnvRange("PACING_AFTERTHOUGHT", p.Afterthought)
	p.Correction = getEnvRange("PACING_CORRECTION", p.Correction)

	p.GreetingGap = getEnvRange("PACING_GREETING_GAP", p.GreetingGap)
	p.Jitter = getEnvFloat("PACING_JITTER", p.Jitter)

	return p
}

func (c *Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.TransportBaseURL == "" {
		missing = append(missing, "TRANSPORT_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.MaxPerMinute <= 0 || c.MaxPerHour <= 0 || c.MaxPerDay <= 0 {
		return fmt.Errorf("config: rate caps must be positive")
	}
	if c.SearchThreshold < 0 || c.SearchThreshold > 1 {
		return fmt.Errorf("config: SEARCH_THRESHOLD must be in [0,1]")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvRange(prefix string, fallback humanize.Range) humanize.Range {
	return humanize.Range{
		Min: getEnvDuration(prefix+"_MIN", fallback.Min),
		Max: getEnvDuration(prefix+"_MAX", fallback.Max),
	}
}
