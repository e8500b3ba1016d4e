package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type EngineConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type ImagesConfig struct {
	BaseURL       string        `yaml:"base_url"`
	MaxResults    int           `yaml:"max_results"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

type TelegramConfig struct {
	Token      string `yaml:"token"`
	Credential string `yaml:"credential"`
	LLMName    string `yaml:"llm_name"`
}

// Config is built once at startup and passed to constructors; nothing
// mutates it afterwards.
type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DefaultEngine string       `yaml:"default_engine"`
	OpenRouter    EngineConfig `yaml:"openrouter"`
	OpenAI        EngineConfig `yaml:"openai"`
	Gemini        EngineConfig `yaml:"gemini"`
	Temperature   float64      `yaml:"temperature"`
	MaxTokens     int          `yaml:"max_tokens"`
	Referer       string       `yaml:"referer"`
	Title         string       `yaml:"title"`

	RequestTimeout  time.Duration `yaml:"request_timeout"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	PromptDir       string        `yaml:"prompt_dir"`

	Images         ImagesConfig   `yaml:"images"`
	MaxBodyBytes   int64          `yaml:"max_body_bytes"`
	MaxUploadBytes int64          `yaml:"max_upload_bytes"`
	Telegram       TelegramConfig `yaml:"telegram"`
}

func Default() Config {
	return Config{
		Port:          "8000",
		LogLevel:      "info",
		LogFormat:     "text",
		DefaultEngine: "openrouter",
		OpenRouter: EngineConfig{
			BaseURL: "https://openrouter.ai/api/v1/chat/completions",
			Model:   "deepseek/deepseek-r1-0528:free",
		},
		OpenAI:         EngineConfig{Model: "gpt-4o-mini"},
		Gemini:         EngineConfig{Model: "gemini-2.5-flash"},
		Temperature:    0.3,
		MaxTokens:      3000,
		Referer:        "http://localhost:3000",
		Title:          "PaperPal",
		RequestTimeout: 180 * time.Second,
		Images: ImagesConfig{
			BaseURL:       "https://duckduckgo.com",
			MaxResults:    6,
			RatePerSecond: 1,
			CacheTTL:      30 * time.Minute,
		},
		MaxBodyBytes:   8 << 20,
		MaxUploadBytes: 32 << 20,
	}
}

// Load applies, in order: defaults, the YAML file named by CONFIG_FILE,
// then environment variables (a .env file in the working dir is read first).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if p := strings.TrimSpace(os.Getenv("CONFIG_FILE")); p != "" {
		if err := cfg.readYAML(p); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.DefaultEngine = getEnv("LLM_DEFAULT", c.DefaultEngine)
	c.OpenRouter.BaseURL = getEnv("OPENROUTER_BASE_URL", c.OpenRouter.BaseURL)
	c.OpenRouter.Model = getEnv("OPENROUTER_MODEL", c.OpenRouter.Model)
	c.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = getEnv("OPENAI_MODEL", c.OpenAI.Model)
	c.Gemini.Model = getEnv("GEMINI_MODEL", c.Gemini.Model)
	c.Referer = getEnv("OPENROUTER_REFERER", c.Referer)
	c.Title = getEnv("OPENROUTER_TITLE", c.Title)
	c.PromptDir = getEnv("PROMPT_DIR", c.PromptDir)
	c.Images.BaseURL = getEnv("IMAGE_SEARCH_URL", c.Images.BaseURL)
	c.Telegram.Token = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.Token)
	c.Telegram.Credential = getEnv("BOT_CREDENTIAL", c.Telegram.Credential)
	c.Telegram.LLMName = getEnv("BOT_LLM_NAME", c.Telegram.LLMName)

	var errs []error
	num := func(k string, set func(string) error) {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: %w", k, v, err))
			}
		}
	}
	num("LLM_TEMPERATURE", func(v string) (err error) { c.Temperature, err = strconv.ParseFloat(v, 64); return })
	num("LLM_MAX_TOKENS", func(v string) (err error) { c.MaxTokens, err = strconv.Atoi(v); return })
	num("REQUEST_TIMEOUT", func(v string) (err error) { c.RequestTimeout, err = parseSeconds(v); return })
	num("UPSTREAM_TIMEOUT", func(v string) (err error) { c.UpstreamTimeout, err = parseSeconds(v); return })
	num("IMAGE_MAX_RESULTS", func(v string) (err error) { c.Images.MaxResults, err = strconv.Atoi(v); return })
	num("IMAGE_RATE_PER_SEC", func(v string) (err error) { c.Images.RatePerSecond, err = strconv.ParseFloat(v, 64); return })
	num("IMAGE_CACHE_TTL", func(v string) (err error) { c.Images.CacheTTL, err = parseSeconds(v); return })
	num("MAX_BODY_BYTES", func(v string) (err error) { c.MaxBodyBytes, err = strconv.ParseInt(v, 10, 64); return })
	num("MAX_UPLOAD_BYTES", func(v string) (err error) { c.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64); return })
	return errors.Join(errs...)
}

// parseSeconds accepts "90" (seconds) or a Go duration like "1m30s".
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}
	switch strings.ToLower(c.DefaultEngine) {
	case "openrouter", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("default engine %q (use openrouter|openai|gemini)", c.DefaultEngine))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %.2f out of [0,2]", c.Temperature))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive"))
	}
	if c.UpstreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("upstream timeout must not be negative"))
	}
	if c.Images.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("image max results must be positive"))
	}
	if c.Images.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("image rate must not be negative"))
	}
	if c.MaxBodyBytes <= 0 || c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("body and upload limits must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q (use text|json)", c.LogFormat))
	}
	return errors.Join(errs...)
}
