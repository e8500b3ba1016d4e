package app

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/config"
	"paper-pal/api/internal/handle"
	"paper-pal/api/internal/images"
	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/llm/gemini"
	"paper-pal/api/internal/llm/openai"
	"paper-pal/api/internal/llm/openrouter"
	"paper-pal/api/internal/normalize"
	"paper-pal/api/internal/paper"
	"paper-pal/api/internal/prompt"
)

// App holds the wired components shared by the server, the CLI and the bot.
type App struct {
	Config     *config.Config
	Engines    *llm.Engines
	Normalizer *normalize.Normalizer
	Images     *images.Searcher
	Analyzer   *paper.Analyzer
}

func Build(cfg *config.Config, log *logrus.Logger) (*App, error) {
	prompts, err := prompt.Load(cfg.PromptDir)
	if err != nil {
		return nil, err
	}
	sampling := llm.Sampling{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	engines := llm.NewEngines(cfg.DefaultEngine,
		openrouter.New(openrouter.Options{
			BaseURL:  cfg.OpenRouter.BaseURL,
			Model:    cfg.OpenRouter.Model,
			Sampling: sampling,
			Referer:  cfg.Referer,
			Title:    cfg.Title,
			Timeout:  cfg.UpstreamTimeout,
		}, log),
		openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.Model, sampling),
		gemini.New(cfg.Gemini.Model, sampling),
	)
	n := normalize.New(engines, prompts, log)
	img := images.New(images.Options{
		BaseURL:       cfg.Images.BaseURL,
		MaxResults:    cfg.Images.MaxResults,
		RatePerSecond: cfg.Images.RatePerSecond,
		CacheTTL:      cfg.Images.CacheTTL,
	}, log)

	log.WithFields(logrus.Fields{
		"default_engine": engines.Default(),
		"engines":        engines.Names(),
		"prompt_dir":     cfg.PromptDir,
	}).Info("components ready")

	return &App{
		Config:     cfg,
		Engines:    engines,
		Normalizer: n,
		Images:     img,
		Analyzer:   paper.NewAnalyzer(n, img, log),
	}, nil
}

// Mux returns the HTTP API routes.
func (a *App) Mux(log *logrus.Logger) *http.ServeMux {
	h := handle.New(a.Normalizer, a.Analyzer, a.Images, handle.Options{
		RequestTimeout: a.Config.RequestTimeout,
		MaxBodyBytes:   a.Config.MaxBodyBytes,
		MaxUploadBytes: a.Config.MaxUploadBytes,
	}, log)
	mux := http.NewServeMux()
	h.Routes(mux)
	return mux
}
