package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/app"
	"paper-pal/api/internal/config"
	"paper-pal/api/internal/httpserver"
	"paper-pal/api/internal/logging"
	"paper-pal/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if cfg.Telegram.Token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is empty")
	}
	if cfg.Telegram.Credential == "" {
		log.Fatal("BOT_CREDENTIAL is empty: the bot needs a server-side LLM credential")
	}

	a, err := app.Build(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("build")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.WithError(err).Fatal("telegram")
	}
	bot.Debug = false
	log.WithField("bot", bot.Self.UserName).Info("authorized")

	r := &telegram.Router{
		Bot:        bot,
		Analyzer:   a.Analyzer,
		Log:        log,
		Credential: cfg.Telegram.Credential,
		LLMName:    cfg.Telegram.LLMName,
		MaxFile:    cfg.MaxUploadBytes,
		Timeout:    cfg.RequestTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// healthz for the platform; polling does not need it
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	go func() {
		if err := httpserver.New(":"+cfg.Port, mux, log).Run(ctx); err != nil {
			log.WithError(err).Error("health server")
		}
	}()

	telegram.RunPolling(ctx, bot, log, r.HandleUpdate)
}
