package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/example/realmforge/internal/api"
	"github.com/example/realmforge/internal/config"
	"github.com/example/realmforge/internal/game"
	"github.com/example/realmforge/internal/genclient"
)

func main() {
	// .env is a development convenience; absence is fine
	_ = godotenv.Load()

	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	retry := genclient.DefaultRetryPolicy()
	retry.MaxRetries = cfg.AIMaxRetries
	retry.BaseDelay = cfg.AIBaseRetryDelay
	retry.MaxJitter = cfg.AIMaxRetryJitter

	client, err := genclient.New(context.Background(), genclient.Config{
		APIKey: cfg.GeminiAPIKey,
		Models: genclient.Models{
			Text:   cfg.TextModel,
			Image:  cfg.ImageModel,
			Speech: cfg.SpeechModel,
			Voice:  cfg.VoiceName,
		},
		Backend:     cfg.TextBackend,
		BaseURL:     cfg.OpenAIBaseURL,
		HTTPTimeout: cfg.AITimeout,
		Retry:       &retry,
		Logger:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generation client")
	}

	engine := game.NewEngine(client, log)
	srv := api.New(engine, log)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("backend", cfg.TextBackend).Msg("server listening")
	if err := http.ListenAndServe(addr, cors(cfg.CORSOrigin, srv.Handler())); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// cors keeps the browser UI happy during local dev.
func cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
