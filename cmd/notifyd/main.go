package main

import (
	"os"

	"github.com/bizdesk/realtime/config"
	"github.com/bizdesk/realtime/providers"
	"github.com/bizdesk/realtime/src/auth"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg := config.FromEnv()

	var verifier auth.Verifier
	if secret := os.Getenv("NOTIFY_JWT_SECRET"); secret != "" {
		v, err := auth.NewJWTVerifier(secret)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid NOTIFY_JWT_SECRET")
		}
		verifier = v
	} else {
		logger.Warn().Msg("NOTIFY_JWT_SECRET not set, subscribe frames will be ignored")
	}

	p := providers.New(cfg, verifier, logger)
	p.Start()
	defer p.Stop()

	app := fiber.New()
	p.RegisterRoutes(app.Group("/api"))

	appHandler := app.Handler()
	wsHandler := p.FastHTTPHandler()
	handler := func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/ws" {
			wsHandler(ctx)
			return
		}
		appHandler(ctx)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := fasthttp.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
