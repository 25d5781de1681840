package providers

import (
	"github.com/bizdesk/realtime/config"
	"github.com/bizdesk/realtime/src/auth"
	"github.com/bizdesk/realtime/src/bridge"
	"github.com/bizdesk/realtime/src/hub"
	"github.com/bizdesk/realtime/src/registry"
	"github.com/bizdesk/realtime/src/rooms"
	"github.com/bizdesk/realtime/src/router"
	"github.com/bizdesk/realtime/src/service"
	"github.com/rs/zerolog"
)

// Provider assembles and owns the notification subsystem: registry,
// room manager, router, hub, producer service, and the optional Redis
// bridge. Its lifetime is tied to server startup and shutdown; tests
// build their own instances in isolation.
type Provider struct {
	cfg     *config.Config
	hub     *hub.Hub
	router  *router.Router
	service *service.Service
	bridge  bridge.Bridge
	logger  zerolog.Logger
}

// New wires the subsystem together. verifier may be nil, in which case
// sessions stay anonymous and only room and broadcast delivery work.
func New(cfg *config.Config, verifier auth.Verifier, logger zerolog.Logger) *Provider {
	reg := registry.New()
	rm := rooms.New()
	rt := router.New(reg, rm, logger)
	h := hub.New(reg, rm, rt, verifier, logger)

	return &Provider{
		cfg:     cfg,
		hub:     h,
		router:  rt,
		service: service.New(h, rt, logger),
		logger:  logger,
	}
}

// Start launches the hub event loop and attempts the Redis bridge.
// An unreachable Redis is not fatal; the hub runs standalone.
func (p *Provider) Start() {
	go p.hub.Run()
	p.initBridge()
	p.logger.Info().Msg("notification subsystem started")
}

func (p *Provider) initBridge() {
	cfg := bridge.RedisConfigFromEnv()
	rb := bridge.NewRedisBridge(cfg, p.router, p.logger)

	if err := rb.Start(); err != nil {
		p.logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
		return
	}

	p.bridge = rb
	p.router.SetBridge(rb)
	p.logger.Info().Str("redis_addr", cfg.Addr).Msg("redis bridge connected")
}

// Stop shuts down the bridge and the hub event loop.
func (p *Provider) Stop() {
	if p.bridge != nil {
		if err := p.bridge.Stop(); err != nil {
			p.logger.Error().Err(err).Msg("bridge stop error")
		}
		p.bridge = nil
	}
	p.hub.Stop()
}

// Service exposes the producer-facing API.
func (p *Provider) Service() *service.Service { return p.service }

// Hub exposes the session lifecycle handler.
func (p *Provider) Hub() *hub.Hub { return p.hub }
