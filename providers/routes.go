package providers

import (
	"strings"
	"time"

	"github.com/bizdesk/realtime/src/hub"
	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// RegisterRoutes registers the WebSocket info route via Fiber.
// The actual WebSocket upgrade uses FastHTTPHandler, registered at the
// app level since Fiber v3 does not expose *fasthttp.RequestCtx.
func (p *Provider) RegisterRoutes(group fiber.Router) {
	group.Get("/ws/info", p.handleInfo)
}

func (p *Provider) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"sessions":  p.hub.SessionCount(),
		"rooms":     len(p.hub.Rooms()),
	})
}

// FastHTTPHandler returns a raw fasthttp handler for WebSocket
// upgrades. Register this on the fasthttp server at the "/ws" path.
func (p *Provider) FastHTTPHandler() fasthttp.RequestHandler {
	upgrader := websocket.FastHTTPUpgrader{
		ReadBufferSize:  p.cfg.ReadBufferSize,
		WriteBufferSize: p.cfg.WriteBufferSize,
	}
	writeTimeout := time.Duration(p.cfg.WriteTimeout) * time.Second
	pingEvery := time.Duration(p.cfg.PingInterval) * time.Second

	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}
		if p.cfg.MaxConnections > 0 && p.hub.SessionCount() >= p.cfg.MaxConnections {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"error":"too_many_connections","message":"connection limit reached"}`)
			return
		}

		sessionID := uuid.New().String()
		h := p.hub
		logger := p.logger

		err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			s := hub.NewSession(sessionID, &fasthttpConn{conn: conn, writeTimeout: writeTimeout}, h, p.cfg.SendQueueSize, pingEvery)
			h.Register(s)
			go s.WritePump()
			s.ReadPump()
		})
		if err != nil {
			logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn,
// applying a deadline to every write so a stalled peer cannot pin the
// write pump.
type fasthttpConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (f *fasthttpConn) WriteJSON(v any) error {
	if f.writeTimeout > 0 {
		if err := f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout)); err != nil {
			return err
		}
	}
	return f.conn.WriteJSON(v)
}

func (f *fasthttpConn) ReadJSON(v any) error { return f.conn.ReadJSON(v) }
func (f *fasthttpConn) Close() error         { return f.conn.Close() }
