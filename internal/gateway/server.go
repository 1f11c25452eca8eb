package gateway

import (
	"encoding/json"
	"log"

	"anitrack-bot/internal/config"
	applogger "anitrack-bot/internal/pkg/logger"
	"anitrack-bot/internal/session"
	"anitrack-bot/internal/transport"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Server is the HTTP edge for platform adapters: they POST inbound events and
// hold a websocket open for outbound renders.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	hub      *Hub
	pubSub   *gochannel.GoChannel
	registry *session.Registry
	logger   applogger.ILogger
	validate *validator.Validate
}

func New(cfg *config.Config, hub *Hub, pubSub *gochannel.GoChannel, registry *session.Registry, logger applogger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{
		app:      app,
		cfg:      cfg,
		hub:      hub,
		pubSub:   pubSub,
		registry: registry,
		logger:   logger,
		validate: validator.New(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Gateway is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.health)

	v1 := s.app.Group("/v1")
	v1.Post("/events", JwtMiddleware(s.cfg.App.JWTSecret), s.postEvent)

	v1.Use("/stream", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		// Browsers cannot set headers on the upgrade request; the token rides
		// the query string instead.
		userId, ok := parseToken(c.Query("token"), s.cfg.App.JWTSecret)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}
		c.Locals("user_id", userId)
		return c.Next()
	})
	v1.Get("/stream", websocket.New(func(conn *websocket.Conn) {
		ServeClient(s.hub, conn, conn.Locals("user_id").(string))
	}))
}

// postEvent accepts one inbound platform event and queues it for the
// dispatcher. The authenticated user always wins over whatever user id the
// payload claims.
func (s *Server) postEvent(c *fiber.Ctx) error {
	var ev transport.Event
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "malformed event"})
	}
	ev.UserId = c.Locals("user_id").(string)
	if ev.Id == "" {
		ev.Id = uuid.NewString()
	}
	if err := s.validate.Struct(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid event: " + err.Error()})
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to encode event"})
	}
	if err := s.pubSub.Publish(s.cfg.App.EventTopic, message.NewMessage(ev.Id, payload)); err != nil {
		s.logger.Error("gateway", "failed to publish event", map[string]interface{}{
			"event_id": ev.Id,
			"error":    err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to queue event"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": ev.Id})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "ok",
		"live_sessions": s.registry.Len(),
	})
}
