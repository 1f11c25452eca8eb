package bootstrap

import (
	"time"

	"anitrack-bot/internal/config"
	"anitrack-bot/internal/dispatcher"
	"anitrack-bot/internal/gateway"
	"anitrack-bot/internal/pkg/logger"
	"anitrack-bot/internal/repository/implementation"
	"anitrack-bot/internal/session"
	"anitrack-bot/pkg/anilist"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	Logger   logger.ILogger
	Registry *session.Registry
	Hub      *gateway.Hub

	// Background services (exposed for main.go to run)
	Dispatcher *dispatcher.Dispatcher
	Server     *gateway.Server
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	store := implementation.NewWatchlistRepository(db)

	metadata := anilist.NewClient(
		cfg.AniList.APIURL,
		cfg.AniList.MinInterval,
		cfg.AniList.CacheTTL,
		cfg.AniList.HTTPTimeout,
		sysLogger,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Outbound transport
	hub := gateway.NewHub(sysLogger)
	streamTransport := gateway.NewStreamTransport(hub)

	// 4. Session engine
	env := session.Env{
		Store:     store,
		Metadata:  metadata,
		Transport: streamTransport,
		Log:       sysLogger,
		Now:       time.Now,
		Config:    cfg.Session,
	}
	registry := session.NewRegistry(env)

	// 5. Inbound routing
	disp := dispatcher.NewDispatcher(pubSub, cfg.App.EventTopic, registry, env)

	// 6. HTTP edge
	server := gateway.New(cfg, hub, pubSub, registry, sysLogger)

	return &Container{
		Logger:     sysLogger,
		Registry:   registry,
		Hub:        hub,
		Dispatcher: disp,
		Server:     server,
	}
}
