// Package main is the entry point for PancyMod.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/internal/rpc"
	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/archive"
	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(logger.Options{
		Dir:             cfg.LogDir,
		ErrorWebhookURL: cfg.ErrorWebhook,
		LogsWebhookURL:  cfg.LogsWebhook,
	})
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando PancyMod %s (%s)...", config.Version, cfg.Environment), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		cancel()
		if discordClient != nil {
			if err := discordClient.Stop(); err != nil {
				logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
			}
		}
	})

	// Punishment store
	db, err := database.Init(cfg.DatabasePath)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo la base de datos %s: %v", cfg.DatabasePath, err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la base de datos: %v", err), "Main")
		}
	}()

	// Moderation log archive
	var modArchive *archive.Archive
	if cfg.ArchiveEnabled() {
		modArchive = archive.New(cfg.MongoDBURL, cfg.DBName)
		if err := modArchive.Connect(ctx); err != nil {
			// Connect keeps retrying in the background.
			logger.Warn(fmt.Sprintf("Archivo de modlog no disponible: %v", err), "Main")
		}
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer dcancel()
			_ = modArchive.Disconnect(dctx)
		}()
	} else {
		logger.Info("Archivo de modlog deshabilitado (mongodbUrl vacío)", "Main")
	}

	// Initialize MQTT
	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
		cfg.MQTTTopic,
	)
	defer mqttClient.Destroy()
	rpc.Register(mqttClient, db.Punishments())

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	enforcer := discord.NewEnforcer(discordClient.Session)

	// Punishment engine
	clk := clock.Real()
	policies := database.NewPolicyCache(db.Policies(), clk, database.DefaultPolicyCacheOptions())
	emitter := modlog.NewEmitter(policies, enforcer, clk, mqtt.NewPunishmentSink(mqttClient, mqttClient.Base()))
	if modArchive != nil {
		emitter.AddSink(modArchive)
	}
	engine := moderation.NewEngine(db.Punishments(), policies, enforcer, clk, moderation.Options{
		Log:    emitter,
		Guilds: enforcer,
	})
	sweeper := moderation.NewSweeper(engine, db.Punishments(), clk, moderation.SweeperOptions{
		Interval:  cfg.SweepInterval,
		Lookahead: cfg.SweepLookahead,
	})

	svc := &services.Services{
		Clock:       clk,
		Database:    db,
		Punishments: db.Punishments(),
		Policies:    policies,
		Engine:      engine,
		Sweeper:     sweeper,
		Enforcer:    enforcer,
		Archive:     modArchive,
		MQTT:        mqttClient,
	}

	// Initialize web server
	webServer, err := web.Init(web.Options{
		WebhookURL:   cfg.LogsWebhook,
		AllowedHosts: cfg.AllowedHosts,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error configurando el servidor web: %v", err), "Main")
		os.Exit(1)
	}
	api := &web.API{
		Punishments: db.Punishments(),
		Remover:     engine,
		Token:       cfg.APIToken,
		DBStatus:    db.GetStatus,
		BotReady:    discordClient.IsReady,
		GuildCount:  discordClient.GuildCount,
	}
	if modArchive != nil {
		api.Archive = modArchive
	}
	web.SetupAPIRoutes(webServer, api)
	webServer.StartAsync(cfg.Port)

	// Register commands and events
	commands.RegisterAll(discordClient, svc)
	events.RegisterAll(discordClient, svc)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}

	sweeper.Start(ctx)

	logger.Success("PancyMod iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case <-ctx.Done():
	}

	logger.System("Apagando PancyMod...", "Main")

	sweeper.Stop()

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := webServer.Shutdown(sctx); err != nil {
		logger.Warn(fmt.Sprintf("Error apagando el servidor web: %v", err), "Main")
	}
	if err := emitter.Close(sctx); err != nil {
		logger.Warn(fmt.Sprintf("Registros de moderación sin entregar: %v", err), "Main")
	}
	if err := discordClient.Stop(); err != nil {
		logger.Warn(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
