package main

//	@title						StudyHall API
//	@version					0.1.0
//	@description				Tutoring platform API: scheduling, reports, chat, and materials.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/studyhallhq/studyhall/api/swagger"
	"github.com/studyhallhq/studyhall/internal/appearance"
	"github.com/studyhallhq/studyhall/internal/audit"
	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/chat"
	"github.com/studyhallhq/studyhall/internal/config"
	"github.com/studyhallhq/studyhall/internal/dashboard"
	"github.com/studyhallhq/studyhall/internal/event"
	"github.com/studyhallhq/studyhall/internal/library"
	"github.com/studyhallhq/studyhall/internal/notify"
	"github.com/studyhallhq/studyhall/internal/overview"
	"github.com/studyhallhq/studyhall/internal/registry"
	"github.com/studyhallhq/studyhall/internal/reports"
	"github.com/studyhallhq/studyhall/internal/roster"
	"github.com/studyhallhq/studyhall/internal/schedule"
	"github.com/studyhallhq/studyhall/internal/seed"
	"github.com/studyhallhq/studyhall/internal/server"
	"github.com/studyhallhq/studyhall/internal/services"
	"github.com/studyhallhq/studyhall/internal/settings"
	"github.com/studyhallhq/studyhall/internal/store"
	"github.com/studyhallhq/studyhall/internal/version"
	"github.com/studyhallhq/studyhall/internal/ws"
	"github.com/studyhallhq/studyhall/pkg/module"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "backup":
			runBackup(os.Args[2:])
			return
		case "restore":
			runRestore(os.Args[2:])
			return
		case "version":
			fmt.Println(version.Info())
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("StudyHall server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Open database
	dbPath := viperCfg.GetString("database.dsn")
	if dbPath == "" {
		dbPath = "studyhall.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger.Named("registry"))

	// Register all feature modules (compile-time composition)
	rosterMod := roster.New()
	scheduleMod := schedule.New()
	reportsMod := reports.New()
	auditMod := audit.New()
	chatMod := chat.New()
	libraryMod := library.New()
	appearanceMod := appearance.New()
	notifyMod := notify.New()

	modules := []module.Module{
		rosterMod,
		scheduleMod,
		reportsMod,
		auditMod,
		chatMod,
		libraryMod,
		appearanceMod,
		notifyMod,
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}

	// Validate dependency graph and API versions
	if err := reg.Validate(); err != nil {
		logger.Fatal("module validation failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.InitAll(ctx, func(name string) module.Dependencies {
		return module.Dependencies{
			Config:  cfg.Sub("modules." + name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Modules: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}

	// Create auth service
	authStore, err := auth.NewUserStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize auth store", zap.Error(err))
	}

	jwtSecret := viperCfg.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		// Generate an ephemeral secret -- tokens won't survive restarts.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logger.Fatal("failed to generate JWT secret", zap.Error(err))
		}
		jwtSecret = hex.EncodeToString(b)
		logger.Info("using auto-generated JWT secret (normal for first run; set auth.jwt_secret in config to persist sessions across restarts)",
			zap.String("component", "auth"),
		)
	}

	accessTTL := viperCfg.GetDuration("auth.access_token_ttl")
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := viperCfg.GetDuration("auth.refresh_token_ttl")
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	tokens := auth.NewTokenService([]byte(jwtSecret), accessTTL, refreshTTL)
	authService := auth.NewService(authStore, tokens, logger.Named("auth"))
	authHandler := auth.NewHandler(authService, logger.Named("auth"))
	logger.Info("auth service initialized",
		zap.String("component", "auth"),
		zap.Duration("access_token_ttl", accessTTL),
		zap.Duration("refresh_token_ttl", refreshTTL),
	)

	// Cross-module wiring. Adapters live in the composition root so the
	// modules stay decoupled from each other.
	rosterStore := rosterMod.Store()
	scheduleMod.SetGuardianResolver(rosterStore)
	reportsMod.SetGuardianResolver(rosterStore)
	reportsMod.SetNameResolver(&profileNameAdapter{roster: rosterStore})
	reportsMod.SetLessonCounter(scheduleMod.Store())
	notifyMod.SetRecipientResolver(&accountRecipientAdapter{users: authStore})
	notifyMod.SetGuardianResolver(rosterStore)

	// Settings service and palette storage
	settingsRepo, err := services.NewSQLiteSettingsRepository(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize settings repository", zap.Error(err))
	}
	paletteStore, err := settings.NewPaletteStore(ctx, settingsRepo)
	if err != nil {
		logger.Fatal("failed to initialize palette store", zap.Error(err))
	}
	settingsHandler := settings.NewHandler(settingsRepo, paletteStore, logger.Named("settings"))
	appearanceMod.SetPaletteProvider(paletteStore)

	// Start modules (event subscriptions, background tickers)
	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}

	// Demo data for evaluation installs
	demoMode := viperCfg.GetBool("server.demo_mode")
	if demoMode {
		err := seed.Demo(ctx, logger.Named("seed"), seed.Stores{
			Users:    authStore,
			Roster:   rosterStore,
			Schedule: scheduleMod.Store(),
			Reports:  reportsMod.Store(),
			Chat:     chatMod.Store(),
			Library:  libraryMod.Store(),
		})
		if err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	// WebSocket handler for live updates
	wsHandler := ws.NewHandler(tokens, bus, logger.Named("ws"))

	// Cross-module overview feed
	overviewHandler := overview.New(logger.Named("overview"),
		scheduleMod.Store(), chatMod.Store(), reportsMod.Store(),
		libraryMod.Store(), authStore, rosterStore)

	// Dashboard shell, themed server-side from the appearance module
	dashboardHandler, err := dashboard.New(logger.Named("dashboard"), appearanceMod)
	if err != nil {
		logger.Fatal("failed to initialize dashboard", zap.Error(err))
	}

	// Panic reporting (disabled unless a token is configured)
	var reporter server.PanicReporter
	if token := viperCfg.GetString("rollbar.token"); token != "" {
		rb := server.NewRollbarReporter(token, viperCfg.GetString("rollbar.environment"), version.Short())
		defer rb.Close()
		reporter = rb
		logger.Info("rollbar panic reporting enabled", zap.String("component", "server"))
	}

	// Create and start HTTP server
	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	devMode := viperCfg.GetBool("server.dev_mode")
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	extraRoutes := []server.SimpleRouteRegistrar{settingsHandler, wsHandler, overviewHandler, appearanceMod}
	srv := server.New(addr, reg, logger, readyCheck, authHandler, dashboardHandler, reporter, devMode, demoMode, extraRoutes...)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("StudyHall server ready", zap.String("addr", addr))

	// Print human-readable banner for users watching docker logs.
	port := viperCfg.GetString("server.port")
	if port == "" {
		port = "8080"
	}
	fmt.Fprintf(os.Stderr, "\n  StudyHall %s is ready!\n  Open http://localhost:%s in your browser.\n\n", version.Short(), port)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	wsHandler.Close()
	reg.StopAll(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("StudyHall server stopped")
}

// profileNameAdapter resolves display names from roster profiles.
type profileNameAdapter struct {
	roster *roster.RosterStore
}

func (a *profileNameAdapter) DisplayName(ctx context.Context, userID string) (string, error) {
	p, err := a.roster.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	return p.DisplayName, nil
}

// accountRecipientAdapter resolves notification recipients from auth accounts.
type accountRecipientAdapter struct {
	users *auth.UserStore
}

func (a *accountRecipientAdapter) Recipient(ctx context.Context, userID string) (*notify.Recipient, error) {
	u, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &notify.Recipient{UserID: u.ID, Name: u.DisplayName, Email: u.Email}, nil
}
