package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/leapfxp/gamenight/internal/config"
	"github.com/leapfxp/gamenight/internal/credentials"
	"github.com/leapfxp/gamenight/internal/database"
	"github.com/leapfxp/gamenight/internal/evasion"
	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/handler/health"
	"github.com/leapfxp/gamenight/internal/migrations"
	"github.com/leapfxp/gamenight/internal/oracle"
	"github.com/leapfxp/gamenight/internal/quiz"
	"github.com/leapfxp/gamenight/internal/server"
	"github.com/leapfxp/gamenight/internal/session"
	"github.com/leapfxp/gamenight/internal/storyhunt"
	"github.com/leapfxp/gamenight/internal/teams"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	status, err := gamenight.ParseStatus(cfg.GamesOpen)
	if err != nil {
		return fmt.Errorf("parsing GAMES_OPEN: %w", err)
	}

	// --- Registry ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to registry db: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db, logger)
	if err != nil {
		return err
	}
	logger.Info("connected to registry db", "path", cfg.DBPath, "migrations_applied", len(applied))

	creds, err := credentials.NewStore(cfg.Teams)
	if err != nil {
		return fmt.Errorf("loading team credentials: %w", err)
	}

	broker := server.NewBroker()
	reg, err := teams.New(ctx, db, creds.Teams(), broker)
	if err != nil {
		return fmt.Errorf("seeding teams: %w", err)
	}

	// A new token on every start invalidates every earlier login.
	sess := session.Issue()

	// --- Games ---
	if cfg.GeminiAPIKey == "" && status.Open(gamenight.GameInterroRoom) {
		logger.Warn("GEMINI_API_KEY is empty; the oracle will report a malfunction on every prompt")
	}
	gen := oracle.NewGemini(oracle.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiURL,
		HTTPClient: &http.Client{},
	})
	oracleEngine, err := oracle.NewEngine(gen, reg, logger, oracle.Config{
		Secrets:    cfg.OracleSecrets,
		MaxGuesses: cfg.OracleMaxGuesses,
		Password:   cfg.OraclePassword,
		Timeout:    cfg.LLMTimeout,
	})
	if err != nil {
		return fmt.Errorf("configuring oracle: %w", err)
	}

	catalog, err := quiz.LoadCatalog(cfg.QuizCatalog)
	if err != nil {
		return err
	}

	feed, err := evasion.LoadFeed(cfg.PixelFogDir)
	if err != nil {
		return err
	}
	classifier := evasion.NewHTTPClassifier(cfg.ClassifierURL, &http.Client{})

	checks := map[string]health.Checker{
		"registry": health.DB(db),
	}
	if status.Open(gamenight.GamePixelFog) {
		checks["pixelfog"] = health.CheckerFunc(func(context.Context) error {
			if feed.Len() == 0 {
				return errors.New("no challenge images in " + cfg.PixelFogDir)
			}
			return nil
		})
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:         logger,
		Session:        sess,
		Credentials:    creds,
		Teams:          reg,
		Status:         status,
		Broker:         broker,
		Oracle:         oracleEngine,
		Quiz:           quiz.NewEngine(catalog, reg, logger),
		Evasion:        evasion.NewEngine(classifier, logger, cfg.ClassifierTimeout),
		PixelFog:       feed,
		StoryHunt:      storyhunt.NewEngine(cfg.UploadDir, cfg.StoryDir, server.UploadsPrefix, reg, logger),
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		HealthChecks:   checks,
	})

	logger.Info("game night ready",
		"teams", creds.Teams(),
		"open_games", status.OpenGames(),
		"oracle_stages", oracleEngine.Stages(),
		"quiz_images", len(catalog),
		"pixelfog_images", feed.Len(),
	)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
