package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edsim/edsim/internal/caselib"
	"github.com/edsim/edsim/internal/catalog"
	"github.com/edsim/edsim/internal/config"
	"github.com/edsim/edsim/internal/debrief"
	"github.com/edsim/edsim/internal/game"
	"github.com/edsim/edsim/internal/platform/db"
	"github.com/edsim/edsim/internal/platform/middleware"
	"github.com/edsim/edsim/internal/results"
	"github.com/edsim/edsim/internal/scoring"
	"github.com/edsim/edsim/internal/sim"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "edsim-server",
		Short: "Emergency department training simulator API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(contentCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the simulator API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func contentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect game content",
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the content directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dir = cfg.ContentDir
			}
			return validateContent(dir)
		},
	}
	validateCmd.Flags().String("dir", "", "Content directory (defaults to CONTENT_DIR)")
	cmd.AddCommand(validateCmd)

	return cmd
}

// validateContent loads the full content directory and reports every
// problem a case author could have introduced.
func validateContent(dir string) error {
	cat, err := catalog.Load(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Catalog OK: %d medications, %d lab tests, %d kits, %d bedside, %d radiology, %d exams, %d prescriptions.\n",
		len(cat.Medications), len(cat.LabTests), len(cat.LabKits), len(cat.BedsideTests),
		len(cat.RadiologyTests), len(cat.PhysicalExams), len(cat.Prescriptions))

	lib, warnings, err := caselib.Load(dir)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}

	// Solution action ids must resolve to something orderable, or
	// scoring will carry entries the player can never perform.
	unknown := 0
	for i := 0; i < lib.Len(); i++ {
		c, _ := lib.ByIndex(i)
		for _, req := range append(append([]caselib.Requirement{}, c.ActionsCritical...), c.ActionsRecommended...) {
			for _, id := range req.Alternatives {
				if cat.Classify(id) == catalog.CategoryUnknown {
					fmt.Printf("warning: case %d (%s): solution action %q matches nothing in the catalog\n", c.Index, c.Name, id)
					unknown++
				}
			}
		}
		for _, id := range c.ActionsContraindicated {
			if cat.Classify(id) == catalog.CategoryUnknown {
				fmt.Printf("warning: case %d (%s): contraindicated action %q matches nothing in the catalog\n", c.Index, c.Name, id)
				unknown++
			}
		}
	}

	fmt.Printf("Cases OK: %d loaded, %d warnings, %d unresolved solution actions.\n",
		lib.Len(), len(warnings), unknown)
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the result store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Println("Migration applied successfully.")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Content
	cat, err := catalog.Load(cfg.ContentDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ContentDir).Msg("failed to load catalog")
	}
	lib, warnings, err := caselib.Load(cfg.ContentDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ContentDir).Msg("failed to load cases")
	}
	for _, w := range warnings {
		logger.Warn().Str("dir", cfg.ContentDir).Msg(w)
	}
	logger.Info().Int("cases", lib.Len()).Int("medications", len(cat.Medications)).
		Int("lab_tests", len(cat.LabTests)).Msg("content loaded")

	// Result store: Postgres when configured, in-memory otherwise.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := results.NewMemStore()
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		store = results.NewPGStore(pool)
		logger.Info().Msg("connected to database")
	} else {
		logger.Info().Msg("no DATABASE_URL set, results held in memory")
	}

	// Core services
	reg := sim.NewRegistry(cat)
	sims := sim.NewService(reg, cat, logger)
	engine := sim.NewEngine(reg, cat, cfg.TickInterval(), logger)
	engine.Start(ctx)

	eval := scoring.NewEvaluator(cat)
	renderer := debrief.NewRenderer(cfg.DebriefFont)
	gameSvc := game.NewService(lib, reg, sims, eval, store, nil, cat, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// API groups
	api := e.Group("/api")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	game.NewHandler(gameSvc, store, renderer).RegisterRoutes(api)
	sim.NewHandler(sims).RegisterRoutes(api.Group("/patient"))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
