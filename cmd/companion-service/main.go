package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/companionlabs/companion/internal/api"
	"github.com/companionlabs/companion/internal/auth"
	"github.com/companionlabs/companion/internal/chat"
	"github.com/companionlabs/companion/internal/config"
	"github.com/companionlabs/companion/internal/health"
	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/memory"
	"github.com/companionlabs/companion/internal/platform/factory"
	"github.com/companionlabs/companion/internal/platform/logger"
	"github.com/companionlabs/companion/internal/profile"
	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/summary"
	"github.com/companionlabs/companion/internal/vision"
)

func main() {
	// Optional build-target flag override (local | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud)")
	flag.Parse()

	log := logger.New("companion-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *buildTarget != "" {
		cfg.BuildTarget = *buildTarget
		cfg.DBDriver = "auto"
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid build-target override")
		}
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Companion service starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// -------- Storage layer -----------------
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}

	// -------- Model clients -----------------
	completer := llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL)
	describer := vision.NewGemini(cfg.VisionAPIKey, cfg.VisionModel, cfg.VisionBaseURL)

	// -------- Core pipeline -----------------
	profiles := profile.NewAssembler(st, log)
	orch := chat.NewOrchestrator(
		st,
		completer,
		memory.NewExtractor(completer, st.Facts(), cfg.ExtractModel, log),
		profiles,
		summary.NewSummarizer(completer, st, cfg.ExtractModel, log),
		summary.NewRandomPolicy(nil),
		chat.NewSegmenter(nil),
		cfg.ChatModel,
		log,
	)

	// -------- Health monitor ----------------
	storeChecker := store.NewHealthChecker(st, log, 2*time.Second)
	serviceChecker := health.NewServiceHealthChecker(log, storeChecker)
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	go storeChecker.Start(ctx, interval)
	go serviceChecker.Start(ctx, interval)

	// -------- Router & Server ---------------
	router := api.NewRouter(api.Deps{
		Store:      st,
		Orch:       orch,
		Profiles:   profiles,
		Describer:  describer,
		Authorizer: auth.NewLocalDevAuthorizer(),
		Health:     serviceChecker,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
