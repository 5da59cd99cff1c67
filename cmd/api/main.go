package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/api"
	"github.com/fd-guo/ChatGeoPT/internal/assistant"
	"github.com/fd-guo/ChatGeoPT/internal/claimsink"
	"github.com/fd-guo/ChatGeoPT/internal/config"
	"github.com/fd-guo/ChatGeoPT/internal/geocode"
	"github.com/fd-guo/ChatGeoPT/internal/observability"
	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/refdata"
	"github.com/fd-guo/ChatGeoPT/internal/render"
	"github.com/fd-guo/ChatGeoPT/internal/store"
)

func main() {
	// ── Config ────────────────────────────────────────────────────────────────
	// Loaded before the logger so LOG_LEVEL and LOG_FORMAT apply from the
	// first line. Load returns the parsed Config alongside any validation
	// error, so even that error is logged in the configured format.
	cfg, err := config.Load()

	opts := observability.LoggerOptions{Env: "development"}
	if cfg != nil {
		opts = observability.LoggerOptions{Env: cfg.Env, Level: cfg.LogLevel, Format: cfg.LogFormat}
	}
	logger := observability.NewLogger(os.Stdout, opts)
	slog.SetDefault(logger)

	if err != nil {
		logger.Error("fatal", "error", fmt.Errorf("config: %w", err))
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"env", cfg.Env, "port", cfg.Port, "llm_provider", cfg.LLMProvider, "geocoder", cfg.Geocoder)

	// ── Metrics ───────────────────────────────────────────────────────────────
	metrics := observability.NewMetrics()

	// ── Reference data ────────────────────────────────────────────────────────
	// Loaded once and shared read-only by every request.
	data, err := refdata.Load(refdata.Options{
		EventsPath:     cfg.EventsPath,
		RoadPointsPath: cfg.RoadPointsPath,
		TripPointsPath: cfg.TripPointsPath,
		RiskResolution: cfg.RiskResolution,
		RoadResolution: cfg.RoadResolution,
	}, logger)
	if err != nil {
		return fmt.Errorf("reference data: %w", err)
	}
	if missing := data.Missing(); len(missing) > 0 {
		logger.Warn("reference data incomplete", "missing", missing)
	}
	if data.Events != nil && data.Road != nil {
		metrics.ReferenceDataLoaded.Set(1)
	}

	// ── Chat model ────────────────────────────────────────────────────────────
	var completer ai.Completer
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		completer = ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout)
		logger.Info("ai: using Anthropic", "model", cfg.AnthropicModel)
	default:
		completer = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMTimeout)
		logger.Info("ai: using OpenAI-compatible API", "model", cfg.OpenAIModel, "base_url", cfg.OpenAIBaseURL)
	}
	extractor := ai.NewExtractor(completer, logger)

	// ── Geocoder ──────────────────────────────────────────────────────────────
	var geocoder geocode.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderMapbox:
		geocoder = geocode.NewMapboxClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	default:
		geocoder = geocode.NewNominatimClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger)
	}
	if cfg.GeocodeCacheSize > 0 {
		geocoder = geocode.NewCachedGeocoder(geocoder, cfg.GeocodeCacheSize, metrics)
	}

	// ── Map data ──────────────────────────────────────────────────────────────
	ways := overpass.NewClient(cfg.OverpassURL, cfg.NominatimUserAgent, cfg.OverpassTimeout, metrics, logger)

	// ── Store (way summary artifact) ──────────────────────────────────────────
	st := store.New(cfg.WaySummaryPath)

	// ── Claims sink ───────────────────────────────────────────────────────────
	// Optional: labelled claims go to Kafka only when brokers are configured.
	var claims claimsink.Publisher = claimsink.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		claims = claimsink.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaClaimsTopic, metrics, logger)
		logger.Info("claims: publishing to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaClaimsTopic)
	}
	defer func() {
		if err := claims.Close(); err != nil {
			logger.Error("claims: close publisher", "error", err)
		}
	}()

	// ── Assistant ─────────────────────────────────────────────────────────────
	svc := assistant.New(assistant.Deps{
		Extractor:      extractor,
		Geocoder:       geocoder,
		Ways:           ways,
		Summary:        st,
		Data:           data,
		Claims:         claims,
		Clock:          clockwork.NewRealClock(),
		Metrics:        metrics,
		Logger:         logger,
		RiskResolution: cfg.RiskResolution,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	pages, err := render.NewPages(render.Basemap{
		URL:         cfg.BasemapURL,
		Attribution: cfg.BasemapAttribution,
	}, api.ViewInfos())
	if err != nil {
		return err
	}

	handler := api.NewServer(svc, pages, st, svc, api.Config{
		Env:            cfg.Env,
		RequestTimeout: cfg.LLMTimeout + cfg.GeocodeTimeout + cfg.OverpassTimeout,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + cfg.GeocodeTimeout + cfg.OverpassTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
