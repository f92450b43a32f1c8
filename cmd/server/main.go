// Command server runs the collaborative whiteboard coordination server.
//
// It loads configuration, initializes logging, serves the whiteboard line
// protocol over TCP and WebSocket plus a small HTTP API, and handles
// operating system interrupt signals for a graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aadah/Multiuser-Whiteboard/internal/config"
	"github.com/aadah/Multiuser-Whiteboard/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	logger.Info().
		Str("tcp_addr", cfg.TCPAddr).
		Str("http_addr", cfg.HTTPAddr).
		Str("board", cfg.DefaultBoard.Name).
		Int("width", cfg.DefaultBoard.Width).
		Int("height", cfg.DefaultBoard.Height).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)

	ln, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.TCPAddr).Msg("tcp listen failed")
	}
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("whiteboard protocol listening")
		if err := srv.ServeTCP(ln); err != nil {
			logger.Fatal().Err(err).Msg("tcp server failed")
		}
	}()

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout))
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown incomplete")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown incomplete")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	if cfg.LogFormat == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger, nil
}
