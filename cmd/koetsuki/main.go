package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	audioimpl "github.com/foxseedlab/koetsuki/external/audio"
	configloader "github.com/foxseedlab/koetsuki/external/config"
	"github.com/foxseedlab/koetsuki/external/discord"
	metricsimpl "github.com/foxseedlab/koetsuki/external/metrics"
	repositoryimpl "github.com/foxseedlab/koetsuki/external/repository"
	"github.com/foxseedlab/koetsuki/external/terminal"
	transportimpl "github.com/foxseedlab/koetsuki/external/transport"
	webhookimpl "github.com/foxseedlab/koetsuki/external/webhook"
	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/foxseedlab/koetsuki/internal/config"
	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/foxseedlab/koetsuki/internal/session"
	"github.com/samber/do/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg := mustLoadConfig()
	closeLog := initLogger(cfg)
	defer closeLog()
	slog.Info("startup: configuration loaded", "env", cfg.Env, "stt_backend", cfg.STTBackend, "audio_source", cfg.AudioSource)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	run(cfg, injector)
	slog.Info("shutdown complete")
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) func() {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     14,
		}
		w = lj
		closeFn = func() { _ = lj.Close() }
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})))
	return closeFn
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	metricsimpl.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	transportimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func run(cfg *config.Config, injector do.Injector) {
	ctrl, err := do.Invoke[*session.Controller](injector)
	if err != nil {
		slog.Error("failed to resolve session controller", "error", err)
		os.Exit(1)
	}
	src := do.MustInvoke[audio.Source](injector)
	m := do.MustInvoke[*metrics.Metrics](injector)
	repo := do.MustInvoke[repository.Repository](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrlDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		if err := ctrl.Run(ctx); err != nil {
			slog.Error("session controller failed", "error", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metricsimpl.Serve(ctx, cfg.MetricsAddr, m.Handler()); err != nil {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	out := terminal.NewSyncWriter(os.Stdout)
	view := terminal.NewView(0)
	go view.Watch(ctx, cfg.ViewRefreshInterval, ctrl.Snapshot, out)

	slog.Info("startup: console ready", "endpoint", cfg.DecoderEndpoint())
	if err := terminal.NewConsole(ctrl, view, os.Stdin, out).Run(ctx); err != nil {
		slog.Error("console input failed", "error", err)
	}

	slog.Info("shutting down")
	stop()
	<-ctrlDone
	if err := src.Close(); err != nil {
		slog.Error("audio source close failed", "error", err)
	}
	if closer, ok := repo.(interface{ Shutdown() }); ok {
		closer.Shutdown()
	}
}
