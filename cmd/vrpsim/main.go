// Command vrpsim builds a random routing instance, constructs a solution with
// the incremental score director, cross-checks it against a full evaluation
// and optionally serves the result over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"routeshadow/internal/api"
	"routeshadow/internal/config"
	"routeshadow/internal/logger"
	"routeshadow/internal/metrics"
	"routeshadow/internal/model"
	"routeshadow/internal/webhooks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vrpsim:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath = flag.String("config", "", "path to a YAML config file")
		serve   = flag.Bool("serve", false, "keep serving diagnostics after the run")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *serve {
		cfg.Run.Serve = true
	}
	log, err := logger.Setup(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File, JSON: cfg.Log.JSON, Stderr: true})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := api.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	var httpSrv *http.Server
	errc := make(chan error, 1)
	if cfg.Run.Serve {
		httpSrv = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.Server.Addr).Info("diagnostics listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	var sinks []func(model.Event)
	var hooks *webhooks.Worker
	if len(cfg.Webhook.URLs) > 0 {
		hooks = webhooks.NewWorker(cfg.Webhook.URLs, cfg.Webhook.Secret, cfg.Webhook.MaxAttempts, log)
		hooks.Events = cfg.Webhook.Events
		hooks.Start(ctx)
		sinks = append(sinks, hooks.Notify)
	}

	_, runErr := execute(ctx, cfg, srv, log, sinks...)
	if hooks != nil {
		fctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := hooks.Flush(fctx); err != nil {
			log.WithError(err).Warn("webhook deliveries pending at exit")
		}
		cancel()
	}
	if runErr != nil {
		return runErr
	}
	if httpSrv == nil {
		return nil
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(sctx)
}
