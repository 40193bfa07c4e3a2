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

	"golang.org/x/crypto/bcrypt"

	"dumbserve/internal/config"
	"dumbserve/internal/httpserver"
	"dumbserve/internal/logging"
	"dumbserve/internal/metrics"
	"dumbserve/internal/version"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "passwd" {
		os.Exit(passwdCmd(os.Args[2:]))
	}

	var (
		cfgPath     = flag.String("config", "", "path to config file (.json, .yaml or .yml)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		version.Print(os.Stdout)
		return
	}

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "dumbserve: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, file, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if file == "" {
		log.Warn(ctx, "no config file found, using defaults and environment")
	}
	if len(cfg.Files.Creds) == 0 {
		log.Warn(ctx, "no credentials configured, every authenticated route will answer 401")
	}

	srv, err := httpserver.New(httpserver.Options{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.Init(cfg.Server.Metrics),
	})
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	hs := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info(ctx, "starting dumbserve",
		"version", version.Get(),
		"commit", version.Commit(),
		"addr", hs.Addr,
		"files", cfg.Files.Path,
		"config", file,
	)
	if !cfg.Files.DisableWebDAV {
		log.Info(ctx, "webdav endpoint enabled", "url", fmt.Sprintf("http://%s/dav/", hs.Addr))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func passwdCmd(args []string) int {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	var (
		password = fs.String("p", "", "password (required)")
		cost     = fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: dumbserve passwd -p <password> [-cost n]")
		return 2
	}
	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "invalid cost %d (min=%d max=%d)\n", *cost, bcrypt.MinCost, bcrypt.MaxCost)
		return 2
	}
	h, err := bcrypt.GenerateFromPassword([]byte(*password), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
		return 1
	}
	fmt.Println(string(h))
	return 0
}
