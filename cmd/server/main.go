package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/me/remsh/internal/config"
	"github.com/me/remsh/internal/logging"
	"github.com/me/remsh/internal/sched"
	"github.com/me/remsh/internal/server"
	"github.com/me/remsh/internal/store"
)

func main() {
	defaults := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", defaults.ListenAddr, "Command service TCP listen address")
	adminAddr := flag.String("admin-addr", defaults.AdminAddr, "Admin API HTTP listen address")
	logLevel := flag.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", defaults.LogFormat, "Log format (text, json)")
	dbPath := flag.String("db", defaults.DBPath, "History database path (default ~/.remsh/remsh.db, \"off\" disables)")
	shell := flag.String("shell", defaults.Shell, "Interpreter for shell tasks")
	noColor := flag.Bool("no-color", defaults.NoColor, "Disable ANSI colour on stdout")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	cfg := defaults
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags set on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.ListenAddr = *addr
		case "admin-addr":
			cfg.AdminAddr = *adminAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "db":
			cfg.DBPath = *dbPath
		case "shell":
			cfg.Shell = *shell
		case "no-color":
			cfg.NoColor = *noColor
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Open the execution-history store unless disabled.
	var st store.Store
	if cfg.DBPath != "off" {
		path := cfg.DBPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
				os.Exit(1)
			}
			dir := filepath.Join(home, ".remsh")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
				os.Exit(1)
			}
			path = filepath.Join(dir, "remsh.db")
		}

		sqlStore, err := store.NewSQLiteStore(path, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		defer sqlStore.Close()

		if err := sqlStore.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
			os.Exit(1)
		}
		logger.Info("history database ready", "path", path)
		st = sqlStore
	}

	var console *sched.Console
	if cfg.NoColor {
		console = sched.NewConsoleWriter(os.Stdout, false)
	} else {
		console = sched.NewConsole()
	}

	schedCfg := sched.DefaultConfig()
	schedCfg.Shell = cfg.Shell
	var opts []sched.Option
	if st != nil {
		opts = append(opts, sched.WithHistory(st))
	}
	scheduler := sched.New(schedCfg, console, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Start(ctx)

	srv := server.New(cfg, scheduler, console, st, logger)

	adminSrv := &http.Server{Addr: cfg.AdminAddr, Handler: srv.Handler()}
	go func() {
		logger.Info("admin API listening", "addr", cfg.AdminAddr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin API", "error", err)
		}
	}()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command service: %v\n", err)
		os.Exit(1)
	}

	// Graceful shutdown: stop the worker (drains any pending summary),
	// then close the admin server and discard residual queue entries.
	logger.Info("shutting down")
	scheduler.Stop()
	scheduler.Close()
	adminSrv.Shutdown(context.Background())
}
