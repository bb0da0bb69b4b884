package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/quillback/logbook/internal/api"
	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/mcp"
	"github.com/quillback/logbook/internal/refine"
)

func runServe(args []string) error {
	addr := ":8080"

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--addr" && i+1 < len(args):
			i++
			addr = args[i]
		case strings.HasPrefix(args[i], "--addr="):
			addr = strings.TrimPrefix(args[i], "--addr=")
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			return fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	level := slog.LevelInfo
	if globalVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := resolveConfig("", "")
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var refiner *refine.Refiner
	if r, err := refinerFromConfig(cfg); err == nil {
		refiner = r
	} else if cfg.RefineModel.Value != "" {
		// Only worth a warning when someone actually configured a model.
		logger.Warn("refinement unavailable", "error", err)
	}

	srv := api.NewServer(api.Config{
		Engine:  extract.NewEngine(cfg.Engine),
		Store:   st,
		Refiner: refiner,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting http server", "addr", addr, "db", cfg.DBPath.Value)
	return srv.ListenAndServe(ctx, addr)
}

func runMCP(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := resolveConfig("", "")
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Tool calls that ask for refinement degrade to the raw extraction
	// when no provider key is configured.
	refiner, _ := refinerFromConfig(cfg)

	srv := mcp.NewServer(mcp.ServerConfig{
		Store:   st,
		Engine:  extract.NewEngine(cfg.Engine),
		Refiner: refiner,
		Version: version,
	})
	return server.ServeStdio(srv)
}
