package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aranel/songsmith/internal/api"
	"github.com/aranel/songsmith/internal/audit"
	"github.com/aranel/songsmith/internal/collab"
	"github.com/aranel/songsmith/internal/config"
	"github.com/aranel/songsmith/internal/health"
	"github.com/aranel/songsmith/internal/lyrics"
	"github.com/aranel/songsmith/internal/metrics"
	"github.com/aranel/songsmith/internal/pipeline"
	"github.com/aranel/songsmith/internal/publish"
	"github.com/aranel/songsmith/internal/storage"
	"github.com/aranel/songsmith/internal/video"
	"github.com/aranel/songsmith/internal/voice"
	"github.com/aranel/songsmith/internal/web"
	"github.com/aranel/songsmith/internal/worker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the songsmith server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running songsmith server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show songsmith system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "songsmith.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "songsmith version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("songsmith is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("songsmith is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	mtr := metrics.New()
	auditor := audit.New(store, slog.Default())
	notifier := publish.NewNotifier(cfg.Features.PublishWebhookURL)

	var producer pipeline.VideoProducer
	if video.FFmpegAvailable() {
		producer = video.NewProducer()
	} else {
		slog.Warn("ffmpeg not found, songs will be produced without video")
	}

	// Build the content pipeline and its background worker.
	pipe := pipeline.New(pipeline.Options{
		Store:    store,
		Lyricist: lyrics.NewClient(cfg.Lyrics.APIKey, cfg.Lyrics.BaseURL, cfg.Lyrics.Model),
		Synth:    voice.NewClient(cfg.Voice.APIKey, cfg.Voice.BaseURL),
		MediaDir: cfg.Storage.MediaDir,
		Video:    producer,
		Log:      slog.Default(),
		Metrics:  mtr,
		Auditor:  auditor,
		Notifier: notifier,
	})
	jobWorker := worker.NewWorker(store, pipe, 500*time.Millisecond)
	go jobWorker.Run(ctx)

	monitor := health.NewMonitor(store, cfg.Storage.MediaDir, cfg.Lyrics.APIKey != "", slog.Default())
	go monitor.Run(ctx)

	var collabMgr *collab.Manager
	if cfg.Features.CollabEnabled {
		collabMgr = collab.NewManager()
	}

	pages, err := web.New(store, monitor, slog.Default())
	if err != nil {
		return fmt.Errorf("building web pages: %w", err)
	}

	handler := api.NewRouter(api.Deps{
		Store:      store,
		Pipeline:   pipe,
		Monitor:    monitor,
		Metrics:    mtr,
		Auditor:    auditor,
		Collab:     collabMgr,
		MediaDir:   cfg.Storage.MediaDir,
		AdminToken: cfg.Server.AdminToken,
		Pages:      pages.Register,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{Store: store})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "songsmith listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("songsmith is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop songsmith (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to songsmith (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			printStatus("Server", "running on port %d", cfg.Server.Port)
		case http.StatusServiceUnavailable:
			printStatus("Server", "degraded on port %d", cfg.Server.Port)
		default:
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if video.FFmpegAvailable() {
		printStatus("FFmpeg", "available")
	} else {
		printStatus("FFmpeg", "not found (audio-only mode)")
	}

	printStatus("Lyrics model", "%s", cfg.Lyrics.Model)
	printStatus("Media dir", "%s", cfg.Storage.MediaDir)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
