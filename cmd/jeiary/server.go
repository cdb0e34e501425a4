package main

import (
	"context"
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
	"golang.org/x/sync/errgroup"

	"github.com/jeiary/jeiary/internal/agent"
	"github.com/jeiary/jeiary/internal/api"
	"github.com/jeiary/jeiary/internal/assistant"
	"github.com/jeiary/jeiary/internal/batch"
	"github.com/jeiary/jeiary/internal/briefing"
	"github.com/jeiary/jeiary/internal/cleanup"
	"github.com/jeiary/jeiary/internal/config"
	"github.com/jeiary/jeiary/internal/intent"
	"github.com/jeiary/jeiary/internal/ollama"
	"github.com/jeiary/jeiary/internal/parser"
	"github.com/jeiary/jeiary/internal/resolver"
	"github.com/jeiary/jeiary/internal/schedule"
	"github.com/jeiary/jeiary/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the jeiary server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running jeiary server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show jeiary system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "jeiary.pid")
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
	fmt.Fprintf(os.Stderr, "jeiary version %s\n", version)

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
			printWarning("jeiary is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("jeiary is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check Ollama readiness, pulling the model if needed.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	if err := ollama.EnsureReady(ctx, ollamaClient, cfg.Ollama.Model, os.Stderr); err != nil {
		return err
	}

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

	// Build the assistant pipeline.
	schedules := schedule.NewService(store)
	router := intent.NewRouter(ollamaClient, cfg.Ollama.Model)
	targets := resolver.New(store)
	chatAgent := agent.New(ollamaClient, store, cfg.Ollama.Model)
	asst := assistant.New(router, targets, schedules, chatAgent)
	scheduleParser := parser.New(ollamaClient, cfg.Ollama.Model)

	// Build batch jobs with their own per-day log file.
	batchLogger, batchLogCloser, err := batch.NewLogger(cfg.Batch.LogDir)
	if err != nil {
		return fmt.Errorf("opening batch log: %w", err)
	}
	defer batchLogCloser.Close()

	cleanupSvc := cleanup.NewService(store, cfg.Batch.RetentionDays)
	briefingSvc := briefing.NewService(store, ollamaClient, cfg.Ollama.Model)
	runner := batch.NewRunner(store, batchLogger)
	scheduler := batch.NewScheduler(runner, store, []batch.Job{
		{Name: batch.JobDailyCleanup, Spec: batch.CronDailyCleanup, Run: cleanupSvc.Run},
		{Name: batch.JobMorningBriefing, Spec: batch.CronMorningBriefing, Run: briefingSvc.Run},
	})
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting batch scheduler: %w", err)
	}
	defer scheduler.Shutdown()

	// Build HTTP handler and server.
	appHandler := api.NewAppHandler(api.AppDeps{
		Store:     store,
		Schedules: schedules,
		Assistant: asst,
		Parser:    scheduleParser,
	})
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// Build MCP server. MCP clients carry no token, so tools act as the
	// first local account; the tool surface stays up but errors without one.
	mcpOwner := ""
	if users, err := store.Users(); err != nil {
		slog.Warn("could not pick MCP owner account", "error", err)
	} else if len(users) > 0 {
		mcpOwner = users[0].ID
	} else {
		slog.Warn("no user accounts yet; MCP tools will fail until one is created")
	}
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Schedules: schedules,
		Resolver:  targets,
		Parser:    scheduleParser,
		OwnerID:   mcpOwner,
	}, version)
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "jeiary listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("MCP server listening", "addr", mcpAddr)
		if err := mcpHTTP.Start(mcpAddr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
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
		printError("jeiary is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop jeiary (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to jeiary (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
	if err != nil {
		printStatus("Ollama", "not running")
	} else {
		ollamaResp.Body.Close()
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
	}

	printStatus("Model", "%s", cfg.Ollama.Model)
	printStatus("MCP port", "%d", cfg.Server.MCPPort)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Batch logs", "%s", cfg.Batch.LogDir)

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		printStatus("Job history", "unavailable (%v)", err)
		return nil
	}
	defer store.Close()
	for _, job := range []string{batch.JobDailyCleanup, batch.JobMorningBriefing} {
		records, err := store.RecentJobRecords(job, 1)
		if err != nil {
			printStatus(job, "history unavailable (%v)", err)
			continue
		}
		if len(records) == 0 {
			printStatus(job, "no runs yet")
			continue
		}
		r := records[0]
		printStatus(job, "%s at %s", r.Status, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
