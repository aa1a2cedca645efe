// cmd/spot-monitor/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spot-monitor/internal/common/config"
	"spot-monitor/internal/common/database"
	"spot-monitor/internal/common/errors"
	"spot-monitor/internal/common/logger"
	"spot-monitor/internal/common/observability"
	"spot-monitor/internal/gateway"
	"spot-monitor/internal/session"
	"spot-monitor/internal/workflow"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	tracing := observability.Init(cfg.App.Name, cfg.Tracing.Endpoint, cfg.Tracing.Enabled)
	defer tracing.Shutdown()

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				log.Warn("Metrics endpoint stopped", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		redisClient, err := database.NewRedis(cfg.Session.Redis)
		if err != nil {
			log.Error("Failed to create Redis client", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			cancel()
			log.Error("Redis unreachable", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		cancel()
		store = session.NewRedisStore(redisClient, time.Duration(cfg.Session.TTL)*time.Second)
	default:
		store = session.NewMemoryStore()
	}

	client := gateway.NewClient(gateway.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.Timeout) * time.Millisecond,
		Logger:  log,
		Tracing: tracing,
	})

	if err := client.Health(context.Background()); err != nil {
		log.Warn("Processing service health check failed", map[string]interface{}{
			"baseUrl": cfg.API.BaseURL,
			"error":   err.Error(),
		})
	}

	controller := workflow.NewController(workflow.Options{
		Gateway:     client,
		State:       session.NewState(store, log),
		Logger:      log,
		Channels:    cfg.Workflow.Channels,
		Advertisers: cfg.Workflow.Advertisers,
	})

	runLoop(context.Background(), controller)
}

// runLoop drives the page flow from stdin, one command per line. Each
// page prints its available actions, mirroring the original page layout.
func runLoop(ctx context.Context, c *workflow.Controller) {
	scanner := bufio.NewScanner(os.Stdin)

	var scheduleFile string
	var nilsonFile string
	var roNumber string

	for {
		printPage(ctx, c, scheduleFile, nilsonFile, roNumber)
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg := splitCommand(line)

		var err error
		switch {
		case cmd == "quit" || cmd == "exit":
			return

		case cmd == "start" && c.Page() == workflow.PageStart:
			err = c.Navigate(ctx, workflow.PageExtract)

		case cmd == "file" && c.Page() == workflow.PageExtract:
			scheduleFile = arg

		case cmd == "load" && c.Page() == workflow.PageExtract:
			err = withUpload(scheduleFile, func(u *gateway.Upload) error {
				return c.LoadSheets(ctx, u)
			})

		case cmd == "sheet" && c.Page() == workflow.PageExtract:
			err = c.SelectSheet(arg)

		case cmd == "channel" && c.Page() == workflow.PageExtract:
			err = pick(arg, c.Channels(), c.SelectChannel)

		case cmd == "advertiser" && c.Page() == workflow.PageExtract:
			err = pick(arg, c.Advertisers(), c.SelectAdvertiser)

		case cmd == "extract" && c.Page() == workflow.PageExtract:
			err = withUpload(scheduleFile, func(u *gateway.Upload) error {
				return c.RunExtract(ctx, u)
			})

		case cmd == "download" && c.Page() == workflow.PageExtractResults:
			err = c.DownloadExtracted(ctx)

		case cmd == "monitor" && c.Page() == workflow.PageExtractResults:
			err = c.Navigate(ctx, workflow.PageMonitor)

		case cmd == "nilson" && c.Page() == workflow.PageMonitor:
			nilsonFile = arg

		case cmd == "ro" && c.Page() == workflow.PageMonitor:
			roNumber = arg

		case cmd == "process" && c.Page() == workflow.PageMonitor:
			err = withUpload(nilsonFile, func(u *gateway.Upload) error {
				return c.RunMonitoring(ctx, u, roNumber)
			})

		case cmd == "download" && c.Page() == workflow.PageMonitorResults:
			err = c.DownloadMonitorArtifact(ctx, gateway.DownloadKind(arg))

		case cmd == "home" && c.Page() == workflow.PageMonitorResults:
			err = c.Navigate(ctx, workflow.PageStart)

		case cmd == "back":
			err = goBack(ctx, c)

		default:
			fmt.Printf("unknown command %q on page %s\n", line, c.Page())
		}

		if err != nil {
			fmt.Println(errorMessage(err))
		}
	}
}

func printPage(ctx context.Context, c *workflow.Controller, scheduleFile, nilsonFile, roNumber string) {
	fmt.Println()
	switch c.Page() {
	case workflow.PageStart:
		fmt.Println("== TV Schedule Monitoring ==")
		fmt.Println("commands: start | quit")

	case workflow.PageExtract:
		fmt.Println("== Extract Schedule ==")
		fmt.Printf("file: %s  sheet: %s  channel: %s  advertiser: %s\n",
			orNone(scheduleFile), orNone(c.SelectedSheet()), c.SelectedChannel(), c.SelectedAdvertiser())
		if len(c.Sheets()) > 0 {
			fmt.Printf("sheets: %s\n", strings.Join(c.Sheets(), ", "))
		}
		fmt.Println("commands: file <path> | load | sheet <name> | channel <index> | advertiser <index> | extract | back")

	case workflow.PageExtractResults:
		view := c.ExtractResults(ctx)
		fmt.Println("== Extracted Schedule (Row-level Spots) ==")
		if view.Stale {
			fmt.Println("No extracted data found. Go back and extract again.")
		} else {
			view.Preview.WriteTo(os.Stdout)
		}
		fmt.Println("commands: download | monitor | back")

	case workflow.PageMonitor:
		fmt.Println("== Monitoring ==")
		fmt.Printf("nilson: %s  ro number: %s\n", orNone(nilsonFile), orNone(roNumber))
		fmt.Println("commands: nilson <path> | ro <value> | process | back")

	case workflow.PageMonitorResults:
		view := c.MonitorResults(ctx)
		fmt.Println("== Monitoring Results ==")
		if view.Stale {
			fmt.Println("No monitoring job found. Please process again.")
		} else {
			for _, stat := range view.Stats {
				fmt.Printf("%s: %d\n", stat.Label, stat.Value)
			}
			fmt.Println("-- Unmatched Spots --")
			view.Unmatched.WriteTo(os.Stdout)
			fmt.Println("-- Nilson Report with RO Number --")
			view.Nilson.WriteTo(os.Stdout)
		}
		fmt.Println("commands: download unmatched | download nilson | back | home")
	}
}

func goBack(ctx context.Context, c *workflow.Controller) error {
	switch c.Page() {
	case workflow.PageExtract:
		return c.Navigate(ctx, workflow.PageStart)
	case workflow.PageExtractResults:
		return c.Navigate(ctx, workflow.PageExtract)
	case workflow.PageMonitor:
		return c.Navigate(ctx, workflow.PageExtractResults)
	case workflow.PageMonitorResults:
		return c.Navigate(ctx, workflow.PageMonitor)
	}
	return nil
}

// withUpload opens path for exactly one request; the reader is never
// reused across calls.
func withUpload(path string, fn func(*gateway.Upload) error) error {
	if path == "" {
		return fn(nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()
	return fn(&gateway.Upload{Name: filepath.Base(path), Reader: f})
}

func pick(arg string, options []string, set func(string)) error {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 1 || idx > len(options) {
		return fmt.Errorf("expected an index between 1 and %d", len(options))
	}
	set(options[idx-1])
	return nil
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

func errorMessage(err error) string {
	if errors.IsValidation(err) {
		return err.Error()
	}
	return "error: " + err.Error()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
