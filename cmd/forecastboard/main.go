// Command forecastboard serves the forecast dashboard, or writes a static html snapshot of one
// mode with -snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aouyang1/go-forecastboard/cache"
	"github.com/aouyang1/go-forecastboard/config"
	"github.com/aouyang1/go-forecastboard/dashboard"
	"github.com/aouyang1/go-forecastboard/reconcile"
	"github.com/aouyang1/go-forecastboard/server"
	"github.com/aouyang1/go-forecastboard/sheet"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"k8s.io/klog/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	klog.InitFlags(nil)
	configPath := flag.String("config", "", "path to a YAML configuration file")
	addr := flag.String("addr", "", "listen address, overrides the configuration")
	snapshot := flag.String("snapshot", "", "write a static html page of -mode to this file and exit")
	modeName := flag.String("mode", string(dashboard.DefaultMode), "mode written by -snapshot")
	flag.Parse()

	slog.SetDefault(slog.New(logr.ToSlogHandler(klog.Background())))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath, *addr, *snapshot, *modeName)
	stop()
	if err != nil {
		klog.ErrorS(err, "forecastboard failed")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	}
	klog.Flush()
}

func run(ctx context.Context, configPath, addr, snapshot, modeName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration, %w", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	tabs := cache.New(sheet.NewClient(cfg.SheetOptions()...))
	board := dashboard.New(tabs, cfg.DatasetsByMode(), cfg.DashboardOptions()...)

	if snapshot != "" {
		mode, err := dashboard.ParseMode(modeName)
		if err != nil {
			return err
		}
		return writeSnapshot(ctx, board, mode, snapshot, os.Stdout)
	}
	return serve(ctx, cfg.Addr, server.New(board, tabs))
}

// writeSnapshot renders mode into an html file and prints the test metrics and the unified
// rows to summary.
func writeSnapshot(ctx context.Context, board *dashboard.Dashboard, mode dashboard.Mode, path string, summary io.Writer) error {
	view, err := board.Render(ctx, mode)
	if err != nil {
		return err
	}
	for _, n := range view.Notices() {
		slog.Warn("snapshot notice", "level", n.Level, "message", n.Message)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create snapshot file, %w", err)
	}
	if err := view.Page().Render(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to render snapshot, %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to write snapshot file, %w", err)
	}
	slog.Info("wrote snapshot", "mode", mode, "path", path, "charts", len(view.Charts()))

	if view.Forecast != nil {
		if err := view.Forecast.ErrorMetrics.TablePrint(summary, "", "  "); err != nil {
			return err
		}
	}
	if view.Data != nil {
		if err := reconcile.PrintRows(summary, "", view.Data.Rows); err != nil {
			return err
		}
	}
	return nil
}

func serve(ctx context.Context, addr string, s *server.Server) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("unable to serve, %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to shut down server, %w", err)
	}
	return nil
}
