package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
	"github.com/sitewatch/sitewatch/components/dashboard/viewer"
)

func newRuntime(app *program) *dashboard.Runtime {
	return dashboard.NewRuntime(dashboard.RuntimeOptions{
		Backend:         app.backend,
		Sessions:        app.sessions,
		Telemetry:       app.telemetry,
		RefreshInterval: app.cfg.RefreshInterval(),
		SyncInterval:    app.cfg.SyncInterval(),
	})
}

type watchCmd struct {
	Interval time.Duration `default:"5s" help:"How often to reprint the snapshot table."`
}

func (cmd *watchCmd) Run(app *program) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime := newRuntime(app)
	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer runtime.Stop()

	ticker := time.NewTicker(cmd.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
			printSnapshots(runtime)
		}
	}
}

func printSnapshots(runtime *dashboard.Runtime) {
	fmt.Printf("--- %s", time.Now().Format("15:04:05"))
	if status := runtime.Sync.Status(); status.IsSyncing {
		fmt.Printf("  sync: %s (%.0f%%)", status.CurrentStep, runtime.Sync.Progress()*100)
	} else if msg := status.LastMessage; msg != "" {
		fmt.Printf("  %s", msg)
	}
	fmt.Println()

	for _, snap := range runtime.Snapshots() {
		state := fmt.Sprintf("%d rows", len(snap.Rows))
		if snap.Loading {
			state = "loading"
		}
		if snap.LastError != nil {
			state = "error: " + snap.LastError.Error()
		}
		fmt.Printf("  %-24s %-20s %s\n", snap.Widget.ID, snap.Widget.Title, state)
	}
	if summary, ok := runtime.Board.Current(); ok {
		fmt.Printf("  summary [%s]: %s connectivity, %d alerts, %d clients\n",
			summary.Site, summary.Connectivity, summary.Alerts, summary.TotalClients)
	}
}

type serveCmd struct {
	Addr string `default:":8080" help:"Listen address for the local viewer."`
}

func (cmd *serveCmd) Run(app *program) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime := newRuntime(app)
	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer runtime.Stop()

	v, err := viewer.New(viewer.Options{Runtime: runtime, Telemetry: app.telemetry})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- v.Listen(cmd.Addr) }()
	app.log.Info("viewer listening", zap.String("addr", cmd.Addr))

	select {
	case <-ctx.Done():
		return v.Shutdown()
	case err := <-errCh:
		return err
	}
}
