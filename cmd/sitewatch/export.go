package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
	"github.com/sitewatch/sitewatch/pkg/export"
	"github.com/sitewatch/sitewatch/pkg/render"
)

type exportCmd struct {
	Pdf         exportPDFCmd         `cmd:"" help:"Export the full dashboard as a paginated PDF."`
	Image       exportImageCmd       `cmd:"" help:"Export the full dashboard as a single PNG."`
	WidgetImage exportWidgetImageCmd `cmd:"" name:"widget-image" help:"Export one widget as a PNG."`
	Csv         exportCSVCmd         `cmd:"" help:"Export one widget's loaded rows as CSV."`
}

// exportSession starts the runtime, waits until every widget has data,
// and hands back a ready exporter. The caller must stop the runtime.
func exportSession(ctx context.Context, app *program) (*dashboard.Runtime, *export.Exporter, error) {
	runtime := newRuntime(app)
	if err := runtime.Start(ctx); err != nil {
		return nil, nil, err
	}
	if err := waitForData(ctx, runtime); err != nil {
		runtime.Stop()
		return nil, nil, err
	}

	operator := "unknown operator"
	if session, ok, _ := app.sessions.Load(); ok {
		operator = session.User.Username
	}
	rasterizer, err := render.New(render.Options{Snapshots: runtime})
	if err != nil {
		runtime.Stop()
		return nil, nil, err
	}
	exporter, err := export.NewExporter(export.ExporterOptions{
		Source:   rasterizer,
		OutDir:   app.cfg.OutDir,
		Operator: operator,
		Brand:    "sitewatch",
		Alert:    func(msg string) { app.log.Warn(msg) },
	})
	if err != nil {
		runtime.Stop()
		return nil, nil, err
	}
	return runtime, exporter, nil
}

// waitForData blocks until every engine has completed its first fetch,
// bounded by a deadline so a dead backend cannot hang the command.
func waitForData(ctx context.Context, runtime *dashboard.Runtime) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		ready := true
		for _, snap := range runtime.Snapshots() {
			if snap.FetchedAt.IsZero() && snap.LastError == nil {
				ready = false
				break
			}
		}
		if ready {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return errors.New("sitewatch: timed out waiting for widget data")
}

type exportPDFCmd struct {
	Title string `default:"Network Telemetry Report" help:"Title drawn in the page header."`
}

func (cmd *exportPDFCmd) Run(app *program) error {
	ctx := context.Background()
	runtime, exporter, err := exportSession(ctx, app)
	if err != nil {
		return err
	}
	defer runtime.Stop()

	path, err := exporter.DashboardPDF(ctx, cmd.Title)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

type exportImageCmd struct{}

func (cmd *exportImageCmd) Run(app *program) error {
	ctx := context.Background()
	runtime, exporter, err := exportSession(ctx, app)
	if err != nil {
		return err
	}
	defer runtime.Stop()

	path, err := exporter.DashboardImage(ctx)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

type exportWidgetImageCmd struct {
	ID string `arg:"" help:"Widget id."`
}

func (cmd *exportWidgetImageCmd) Run(app *program) error {
	ctx := context.Background()
	runtime, exporter, err := exportSession(ctx, app)
	if err != nil {
		return err
	}
	defer runtime.Stop()

	widget, ok := runtime.Model.Widget(cmd.ID)
	if !ok {
		return fmt.Errorf("sitewatch: unknown widget %q", cmd.ID)
	}
	path, err := exporter.WidgetImage(ctx, widget)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

type exportCSVCmd struct {
	ID string `arg:"" help:"Widget id."`
}

func (cmd *exportCSVCmd) Run(app *program) error {
	ctx := context.Background()
	runtime, exporter, err := exportSession(ctx, app)
	if err != nil {
		return err
	}
	defer runtime.Stop()

	engine, ok := runtime.Engine(cmd.ID)
	if !ok {
		return fmt.Errorf("sitewatch: unknown widget %q", cmd.ID)
	}
	snap := engine.Snapshot()
	path, err := exporter.WidgetCSV(snap.Widget, snap.Rows)
	if errors.Is(err, export.ErrEmptyDataset) {
		fmt.Println("widget has no rows; nothing exported")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
