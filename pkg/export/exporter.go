package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ettle/strcase"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// ErrBusy is returned while another export is running; the trigger
// control stays disabled until the flag resets.
var ErrBusy = errors.New("export: already exporting")

// ExporterOptions configures the export orchestrator.
type ExporterOptions struct {
	Source Source
	OutDir string
	// Alert surfaces a user-visible failure message. Optional.
	Alert func(message string)
	// Operator and Brand decorate the PDF chrome.
	Operator string
	Brand    string
	Clock    dashboard.Clock
}

// Exporter runs the four export operations and owns the exporting flag.
// The flag is reset on every exit path, success or failure, so the
// trigger can never be left stuck.
type Exporter struct {
	opts ExporterOptions

	mu        sync.Mutex
	exporting bool
}

// NewExporter builds an exporter writing into opts.OutDir.
func NewExporter(opts ExporterOptions) (*Exporter, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("export: source is required")
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Exporter{opts: opts}, nil
}

// Exporting reports whether an export is in flight.
func (e *Exporter) Exporting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exporting
}

func (e *Exporter) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exporting {
		return ErrBusy
	}
	e.exporting = true
	return nil
}

func (e *Exporter) end() {
	e.mu.Lock()
	e.exporting = false
	e.mu.Unlock()
}

func (e *Exporter) fail(err error) error {
	if e.opts.Alert != nil {
		e.opts.Alert(err.Error())
	}
	return err
}

// DashboardPDF captures the full dashboard and writes the paginated
// document. Returns the written path.
func (e *Exporter) DashboardPDF(ctx context.Context, title string) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	img, err := e.opts.Source.Capture(ctx)
	if err != nil {
		return "", e.fail(fmt.Errorf("export: capture dashboard: %w", err))
	}
	path := e.outPath("dashboard-report", "pdf")
	file, err := os.Create(path)
	if err != nil {
		return "", e.fail(fmt.Errorf("export: create %s: %w", path, err))
	}
	defer file.Close()
	err = ComposePDF(file, img, PDFOptions{
		Brand:    e.opts.Brand,
		Title:    title,
		Operator: e.opts.Operator,
		Now:      e.opts.Clock(),
	})
	if err != nil {
		os.Remove(path)
		return "", e.fail(err)
	}
	return path, nil
}

// DashboardImage captures the full dashboard as one PNG, no slicing.
func (e *Exporter) DashboardImage(ctx context.Context) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	img, err := e.opts.Source.Capture(ctx)
	if err != nil {
		return "", e.fail(fmt.Errorf("export: capture dashboard: %w", err))
	}
	return e.writePNG("dashboard", img)
}

// WidgetImage captures a single widget as PNG.
func (e *Exporter) WidgetImage(ctx context.Context, widget dashboard.Widget) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	img, err := e.opts.Source.CaptureWidget(ctx, widget.ID)
	if err != nil {
		return "", e.fail(fmt.Errorf("export: capture widget %s: %w", widget.ID, err))
	}
	return e.writePNG(widgetSlug(widget), img)
}

// WidgetCSV exports a widget's currently loaded rows as delimited text.
// An empty dataset produces no file and no alert.
func (e *Exporter) WidgetCSV(widget dashboard.Widget, rows []dashboard.Row) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	if len(rows) == 0 {
		return "", ErrEmptyDataset
	}
	path := e.outPath(widgetSlug(widget), "csv")
	file, err := os.Create(path)
	if err != nil {
		return "", e.fail(fmt.Errorf("export: create %s: %w", path, err))
	}
	defer file.Close()
	if err := WriteDelimited(file, rows); err != nil {
		os.Remove(path)
		return "", e.fail(err)
	}
	return path, nil
}

func (e *Exporter) writePNG(stem string, img image.Image) (string, error) {
	path := e.outPath(stem, "png")
	file, err := os.Create(path)
	if err != nil {
		return "", e.fail(fmt.Errorf("export: create %s: %w", path, err))
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		os.Remove(path)
		return "", e.fail(fmt.Errorf("export: encode %s: %w", path, err))
	}
	return path, nil
}

func (e *Exporter) outPath(stem, ext string) string {
	stamp := e.opts.Clock().Format("20060102-150405")
	return filepath.Join(e.opts.OutDir, fmt.Sprintf("%s-%s.%s", stem, stamp, ext))
}

// widgetSlug derives a file stem from the widget title, falling back to
// the id for untitled widgets.
func widgetSlug(widget dashboard.Widget) string {
	if widget.Title != "" {
		return strcase.ToKebab(widget.Title)
	}
	return "widget-" + strcase.ToKebab(widget.ID)
}
