package render

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// rowTimeLayout is the timestamp format the analyzer emits for series
// rows.
const rowTimeLayout = "2006-01-02 15:04"

// palette matches the dashboard's slice colors.
var palette = []string{"3b82f6", "10b981", "f59e0b", "ef4444", "8b5cf6", "ec4899"}

// SnapshotProvider yields the current per-widget state in widget-list
// order. The runtime satisfies it.
type SnapshotProvider interface {
	Snapshots() []dashboard.EngineSnapshot
}

// Options configures the chart rasterizer.
type Options struct {
	Snapshots SnapshotProvider
	// Width is the bitmap width in pixels.
	Width int
	// WidgetHeight is the height of one widget's chart in pixels.
	WidgetHeight int
	// Exclude marks widgets that must not appear in exports.
	Exclude func(widget dashboard.Widget) bool
}

// Rasterizer renders widgets as raster charts and stacks them into one
// dashboard bitmap. It implements the export Source contract.
type Rasterizer struct {
	opts Options
}

// New builds a rasterizer with sensible pixel defaults.
func New(opts Options) (*Rasterizer, error) {
	if opts.Snapshots == nil {
		return nil, fmt.Errorf("render: snapshot provider is required")
	}
	if opts.Width <= 0 {
		opts.Width = 1000
	}
	if opts.WidgetHeight <= 0 {
		opts.WidgetHeight = 360
	}
	return &Rasterizer{opts: opts}, nil
}

// Capture renders every non-excluded widget and stacks the results
// vertically.
func (r *Rasterizer) Capture(ctx context.Context) (image.Image, error) {
	snaps := r.included()
	if len(snaps) == 0 {
		return nil, fmt.Errorf("render: no widgets to capture")
	}

	out := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.WidgetHeight*len(snaps)))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for i, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := r.renderWidget(snap)
		if err != nil {
			return nil, err
		}
		target := image.Rect(0, i*r.opts.WidgetHeight, r.opts.Width, (i+1)*r.opts.WidgetHeight)
		draw.Draw(out, target, img, img.Bounds().Min, draw.Src)
	}
	return out, nil
}

// CaptureWidget renders a single widget.
func (r *Rasterizer) CaptureWidget(_ context.Context, widgetID string) (image.Image, error) {
	for _, snap := range r.opts.Snapshots.Snapshots() {
		if snap.Widget.ID == widgetID {
			return r.renderWidget(snap)
		}
	}
	return nil, fmt.Errorf("render: unknown widget %q", widgetID)
}

func (r *Rasterizer) included() []dashboard.EngineSnapshot {
	snaps := r.opts.Snapshots.Snapshots()
	if r.opts.Exclude == nil {
		return snaps
	}
	kept := snaps[:0:0]
	for _, snap := range snaps {
		if !r.opts.Exclude(snap.Widget) {
			kept = append(kept, snap)
		}
	}
	return kept
}

func (r *Rasterizer) renderWidget(snap dashboard.EngineSnapshot) (image.Image, error) {
	switch snap.Widget.ChartType {
	case dashboard.ChartArea:
		return r.renderArea(snap)
	default:
		return r.renderDonut(snap)
	}
}

// renderArea draws the client-count time series as a filled line chart.
func (r *Rasterizer) renderArea(snap dashboard.EngineSnapshot) (image.Image, error) {
	var xs []time.Time
	var ys []float64
	for _, row := range snap.Rows {
		ts, err := time.Parse(rowTimeLayout, fmt.Sprintf("%v", row.Value("time")))
		if err != nil {
			continue
		}
		xs = append(xs, ts)
		ys = append(ys, toFloat(row.Value("clients")))
	}
	if len(xs) < 2 {
		// go-chart needs two points for a series; an idle widget still
		// occupies its slot in the stacked bitmap.
		return r.blank(), nil
	}

	stroke := drawing.ColorFromHex(palette[0])
	c := chart.Chart{
		Title:  snap.Widget.Title,
		Width:  r.opts.Width,
		Height: r.opts.WidgetHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02/01 15:04"),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    string(snap.Widget.Metric),
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: stroke,
					StrokeWidth: 2,
					FillColor:   stroke.WithAlpha(60),
				},
			},
		},
	}
	return renderToImage(func(out *chart.ImageWriter) error {
		return c.Render(chart.PNG, out)
	})
}

// renderDonut draws a distribution (health/state) as a donut chart with
// the dashboard palette.
func (r *Rasterizer) renderDonut(snap dashboard.EngineSnapshot) (image.Image, error) {
	var values []chart.Value
	for i, row := range snap.Rows {
		v := toFloat(row.Value("value"))
		if v <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%v", row.Value("name")),
			Value: v,
			Style: chart.Style{
				FillColor: drawing.ColorFromHex(palette[i%len(palette)]),
			},
		})
	}
	if len(values) == 0 {
		return r.blank(), nil
	}

	c := chart.DonutChart{
		Title:  snap.Widget.Title,
		Width:  r.opts.Width,
		Height: r.opts.WidgetHeight,
		Values: values,
	}
	return renderToImage(func(out *chart.ImageWriter) error {
		return c.Render(chart.PNG, out)
	})
}

func (r *Rasterizer) blank() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.WidgetHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func renderToImage(render func(*chart.ImageWriter) error) (image.Image, error) {
	writer := &chart.ImageWriter{}
	if err := render(writer); err != nil {
		return nil, fmt.Errorf("render: chart: %w", err)
	}
	img, err := writer.Image()
	if err != nil {
		return nil, fmt.Errorf("render: collect image: %w", err)
	}
	return img, nil
}

// toFloat coerces a decoded JSON cell to a float64 for charting.
func toFloat(v any) float64 {
	switch value := v.(type) {
	case json.Number:
		f, _ := value.Float64()
		return f
	case float64:
		return value
	case int:
		return float64(value)
	case string:
		f, _ := strconv.ParseFloat(value, 64)
		return f
	default:
		return 0
	}
}
