package export

import (
	"context"
	"image"
)

// Source rasterizes the live dashboard. The pagination and document
// composition below are independent of how capture happens; pkg/render
// provides the chart-based implementation and tests use synthetic
// bitmaps.
type Source interface {
	// Capture renders the full dashboard as one bitmap.
	Capture(ctx context.Context) (image.Image, error)
	// CaptureWidget renders a single widget.
	CaptureWidget(ctx context.Context, widgetID string) (image.Image, error)
}
