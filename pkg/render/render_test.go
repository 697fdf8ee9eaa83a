package render

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

type stubSnapshots struct {
	snaps []dashboard.EngineSnapshot
}

func (s *stubSnapshots) Snapshots() []dashboard.EngineSnapshot { return s.snaps }

func clientRows(n int) []dashboard.Row {
	rows := make([]dashboard.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, dashboard.Row{
			Columns: []string{"time", "clients"},
			Values: map[string]any{
				"time":    fmt.Sprintf("2024-05-01 %02d:00", 10+i),
				"clients": json.Number(fmt.Sprintf("%d", 10+i*3)),
			},
		})
	}
	return rows
}

func healthRows() []dashboard.Row {
	return []dashboard.Row{
		{Columns: []string{"name", "value"}, Values: map[string]any{"name": "good", "value": json.Number("30")}},
		{Columns: []string{"name", "value"}, Values: map[string]any{"name": "warning", "value": json.Number("5")}},
	}
}

func areaSnap(id string) dashboard.EngineSnapshot {
	return dashboard.EngineSnapshot{
		Widget: dashboard.Widget{ID: id, Title: "Clients", Metric: dashboard.MetricClients, ChartType: dashboard.ChartArea},
		Rows:   clientRows(5),
	}
}

func donutSnap(id string) dashboard.EngineSnapshot {
	return dashboard.EngineSnapshot{
		Widget: dashboard.Widget{ID: id, Title: "Health", Metric: dashboard.MetricHealth, ChartType: dashboard.ChartPie},
		Rows:   healthRows(),
	}
}

func TestCaptureStacksWidgets(t *testing.T) {
	provider := &stubSnapshots{snaps: []dashboard.EngineSnapshot{areaSnap("w1"), donutSnap("w2")}}
	r, err := New(Options{Snapshots: provider, Width: 400, WidgetHeight: 200})
	if err != nil {
		t.Fatal(err)
	}
	img, err := r.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 400 || bounds.Dy() != 400 {
		t.Fatalf("stacked bitmap = %dx%d, want 400x400", bounds.Dx(), bounds.Dy())
	}
}

func TestCaptureHonorsExclusionPredicate(t *testing.T) {
	provider := &stubSnapshots{snaps: []dashboard.EngineSnapshot{areaSnap("w1"), donutSnap("w2"), donutSnap("w3")}}
	r, err := New(Options{
		Snapshots:    provider,
		Width:        400,
		WidgetHeight: 200,
		Exclude:      func(w dashboard.Widget) bool { return w.ID == "w2" },
	})
	if err != nil {
		t.Fatal(err)
	}
	img, err := r.Capture(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dy() != 400 {
		t.Fatalf("excluded widget still rendered: height %d", img.Bounds().Dy())
	}
}

func TestCaptureWidget(t *testing.T) {
	provider := &stubSnapshots{snaps: []dashboard.EngineSnapshot{areaSnap("w1"), donutSnap("w2")}}
	r, _ := New(Options{Snapshots: provider, Width: 300, WidgetHeight: 150})

	img, err := r.CaptureWidget(context.Background(), "w2")
	if err != nil {
		t.Fatalf("CaptureWidget returned error: %v", err)
	}
	if img.Bounds().Dx() != 300 {
		t.Fatalf("widget bitmap width = %d", img.Bounds().Dx())
	}

	if _, err := r.CaptureWidget(context.Background(), "missing"); err == nil {
		t.Fatalf("unknown widget accepted")
	}
}

func TestCaptureEmptyDashboardFails(t *testing.T) {
	r, _ := New(Options{Snapshots: &stubSnapshots{}})
	if _, err := r.Capture(context.Background()); err == nil {
		t.Fatalf("empty dashboard accepted")
	}
}

func TestRenderWidgetWithSparseSeriesYieldsPlaceholder(t *testing.T) {
	snap := dashboard.EngineSnapshot{
		Widget: dashboard.Widget{ID: "w1", Metric: dashboard.MetricClients, ChartType: dashboard.ChartArea},
		Rows:   clientRows(1),
	}
	provider := &stubSnapshots{snaps: []dashboard.EngineSnapshot{snap}}
	r, _ := New(Options{Snapshots: provider, Width: 200, WidgetHeight: 100})
	img, err := r.CaptureWidget(context.Background(), "w1")
	if err != nil {
		t.Fatalf("sparse series must not fail: %v", err)
	}
	if img.Bounds().Dy() != 100 {
		t.Fatalf("placeholder height = %d", img.Bounds().Dy())
	}
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{json.Number("12"), 12},
		{float64(3.5), 3.5},
		{7, 7},
		{"2.25", 2.25},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := toFloat(tc.in); got != tc.want {
			t.Fatalf("toFloat(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
