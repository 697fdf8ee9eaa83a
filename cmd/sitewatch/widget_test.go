package main

import (
	"context"
	"strings"
	"testing"

	"github.com/sitewatch/sitewatch/pkg/apiclient"
)

// limitedBackend narrows the demo backend to a single enabled metric.
type limitedBackend struct {
	*apiclient.Mock
}

func (limitedBackend) Settings(context.Context) ([]string, error) {
	return []string{"clients"}, nil
}

func TestWidgetAddRejectsDisabledMetric(t *testing.T) {
	app := &program{backend: limitedBackend{apiclient.NewMock()}}
	cmd := &widgetAddCmd{Title: "State Breakdown", Metric: "state"}

	err := cmd.Run(app)
	if err == nil {
		t.Fatal("expected disabled metric to be rejected")
	}
	if !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWidgetAddAcceptsEnabledMetric(t *testing.T) {
	backend := apiclient.NewMock()
	app := &program{backend: backend}
	cmd := &widgetAddCmd{Title: "Client Trend", Metric: "clients"}

	if err := cmd.Run(app); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	found := false
	for _, w := range backend.Widgets {
		if w.Title == "Client Trend" {
			found = true
		}
	}
	if !found {
		t.Fatalf("widget not persisted: %#v", backend.Widgets)
	}
}

func TestMetricEnabled(t *testing.T) {
	enabled := []string{"clients", "health"}
	if !metricEnabled(enabled, "health") {
		t.Fatal("expected health to be enabled")
	}
	if metricEnabled(enabled, "state") {
		t.Fatal("expected state to be disabled")
	}
}
