package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// AddWidgetInput carries the configuration for a new widget.
type AddWidgetInput struct {
	Title     string              `json:"title"`
	Site      string              `json:"site"`
	Device    string              `json:"device"`
	Metric    dashboard.Metric    `json:"metric"`
	// TimeRange is optional; nil keeps the form default. Zero is a real
	// bucket (all time), so absence cannot be modeled by the zero value.
	TimeRange *dashboard.TimeRange `json:"time_range,omitempty"`
}

type addService interface {
	AddWidget(ctx context.Context, form dashboard.WidgetForm) (dashboard.Widget, error)
}

// AddWidgetCommand appends a widget to the dashboard and persists the
// new list.
type AddWidgetCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddWidgetCommand builds a command instance.
func NewAddWidgetCommand(service addService, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute builds the widget form and adds it through the service. The
// form applies the same defaults the interactive builder does, including
// the device reset when the site differs from the default.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add command requires service")
	}
	form := dashboard.NewWidgetForm()
	if msg.Title != "" {
		form.Title = msg.Title
	}
	if msg.Site != "" {
		form.SetSite(msg.Site)
	}
	if msg.Device != "" {
		form.SetDevice(msg.Device)
	}
	if msg.Metric != "" {
		form.SetMetric(msg.Metric)
	}
	if msg.TimeRange != nil {
		form.TimeRange = *msg.TimeRange
	}
	widget, err := c.service.AddWidget(ctx, form)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.add", map[string]any{
		"widget_id": widget.ID,
		"site":      widget.Site,
		"metric":    string(widget.Metric),
	})
	return nil
}
