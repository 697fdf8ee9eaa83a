package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// SetTimeRangeInput changes one widget's lookback window.
type SetTimeRangeInput struct {
	WidgetID  string              `json:"widget_id"`
	TimeRange dashboard.TimeRange `json:"time_range"`
}

type timeRangeService interface {
	SetTimeRange(ctx context.Context, id string, timeRange dashboard.TimeRange) error
}

// SetTimeRangeCommand updates the lookback of a single widget. Only that
// widget refetches; siblings are untouched.
type SetTimeRangeCommand struct {
	service   timeRangeService
	telemetry Telemetry
}

// NewSetTimeRangeCommand builds a command instance.
func NewSetTimeRangeCommand(service timeRangeService, telemetry Telemetry) *SetTimeRangeCommand {
	return &SetTimeRangeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetTimeRangeInput] = (*SetTimeRangeCommand)(nil)

// Execute applies the new time range.
func (c *SetTimeRangeCommand) Execute(ctx context.Context, msg SetTimeRangeInput) error {
	if c.service == nil {
		return errors.New("time-range command requires service")
	}
	if err := c.service.SetTimeRange(ctx, msg.WidgetID, msg.TimeRange); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.time_range", map[string]any{
		"widget_id": msg.WidgetID,
		"hours":     int(msg.TimeRange),
	})
	return nil
}
