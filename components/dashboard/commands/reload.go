package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ReloadDashboardInput re-runs the bulk load, which also triggers the
// server-side cloud sync.
type ReloadDashboardInput struct{}

type reloadService interface {
	Reload(ctx context.Context) error
}

// ReloadDashboardCommand wraps Runtime.Reload.
type ReloadDashboardCommand struct {
	service   reloadService
	telemetry Telemetry
}

// NewReloadDashboardCommand builds a command instance.
func NewReloadDashboardCommand(service reloadService, telemetry Telemetry) *ReloadDashboardCommand {
	return &ReloadDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReloadDashboardInput] = (*ReloadDashboardCommand)(nil)

// Execute reloads the dashboard.
func (c *ReloadDashboardCommand) Execute(ctx context.Context, _ ReloadDashboardInput) error {
	if c.service == nil {
		return errors.New("reload command requires service")
	}
	if err := c.service.Reload(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.reload", nil)
	return nil
}
