package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshAllInput requests a lockstep reload of every widget.
type RefreshAllInput struct{}

type generationBumper interface {
	Bump() uint64
}

// RefreshAllCommand bumps the refresh generation so every widget engine
// refetches against current data.
type RefreshAllCommand struct {
	broadcast generationBumper
	telemetry Telemetry
}

// NewRefreshAllCommand builds a command instance.
func NewRefreshAllCommand(broadcast generationBumper, telemetry Telemetry) *RefreshAllCommand {
	return &RefreshAllCommand{broadcast: broadcast, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshAllInput] = (*RefreshAllCommand)(nil)

// Execute bumps the generation.
func (c *RefreshAllCommand) Execute(ctx context.Context, _ RefreshAllInput) error {
	if c.broadcast == nil {
		return errors.New("refresh command requires broadcaster")
	}
	gen := c.broadcast.Bump()
	c.telemetry.Record(ctx, "dashboard.refresh_all", map[string]any{"generation": gen})
	return nil
}
