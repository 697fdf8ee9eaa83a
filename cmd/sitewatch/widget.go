package main

import (
	"context"
	"fmt"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
	"github.com/sitewatch/sitewatch/components/dashboard/commands"
)

type widgetCmd struct {
	List     widgetListCmd     `cmd:"" default:"1" help:"Print the persisted widget list."`
	Add      widgetAddCmd      `cmd:"" help:"Append a widget and persist the new list."`
	Remove   widgetRemoveCmd   `cmd:"" help:"Remove a widget by id and persist the shortened list."`
	SetRange widgetSetRangeCmd `cmd:"" name:"set-range" help:"Change one widget's lookback window."`
}

// loadedModel builds a widget model seeded from the bulk load, so every
// mutation validates against the current topology and persists the full
// list.
func loadedModel(ctx context.Context, app *program) (*dashboard.Model, error) {
	result, err := app.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	model := dashboard.NewModel(dashboard.ModelOptions{
		Backend:   app.backend,
		Telemetry: app.telemetry,
	})
	model.Apply(result)
	return model, nil
}

type widgetListCmd struct{}

func (cmd *widgetListCmd) Run(app *program) error {
	model, err := loadedModel(context.Background(), app)
	if err != nil {
		return err
	}
	for _, w := range model.Widgets() {
		printWidget(w)
	}
	return nil
}

type widgetAddCmd struct {
	Title  string `help:"Widget title." default:"New Analytics"`
	Site   string `help:"Site name (defaults to the all-sites view)."`
	Device string `help:"Device name, scoped to --site."`
	Metric string `help:"Metric: clients, health, or state." default:"clients"`
	Hours  *int   `help:"Lookback window in hours (0 = all time)."`
}

// metricSettings is the optional settings surface of a backend. The
// remote client and the demo backend both expose it.
type metricSettings interface {
	Settings(ctx context.Context) ([]string, error)
}

func (cmd *widgetAddCmd) Run(app *program) error {
	ctx := context.Background()
	if src, ok := app.backend.(metricSettings); ok {
		enabled, err := src.Settings(ctx)
		if err != nil {
			return err
		}
		if !metricEnabled(enabled, cmd.Metric) {
			return fmt.Errorf("sitewatch: metric %q is disabled; enabled: %v", cmd.Metric, enabled)
		}
	}
	model, err := loadedModel(ctx, app)
	if err != nil {
		return err
	}
	input := commands.AddWidgetInput{
		Title:  cmd.Title,
		Site:   cmd.Site,
		Device: cmd.Device,
		Metric: dashboard.Metric(cmd.Metric),
	}
	if cmd.Hours != nil {
		timeRange := dashboard.TimeRange(*cmd.Hours)
		input.TimeRange = &timeRange
	}
	if err := commands.NewAddWidgetCommand(model, app.telemetry).Execute(ctx, input); err != nil {
		return err
	}
	widgets := model.Widgets()
	fmt.Println("added:")
	printWidget(widgets[len(widgets)-1])
	return nil
}

func metricEnabled(enabled []string, metric string) bool {
	for _, m := range enabled {
		if m == metric {
			return true
		}
	}
	return false
}

type widgetRemoveCmd struct {
	ID string `arg:"" help:"Widget id."`
}

func (cmd *widgetRemoveCmd) Run(app *program) error {
	ctx := context.Background()
	model, err := loadedModel(ctx, app)
	if err != nil {
		return err
	}
	input := commands.RemoveWidgetInput{WidgetID: cmd.ID}
	if err := commands.NewRemoveWidgetCommand(model, app.telemetry).Execute(ctx, input); err != nil {
		return err
	}
	fmt.Printf("removed %s (%d widgets remain)\n", cmd.ID, len(model.Widgets()))
	return nil
}

type widgetSetRangeCmd struct {
	ID    string `arg:"" help:"Widget id."`
	Hours int    `arg:"" help:"Lookback window in hours (0 = all time)."`
}

// modelRanges adapts the model's SetTimeRange (which also returns the
// updated widget) to the command-layer signature.
type modelRanges struct {
	model *dashboard.Model
}

func (a modelRanges) SetTimeRange(ctx context.Context, id string, timeRange dashboard.TimeRange) error {
	_, err := a.model.SetTimeRange(ctx, id, timeRange)
	return err
}

func (cmd *widgetSetRangeCmd) Run(app *program) error {
	ctx := context.Background()
	model, err := loadedModel(ctx, app)
	if err != nil {
		return err
	}
	input := commands.SetTimeRangeInput{
		WidgetID:  cmd.ID,
		TimeRange: dashboard.TimeRange(cmd.Hours),
	}
	if err := commands.NewSetTimeRangeCommand(modelRanges{model: model}, app.telemetry).Execute(ctx, input); err != nil {
		return err
	}
	widget, _ := model.Widget(cmd.ID)
	fmt.Println("updated:")
	printWidget(widget)
	return nil
}
