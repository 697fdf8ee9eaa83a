package viewer

import (
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
	"github.com/sitewatch/sitewatch/components/dashboard/commands"
)

// Options configures the local viewer.
type Options struct {
	Runtime   *dashboard.Runtime
	Telemetry dashboard.Telemetry
}

// Viewer serves the dashboard as server-rendered ECharts HTML plus a
// small JSON API. Widget mutations go through the same command layer
// the CLI uses; refresh-generation bumps stream out over a websocket so
// open pages know when to re-pull.
type Viewer struct {
	runtime   *dashboard.Runtime
	telemetry dashboard.Telemetry

	addCmd     *commands.AddWidgetCommand
	removeCmd  *commands.RemoveWidgetCommand
	rangeCmd   *commands.SetTimeRangeCommand
	refreshCmd *commands.RefreshAllCommand
	reloadCmd  *commands.ReloadDashboardCommand

	app *fiber.App
}

// New builds the viewer and mounts its routes.
func New(opts Options) (*Viewer, error) {
	if opts.Runtime == nil {
		return nil, fmt.Errorf("viewer: runtime is required")
	}
	v := &Viewer{
		runtime:    opts.Runtime,
		telemetry:  opts.Telemetry,
		addCmd:     commands.NewAddWidgetCommand(opts.Runtime, opts.Telemetry),
		removeCmd:  commands.NewRemoveWidgetCommand(opts.Runtime, opts.Telemetry),
		rangeCmd:   commands.NewSetTimeRangeCommand(opts.Runtime, opts.Telemetry),
		refreshCmd: commands.NewRefreshAllCommand(opts.Runtime.Broadcast, opts.Telemetry),
		reloadCmd:  commands.NewReloadDashboardCommand(opts.Runtime, opts.Telemetry),
	}
	v.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "sitewatch viewer",
	})
	v.mount()
	return v, nil
}

// App exposes the fiber application for serving and tests.
func (v *Viewer) App() *fiber.App { return v.app }

// Listen serves until the listener fails or Shutdown is called.
func (v *Viewer) Listen(addr string) error {
	return v.app.Listen(addr)
}

// Shutdown stops the HTTP server gracefully.
func (v *Viewer) Shutdown() error {
	return v.app.Shutdown()
}

func (v *Viewer) mount() {
	v.app.Get("/", v.handlePage)
	v.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := v.app.Group("/api")
	api.Get("/widgets", v.handleWidgets)
	api.Post("/widgets", v.handleAddWidget)
	api.Delete("/widgets/:id", v.handleRemoveWidget)
	api.Put("/widgets/:id/time-range", v.handleSetTimeRange)
	api.Post("/refresh", v.handleRefreshAll)
	api.Post("/reload", v.handleReload)
	api.Get("/sync-status", v.handleSyncStatus)
	api.Get("/summary", v.handleSummary)
	api.Get("/schema", v.handleSchema)

	v.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	v.app.Get("/ws", websocket.New(v.streamGenerations))
}

// handlePage renders the whole dashboard as one ECharts page.
func (v *Viewer) handlePage(c *fiber.Ctx) error {
	page := dashboardPage(v.runtime.Snapshots())
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return page.Render(c.Response().BodyWriter())
}

type widgetView struct {
	Widget    dashboard.Widget `json:"widget"`
	Rows      []rowView        `json:"rows"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	FetchedAt string           `json:"fetched_at,omitempty"`
}

type rowView struct {
	Columns []string       `json:"columns"`
	Values  map[string]any `json:"values"`
}

func snapshotView(snap dashboard.EngineSnapshot) widgetView {
	view := widgetView{
		Widget:  snap.Widget,
		Rows:    make([]rowView, 0, len(snap.Rows)),
		Loading: snap.Loading,
	}
	if snap.LastError != nil {
		view.Error = snap.LastError.Error()
	}
	if !snap.FetchedAt.IsZero() {
		view.FetchedAt = snap.FetchedAt.Format("2006-01-02 15:04:05")
	}
	for _, row := range snap.Rows {
		view.Rows = append(view.Rows, rowView{Columns: row.Columns, Values: row.Values})
	}
	return view
}

func (v *Viewer) handleWidgets(c *fiber.Ctx) error {
	snaps := v.runtime.Snapshots()
	views := make([]widgetView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, snapshotView(snap))
	}
	return c.JSON(fiber.Map{
		"widgets":    views,
		"message":    v.runtime.Model.Message(),
		"generation": v.runtime.Broadcast.Generation(),
	})
}

func (v *Viewer) handleAddWidget(c *fiber.Ctx) error {
	var input commands.AddWidgetInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := v.addCmd.Execute(c.Context(), input); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success"})
}

func (v *Viewer) handleRemoveWidget(c *fiber.Ctx) error {
	input := commands.RemoveWidgetInput{WidgetID: c.Params("id")}
	if err := v.removeCmd.Execute(c.Context(), input); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (v *Viewer) handleSetTimeRange(c *fiber.Ctx) error {
	var body struct {
		TimeRange int `json:"time_range"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	input := commands.SetTimeRangeInput{
		WidgetID:  c.Params("id"),
		TimeRange: dashboard.TimeRange(body.TimeRange),
	}
	if err := v.rangeCmd.Execute(c.Context(), input); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (v *Viewer) handleRefreshAll(c *fiber.Ctx) error {
	if err := v.refreshCmd.Execute(c.Context(), commands.RefreshAllInput{}); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"generation": v.runtime.Broadcast.Generation()})
}

func (v *Viewer) handleReload(c *fiber.Ctx) error {
	if v.runtime.Sync.Busy() {
		// Matches the disabled trigger control: no duplicate job
		// submissions while a sync or load is in flight.
		return fiber.NewError(fiber.StatusConflict, "sync already in progress")
	}
	if err := v.reloadCmd.Execute(c.Context(), commands.ReloadDashboardInput{}); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (v *Viewer) handleSyncStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   v.runtime.Sync.Status(),
		"busy":     v.runtime.Sync.Busy(),
		"progress": v.runtime.Sync.Progress(),
	})
}

func (v *Viewer) handleSummary(c *fiber.Ctx) error {
	summary, ok := v.runtime.Board.Current()
	if !ok {
		return c.JSON(fiber.Map{"present": false})
	}
	return c.JSON(fiber.Map{"present": true, "summary": summary})
}

func (v *Viewer) handleSchema(c *fiber.Ctx) error {
	return c.JSON(dashboard.WidgetSchema(v.runtime.Model.SiteMap()))
}

// streamGenerations pushes refresh-generation bumps to the page so it
// re-pulls widget data right after a bulk sync lands.
func (v *Viewer) streamGenerations(conn *websocket.Conn) {
	defer conn.Close()
	ch, cancel := v.runtime.Broadcast.Subscribe()
	defer cancel()
	for gen := range ch {
		if err := conn.WriteJSON(fiber.Map{"generation": gen}); err != nil {
			return
		}
	}
}
