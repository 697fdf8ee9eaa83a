package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/components/dashboard"
	"github.com/sitewatch/sitewatch/pkg/apiclient"
)

type cli struct {
	Config  string `type:"path" default:"~/.config/sitewatch/config.yaml" help:"Path to the YAML config file."`
	Verbose bool   `short:"v" help:"Enable debug logging."`
	Demo    bool   `help:"Run against a built-in demo backend instead of a live API."`

	Login   loginCmd   `cmd:"" help:"Authenticate against the analyzer API and persist the session."`
	Logout  logoutCmd  `cmd:"" help:"Drop the persisted session."`
	Load    loadCmd    `cmd:"" help:"Run the bulk load and print topology and widget list."`
	Widget  widgetCmd  `cmd:"" help:"Inspect and mutate the persisted widget list."`
	Summary summaryCmd `cmd:"" help:"Print the headline summary block for one site."`
	Watch   watchCmd   `cmd:"" help:"Run the refresh engines and stream widget snapshots to the terminal."`
	Serve   serveCmd   `cmd:"" help:"Serve the dashboard as a local web page."`
	Export  exportCmd  `cmd:"" help:"Export the dashboard or a single widget."`
	Admin   adminCmd   `cmd:"" help:"Administrative operations (role-gated server side)."`
}

// program carries the wired collaborators every command runs against.
type program struct {
	cfg       fileConfig
	log       *zap.Logger
	sessions  dashboard.SessionStore
	client    *apiclient.Client
	backend   dashboard.Backend
	telemetry dashboard.Telemetry
}

func main() {
	root := &cli{}
	parser := kong.Parse(root,
		kong.Name("sitewatch"),
		kong.Description("Network-telemetry dashboard client: widgets, sync watching, and report export."),
		kong.UsageOnError(),
	)

	app, err := newProgram(root)
	parser.FatalIfErrorf(err)
	defer func() { _ = app.log.Sync() }()

	parser.FatalIfErrorf(parser.Run(app))
}

func newProgram(root *cli) (*program, error) {
	log, err := newLogger(root.Verbose)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return nil, err
	}
	if root.Demo {
		cfg.Demo = true
	}

	sessions := dashboard.NewFileSessionStore(cfg.SessionPath)
	client, err := apiclient.New(apiclient.Config{
		BaseURL:  cfg.BaseURL,
		Sessions: sessions,
		OnUnauthorized: func() {
			log.Warn("session expired, run `sitewatch login` again")
		},
	})
	if err != nil {
		return nil, err
	}

	app := &program{
		cfg:       cfg,
		log:       log,
		sessions:  sessions,
		client:    client,
		backend:   client,
		telemetry: zapTelemetry{log: log},
	}
	if cfg.Demo {
		app.backend = apiclient.NewMock()
	}
	return app, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// zapTelemetry binds the component Telemetry interface to zap.
type zapTelemetry struct {
	log *zap.Logger
}

func (t zapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	fields := make([]zap.Field, 0, len(payload))
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, payload[k]))
	}
	t.log.Debug(event, fields...)
}

type loginCmd struct {
	Username string `arg:"" help:"Account name."`
	Password string `help:"Password; prompted for when omitted." env:"SITEWATCH_PASSWORD"`
}

func (cmd *loginCmd) Run(app *program) error {
	password := cmd.Password
	if password == "" {
		fmt.Fprint(os.Stderr, "password: ")
		if _, err := fmt.Scanln(&password); err != nil {
			return fmt.Errorf("sitewatch: read password: %w", err)
		}
	}
	session, err := app.client.Login(context.Background(), cmd.Username, password)
	if err != nil {
		return err
	}
	app.log.Info("logged in",
		zap.String("user", session.User.Username),
		zap.String("role", session.User.Role),
	)
	return nil
}

type logoutCmd struct{}

func (cmd *logoutCmd) Run(app *program) error {
	if err := app.client.Logout(); err != nil {
		return err
	}
	app.log.Info("logged out")
	return nil
}

type loadCmd struct{}

func (cmd *loadCmd) Run(app *program) error {
	result, err := app.backend.Load(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	fmt.Printf("role: %s\n\nsites:\n", result.Role)

	sites := make([]string, 0, len(result.SiteMap))
	for site := range result.SiteMap {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	for _, site := range sites {
		fmt.Printf("  %-20s %v\n", site, result.SiteMap.Devices(site))
	}

	fmt.Printf("\nwidgets (%d):\n", len(result.Widgets))
	for _, w := range result.Widgets {
		printWidget(w)
	}
	return nil
}

type summaryCmd struct {
	Site string `arg:"" optional:"" help:"Site name; defaults to the all-sites view."`
}

func (cmd *summaryCmd) Run(app *program) error {
	site := cmd.Site
	if site == "" {
		site = dashboard.AllSites
	}
	summary, err := app.backend.SiteSummary(context.Background(), site)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n  connectivity: %s\n  alerts: %d\n  clients: %d\n",
		summary.Site, summary.Connectivity, summary.Alerts, summary.TotalClients)
	return nil
}

func printWidget(w dashboard.Widget) {
	fmt.Printf("  %-24s %-20s %s @ %s/%s (%s)\n",
		w.ID, w.Title, w.Metric, w.Site, w.Device, w.TimeRange)
}
