package viewer

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

const chartHeight = "360px"

// widgetChart converts one widget's snapshot into an ECharts chart:
// a smoothed area line for client counts, a donut for distributions.
func widgetChart(snap dashboard.EngineSnapshot) components.Charter {
	switch snap.Widget.ChartType {
	case dashboard.ChartArea:
		return areaChart(snap)
	default:
		return donutChart(snap)
	}
}

func areaChart(snap dashboard.EngineSnapshot) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalChartOptions(snap.Widget)...)

	labels := make([]string, 0, len(snap.Rows))
	points := make([]opts.LineData, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		labels = append(labels, fmt.Sprintf("%v", row.Value("time")))
		points = append(points, opts.LineData{Value: row.Value("clients")})
	}
	line.SetXAxis(labels)
	line.AddSeries(string(snap.Widget.Metric), points)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.3}),
	)
	return line
}

func donutChart(snap dashboard.EngineSnapshot) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalChartOptions(snap.Widget)...)

	points := make([]opts.PieData, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		points = append(points, opts.PieData{
			Name:  fmt.Sprintf("%v", row.Value("name")),
			Value: row.Value("value"),
		})
	}
	pie.AddSeries(string(snap.Widget.Metric), points)
	pie.SetSeriesOptions(charts.WithPieChartOpts(opts.PieChart{
		Radius: []string{"55%", "75%"},
	}))
	return pie
}

func globalChartOptions(widget dashboard.Widget) []charts.GlobalOpts {
	subtitle := fmt.Sprintf("%s / %s / %s", widget.Site, widget.Device, widget.TimeRange)
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: widget.Title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "100%",
			Height: chartHeight,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

// dashboardPage assembles every widget chart into one scrollable page.
func dashboardPage(snaps []dashboard.EngineSnapshot) *components.Page {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	for _, snap := range snaps {
		page.AddCharts(widgetChart(snap))
	}
	return page
}
