// Command mureport renders summary output from a muscan database: an
// HTML dashboard with category counts, mean charge-weighted ratio
// curves and an impact-factor scatter, a PDF transverse-momentum
// spectrum per category, and a text table of summary statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/vg"

	"github.com/dispmuon/displacement.report/internal/db"
	"github.com/dispmuon/displacement.report/internal/monitoring"
	"github.com/dispmuon/displacement.report/internal/muon"
)

func main() {
	var (
		dbPath = flag.String("db", "muons.db", "muscan SQLite database path")
		runID  = flag.String("run", "", "restrict the report to one run (default: all runs)")
		outDir = flag.String("o", "report", "output directory")
	)
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		monitoring.Logf("open database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		monitoring.Logf("create output directory: %v", err)
		os.Exit(1)
	}

	if err := report(database, *runID, *outDir); err != nil {
		monitoring.Logf("report: %v", err)
		os.Exit(1)
	}
}

func report(database *db.DB, runID, outDir string) error {
	counts, err := database.CategoryCounts(runID)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.AddCharts(countsChart(counts))

	ratioChart, err := meanRatioChart(database, runID)
	if err != nil {
		return err
	}
	page.AddCharts(ratioChart)

	for _, cat := range muon.Categories() {
		scatter, err := impactScatter(database, runID, cat.String())
		if err != nil {
			return err
		}
		page.AddCharts(scatter)
	}

	htmlPath := filepath.Join(outDir, "report.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", htmlPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render %s: %w", htmlPath, err)
	}
	monitoring.Logf("wrote %s", htmlPath)

	for _, cat := range muon.Categories() {
		pts, err := database.FeatureColumn(runID, cat.String(), "pt")
		if err != nil {
			return err
		}
		if err := ptSpectrum(outDir, cat.String(), pts); err != nil {
			return err
		}
		printSummary(cat.String(), pts)
	}
	return nil
}

// countsChart builds the per-category muon count bar chart.
func countsChart(counts map[string]int64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Muons per category"}))

	var names []string
	var data []opts.BarData
	for _, cat := range muon.Categories() {
		names = append(names, cat.String())
		data = append(data, opts.BarData{Value: counts[cat.String()]})
	}
	bar.SetXAxis(names).AddSeries("muons", data)
	return bar
}

// meanRatioChart plots the mean charge-weighted ratio against the
// weighting exponent, one line per category.
func meanRatioChart(database *db.DB, runID string) (*charts.Line, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Mean charge-weighted ratio",
		Subtitle: "per pt-weighting exponent",
	}))

	var exponents []string
	for k := 0; k < muon.NumRatioExponents; k++ {
		exponents = append(exponents, fmt.Sprintf("%.1f", muon.RatioExponent(k)))
	}
	line.SetXAxis(exponents)

	for _, cat := range muon.Categories() {
		curve, err := database.MeanRatioCurve(runID, cat.String())
		if err != nil {
			return nil, err
		}
		data := make([]opts.LineData, muon.NumRatioExponents)
		for k, v := range curve {
			data[k] = opts.LineData{Value: v}
		}
		line.AddSeries(cat.String(), data)
	}
	return line, nil
}

// impactScatter plots the impact factor against the summed nearby
// track pt for one category.
func impactScatter(database *db.DB, runID, category string) (*charts.Scatter, error) {
	impact, err := database.FeatureColumn(runID, category, "impact_factor")
	if err != nil {
		return nil, err
	}
	sumPt, err := database.FeatureColumn(runID, category, "sum_extra_pt")
	if err != nil {
		return nil, err
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title: fmt.Sprintf("Impact factor vs nearby pt (%s)", category),
	}))

	data := make([]opts.ScatterData, 0, len(impact))
	for i := range impact {
		if i >= len(sumPt) {
			break
		}
		data = append(data, opts.ScatterData{Value: []any{impact[i], sumPt[i]}})
	}
	scatter.AddSeries(category, data)
	return scatter, nil
}

// ptSpectrum writes a PDF histogram of the transverse momenta for one
// category.
func ptSpectrum(outDir, category string, pts []float64) error {
	h := hbook.NewH1D(50, 0, 200)
	for _, pt := range pts {
		h.Fill(pt, 1)
	}

	p := hplot.New()
	p.Title.Text = fmt.Sprintf("Muon pt (%s)", category)
	p.X.Label.Text = "pt [GeV]"
	p.Y.Label.Text = "muons"
	p.Add(hplot.NewH1D(h))

	path := filepath.Join(outDir, fmt.Sprintf("pt_%s.pdf", category))
	if err := p.Save(15*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	monitoring.Logf("wrote %s", path)
	return nil
}

// printSummary logs mean, spread and quartiles of the pt spectrum for
// one category.
func printSummary(category string, pts []float64) {
	if len(pts) == 0 {
		monitoring.Logf("%s: no muons", category)
		return
	}

	sorted := make([]float64, len(pts))
	copy(sorted, pts)
	sort.Float64s(sorted)

	monitoring.Logf("%s: n=%d mean pt=%.2f stddev=%.2f q25=%.2f median=%.2f q75=%.2f",
		category, len(pts),
		stat.Mean(pts, nil), stat.StdDev(pts, nil),
		stat.Quantile(0.25, stat.Empirical, sorted, nil),
		stat.Quantile(0.50, stat.Empirical, sorted, nil),
		stat.Quantile(0.75, stat.Empirical, sorted, nil),
	)
}
