package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/banshee-data/ctdconvert/internal/config"
	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/db"
	"github.com/banshee-data/ctdconvert/internal/header"
	"github.com/banshee-data/ctdconvert/internal/monitoring"
	"github.com/banshee-data/ctdconvert/internal/pipeline"
	"github.com/banshee-data/ctdconvert/internal/quicklook"
	"github.com/banshee-data/ctdconvert/internal/timeutil"
	"github.com/banshee-data/ctdconvert/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer, fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(w, "Usage: ctdconvert [flags] file...\n")
		fmt.Fprintf(w, "       ctdconvert migrate [-db path] <up|down|status|force|help>\n")
		fmt.Fprintf(w, "       ctdconvert list [-db path] [-n count] [-v]\n\n")
		fs.SetOutput(w)
		fs.PrintDefaults()
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "migrate":
			return runMigrate(args[1:], stdout, stderr)
		case "list":
			return runList(args[1:], stdout, stderr)
		}
	}

	fs := flag.NewFlagSet("ctdconvert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(stderr, fs)
	configPath := fs.String("config", "", "path to a JSON config file")
	modeName := fs.String("mode", "", "layout: profile or timeseries (default from config)")
	formatName := fs.String("format", "", "input format: sbe-cnv or rbr-dat (default: detect from extension)")
	dbPath := fs.String("db", "", "catalog database path (default from config, \"-\" to skip)")
	outDir := fs.String("out", ".", "directory for JSON output")
	plotPNG := fs.Bool("plot", false, "write a PNG quick-look next to each JSON file")
	plotHTML := fs.Bool("html", false, "write an HTML quick-look next to each JSON file")
	plotVar := fs.String("var", "", "variable drawn in quick-looks (default from config)")
	workers := fs.Int("workers", 0, "files converted at once (default from config)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "ctdconvert: %v\n", err)
		return 1
	}
	if *modeName == "" {
		*modeName = cfg.GetMode()
	}
	mode, err := dataset.ParseMode(*modeName)
	if err != nil {
		fmt.Fprintf(stderr, "ctdconvert: %v\n", err)
		return 2
	}
	var format *header.Format
	if *formatName != "" {
		if format, err = header.FormatByName(*formatName); err != nil {
			fmt.Fprintf(stderr, "ctdconvert: %v\n", err)
			return 2
		}
	}
	if *workers <= 0 {
		*workers = cfg.GetWorkers()
	}
	if *plotVar == "" {
		*plotVar = cfg.GetPlotVariable()
	}

	conv, err := pipeline.NewConverter(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "ctdconvert: %v\n", err)
		return 1
	}

	var catalog *db.DB
	if *dbPath == "" {
		*dbPath = cfg.GetCatalogPath()
	}
	if *dbPath != "-" {
		if catalog, err = db.NewDB(*dbPath); err != nil {
			fmt.Fprintf(stderr, "ctdconvert: %v\n", err)
			return 1
		}
		defer catalog.Close()
	}

	results := convertAll(conv, fs.Args(), mode, format, *workers)

	failed := 0
	for _, r := range results {
		if r.err == nil {
			r.err = writeOutputs(conv, r.ds, *outDir, *plotVar, *plotPNG, *plotHTML)
		}
		if r.err != nil {
			failed++
			fmt.Fprintf(stderr, "ctdconvert: %v\n", r.err)
		} else {
			fmt.Fprintf(stdout, "%s: %s, %d samples, time from %s\n",
				r.path, r.ds.Meta.FeatureType, r.ds.Meta.Samples, r.ds.Meta.TimeSource)
		}
		if catalog != nil {
			record(catalog, conv.Clock, r, mode, format)
		}
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "ctdconvert: %d of %d files failed\n", failed, len(results))
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Empty(), nil
	}
	return config.Load(path)
}

type result struct {
	path string
	ds   *dataset.Dataset
	err  error
}

// convertAll converts each path on its own goroutine, at most workers at a
// time. Results keep the order of paths.
func convertAll(conv *pipeline.Converter, paths []string, mode dataset.Mode, format *header.Format, workers int) []result {
	results := make([]result, len(paths))
	sem := make(chan struct{}, max(workers, 1))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			ds, err := conv.Convert(p, mode, format)
			results[i] = result{path: p, ds: ds, err: err}
		}()
	}
	wg.Wait()
	return results
}

func writeOutputs(conv *pipeline.Converter, ds *dataset.Dataset, dir, variable string, png, html bool) error {
	if _, err := conv.WriteJSON(ds, dir); err != nil {
		return &pipeline.Error{File: ds.Meta.SourceFile, Stage: "write", Err: err}
	}
	if !png && !html {
		return nil
	}

	chart, err := quicklook.Extract(ds, variable)
	if err != nil {
		monitoring.Warnf("%s: no quick-look: %v", ds.Meta.SourceFile, err)
		return nil
	}
	if png {
		if err := writeChart(conv, ds, dir, ".png", chart.WritePNG); err != nil {
			return err
		}
	}
	if html {
		if err := writeChart(conv, ds, dir, ".html", chart.WriteHTML); err != nil {
			return err
		}
	}
	return nil
}

func writeChart(conv *pipeline.Converter, ds *dataset.Dataset, dir, ext string, render func(io.Writer) error) error {
	path, err := pipeline.OutputPath(dir, ds.Meta.SourceFile, ext)
	if err != nil {
		return &pipeline.Error{File: ds.Meta.SourceFile, Stage: "write", Err: err}
	}
	f, err := conv.FS.Create(path)
	if err != nil {
		return &pipeline.Error{File: ds.Meta.SourceFile, Stage: "write", Err: err}
	}
	if err := render(f); err != nil {
		f.Close()
		return &pipeline.Error{File: ds.Meta.SourceFile, Stage: "write", Err: err}
	}
	return f.Close()
}

// record catalogues one result. Failures are stamped with clock so they
// sort alongside the conversions the same converter produced.
func record(catalog *db.DB, clock timeutil.Clock, r result, mode dataset.Mode, format *header.Format) {
	if r.err == nil {
		if err := catalog.RecordConversion(r.ds); err != nil {
			monitoring.Logf("failed to record %s: %v", r.path, err)
		}
		return
	}

	f := db.Failure{SourcePath: r.path, Mode: string(mode), Err: r.err, At: clock.Now()}
	if format != nil {
		f.Format = format.Name
	}
	var perr *pipeline.Error
	if errors.As(r.err, &perr) {
		f.Stage = perr.Stage
		f.Err = perr.Err
	}
	if _, err := catalog.RecordFailure(f); err != nil {
		monitoring.Logf("failed to record failure of %s: %v", r.path, err)
	}
}

func catalogFlags(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", config.DefaultCatalogPath, "catalog database path")
	return fs, dbPath
}

func runMigrate(args []string, stdout, stderr io.Writer) int {
	fs, dbPath := catalogFlags("migrate", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := db.RunMigrateCommand(fs.Args(), *dbPath, stdout); err != nil {
		fmt.Fprintf(stderr, "ctdconvert migrate: %v\n", err)
		return 1
	}
	return 0
}

func runList(args []string, stdout, stderr io.Writer) int {
	fs, dbPath := catalogFlags("list", stderr)
	limit := fs.Int("n", 20, "number of conversions to show, 0 for all")
	verbose := fs.Bool("v", false, "show per-variable summaries")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	catalog, err := db.NewDB(*dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "ctdconvert list: %v\n", err)
		return 1
	}
	defer catalog.Close()

	conversions, err := catalog.Conversions(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "ctdconvert list: %v\n", err)
		return 1
	}
	for _, c := range conversions {
		fmt.Fprintln(stdout, c.String())
		if !*verbose || c.Status != db.StatusOK {
			continue
		}
		vars, err := catalog.Variables(c.ID)
		if err != nil {
			fmt.Fprintf(stderr, "ctdconvert list: %v\n", err)
			return 1
		}
		for _, v := range vars {
			fmt.Fprintf(stdout, "  %-12s %-7s valid=%d%s\n", v.Name, v.Type, v.ValidCount, rangeText(v))
		}
	}
	return 0
}

func rangeText(v db.VariableSummary) string {
	if v.Min == nil || v.Max == nil {
		return ""
	}
	return fmt.Sprintf(" range=[%g, %g]", *v.Min, *v.Max)
}
