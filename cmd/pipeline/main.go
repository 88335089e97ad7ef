// Command pipeline runs the full analysis: fetch the source CSVs, reconcile
// them into the weekly panel, fit the statistical models and write every
// report artifact.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"covidcli/internal/config"
	"covidcli/internal/dataset"
	"covidcli/internal/exporter"
	"covidcli/internal/htmlgen"
	"covidcli/internal/infrastructure"
	"covidcli/internal/reconcile"
	"covidcli/internal/report"
	"covidcli/internal/sources"
	"covidcli/internal/stats"
)

func main() {
	configFile := flag.String("config", "", "path to YAML configuration file")
	country := flag.String("country", "", "country to analyze")
	threshold := flag.Float64("threshold", 0, "vaccination rate threshold in [0,1]")
	from := flag.String("from", "", "analysis start date (YYYY-MM-DD)")
	to := flag.String("to", "", "analysis end date (YYYY-MM-DD)")
	period := flag.String("period", "", "aggregation period: weekly or monthly")
	skipFetch := flag.Bool("skip-fetch", false, "reuse previously downloaded raw CSVs")
	outDir := flag.String("out", "", "override the reports directory")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags beat both the file and the environment, but only when set.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "country":
			cfg.Analysis.Country = *country
		case "threshold":
			cfg.Analysis.VaccinationThreshold = *threshold
		case "from":
			cfg.Analysis.StartDate = *from
		case "to":
			cfg.Analysis.EndDate = *to
		case "period":
			cfg.Analysis.Period = *period
		case "out":
			cfg.Paths.ReportsDir = *outDir
		}
	})
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *skipFetch, logger); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, skipFetch bool, logger *slog.Logger) error {
	descriptors := sources.Descriptors(cfg.Sources)

	if skipFetch {
		logger.InfoContext(ctx, "skipping fetch, using existing raw data",
			"raw_dir", cfg.Paths.RawDir)
	} else {
		fetcher := sources.NewFetcher(cfg.Sources, cfg.Paths.RawDir, logger)
		if err := fetcher.FetchAll(ctx, descriptors); err != nil {
			return err
		}
	}

	names := sources.ResolveCountry(cfg.Analysis.Country)
	observations := make(map[string][]dataset.Observation, len(descriptors))
	for _, d := range descriptors {
		obs, err := sources.Load(cfg.Paths.RawDir, d, d.CountryFor(names))
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "loaded source observations",
			"source", d.Name, "rows", len(obs))
		observations[d.Name] = obs
	}

	start, end, err := cfg.Analysis.DateRange()
	if err != nil {
		return err
	}

	reconciler := reconcile.NewReconciler(reconcile.Options{
		Start:      start,
		End:        end,
		WeekEnding: cfg.Analysis.WeekEnding(),
		Period:     reconcile.Period(cfg.Analysis.Period),
	}, logger)

	rec, err := reconciler.Reconcile(ctx, reconcile.Inputs{
		OWID: observations[sources.SourceOWID],
		WHO:  observations[sources.SourceWHO],
		NYT:  observations[sources.SourceNYT],
	})
	if err != nil {
		return err
	}

	estimator := stats.NewEstimator(cfg.Analysis.VaccinationThreshold, logger)
	results := estimator.Estimate(ctx, rec.Periods, rec.Daily,
		reconcile.Period(cfg.Analysis.Period), cfg.Analysis.WeekEnding())

	assembled := report.NewAssembler(cfg.Analysis, logger).Assemble(ctx, rec, results)

	writer := report.NewWriter(cfg.Paths.ReportsDir, logger)
	if err := writer.WriteAll(ctx, assembled); err != nil {
		return err
	}

	csvWriter := exporter.NewCSVWriter(cfg.Paths, logger)
	if _, err := csvWriter.WriteWeeklyTable(ctx, rec.Periods); err != nil {
		return err
	}
	if _, err := csvWriter.WriteComparison(ctx, rec.Comparison); err != nil {
		return err
	}
	if _, err := exporter.NewWorkbookWriter(cfg.Paths, logger).Write(ctx, rec.Periods, rec.Comparison); err != nil {
		return err
	}

	generator, err := htmlgen.NewGenerator(cfg.Paths.WebDir, logger)
	if err != nil {
		return err
	}
	if _, err := generator.Generate(ctx, assembled); err != nil {
		return err
	}

	logger.InfoContext(ctx, "pipeline finished",
		"run_id", assembled.Metadata.RunID,
		"weeks", assembled.Metadata.Weeks,
		"reports_dir", cfg.Paths.ReportsDir)
	return nil
}
