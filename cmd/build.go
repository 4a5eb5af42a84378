package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/pipeline"
	"github.com/sells-group/beer-registry/internal/registry"
	"github.com/sells-group/beer-registry/internal/report"
	"github.com/sells-group/beer-registry/internal/resolve"
)

var (
	buildSinceDays int
	buildNoEnrich  bool
	buildOut       string
	buildFormats   []string
	buildFile      string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and publish the catalog",
	Long:  "Downloads the registry feed, builds the catalog, optionally enriches it from RateBeer and writes the configured artifacts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyBuildFlags(cmd)
		if err := cfg.Validate("build"); err != nil {
			return err
		}
		return runBuild(ctx, os.Stdout, os.Stderr)
	},
}

func init() {
	buildCmd.Flags().IntVar(&buildSinceDays, "since-days", 0, "keep records registered in the last N days (default from config)")
	buildCmd.Flags().BoolVar(&buildNoEnrich, "no-enrich", false, "skip RateBeer enrichment")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output directory (default from config)")
	buildCmd.Flags().StringSliceVar(&buildFormats, "formats", nil, "artifact formats: json, html, xlsx (default from config)")
	buildCmd.Flags().StringVar(&buildFile, "file", "", "read the feed from a local file instead of downloading it")
	rootCmd.AddCommand(buildCmd)
}

// applyBuildFlags overrides config values with the flags that were set.
func applyBuildFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("since-days") {
		cfg.Registry.SinceDays = buildSinceDays
	}
	if buildNoEnrich {
		cfg.Enrich.Enabled = false
	}
	if buildOut != "" {
		cfg.Output.Dir = buildOut
	}
	if len(buildFormats) > 0 {
		cfg.Output.Formats = buildFormats
	}
}

func runBuild(ctx context.Context, stdout, stderr io.Writer) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	aliases, err := loadAliases()
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		FeedURL: cfg.Registry.URL,
		Filter: registry.Filter{
			ProductClass: cfg.Registry.ProductClass,
			Since:        cfg.Registry.Since(time.Now()),
		},
		Aliases:     aliases,
		WindowWeeks: cfg.Catalog.WindowWeeks,
		Enrich:      cfg.Enrich.Enabled,
		Publish: func(ctx context.Context, res *pipeline.Result) ([]string, error) {
			return report.Publish(ctx, cfg.Output.Dir, res.Products, res.GeneratedAt, cfg.Output.Formats)
		},
	}

	if buildFile != "" {
		opts.FeedURL = buildFile
	}

	var resolver *resolve.Resolver
	if opts.Enrich {
		resolver = newResolver(st)
	}

	p := pipeline.New(opts, newFetcher(), resolver, st)
	p.OnEnriched(enrichProgress(stderr))

	var res *pipeline.Result
	if buildFile != "" {
		f, err := os.Open(buildFile)
		if err != nil {
			return eris.Wrap(err, "build: open feed file")
		}
		defer f.Close() //nolint:errcheck
		res, err = p.RunReader(ctx, f)
		if err != nil {
			return err
		}
	} else {
		res, err = p.Run(ctx)
		if err != nil {
			return err
		}
	}

	zap.L().Info("build: catalog published",
		zap.String("run_id", res.RunID),
		zap.Int("records", res.Records),
		zap.Int("products", len(res.Products)),
		zap.Int("enriched", res.Enriched),
		zap.Strings("files", res.Files),
	)
	fmt.Fprintf(stdout, "%d products from %d records (%d enriched) in %s\n",
		len(res.Products), res.Records, res.Enriched, res.Duration.Round(time.Millisecond))
	for _, path := range res.Files {
		fmt.Fprintln(stdout, "  "+path)
	}
	return nil
}

// enrichProgress returns a progress callback drawing a bar on w. The bar is
// created on the first call, once the total is known.
func enrichProgress(w io.Writer) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Matching on RateBeer"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		if err := bar.Set(done); err != nil {
			zap.L().Warn("build: update progress bar", zap.Error(err))
		}
	}
}
