package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"productspace/internal/scraper"
	"productspace/internal/scraper/rodportal"
)

type scrapeOptions struct {
	url            string
	downloadDir    string
	complexityOnly bool
	headless       bool
	bin            string
}

func NewScrapeCmd() *cobra.Command {
	opts := &scrapeOptions{}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Download datasets and feature descriptions from the Atlas portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			return runScrape(cmd, env, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "portal URL (overrides config)")
	f.StringVar(&opts.downloadDir, "download-dir", "", "where datasets are saved (overrides config)")
	f.BoolVar(&opts.complexityOnly, "complexity-only", false, "only datasets that carry complexity data")
	f.BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	f.StringVar(&opts.bin, "browser", "", "browser binary (default: detect or download)")
	return cmd
}

func scrapeSettings(cmd *cobra.Command, env *Env, opts *scrapeOptions) (rodportal.Options, scraper.Options) {
	sc := env.Config.Scrape
	f := cmd.Flags()
	if f.Changed("url") {
		sc.URL = opts.url
	}
	if f.Changed("download-dir") {
		sc.DownloadDir = opts.downloadDir
	}
	if f.Changed("complexity-only") {
		sc.ComplexityOnly = opts.complexityOnly
	}
	if f.Changed("headless") {
		sc.Headless = opts.headless
	}

	browser := rodportal.Options{
		URL:         sc.URL,
		DownloadDir: sc.DownloadDir,
		Headless:    sc.Headless,
		Timeout:     sc.Timeout,
		Bin:         opts.bin,
	}
	so := scraper.DefaultOptions()
	so.DownloadDir = sc.DownloadDir
	so.ComplexityOnly = sc.ComplexityOnly
	if sc.DownloadTimeout > 0 {
		so.DownloadTimeout = sc.DownloadTimeout
	}
	return browser, so
}

func runScrape(cmd *cobra.Command, env *Env, opts *scrapeOptions) error {
	ctx := cmd.Context()
	browserOpts, scraperOpts := scrapeSettings(cmd, env, opts)

	portal, err := rodportal.Launch(ctx, browserOpts, env.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := portal.Shutdown(); err != nil {
			env.Logger.Warn("browser shutdown", zap.Error(err))
		}
	}()

	sum, err := scraper.New(portal, scraperOpts, env.Logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pages %d, rows %d, downloaded %d, skipped %d, failed %d, complete %t\n",
		sum.Pages, sum.Rows, len(sum.Downloaded), sum.Skipped, sum.Failed, sum.Complete)
	return nil
}
