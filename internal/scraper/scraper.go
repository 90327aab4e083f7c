package scraper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	complexityColumn = "Complexity Data"
	complexityValue  = "Yes"
)

type Options struct {
	DownloadDir     string
	ComplexityOnly  bool
	DownloadTimeout time.Duration
	// PollInterval paces WaitForDownloads.
	PollInterval time.Duration
	// SettleDelay lets a clicked download start before the detail is closed.
	SettleDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		DownloadDir:     "data",
		DownloadTimeout: 50 * time.Minute,
		PollInterval:    time.Second,
		SettleDelay:     2 * time.Second,
	}
}

// Summary counts what one scrape did.
type Summary struct {
	Pages        int
	Rows         int
	Downloaded   []Dataset
	Skipped      int
	Failed       int
	Complete     bool
	OverviewRows int
}

type Scraper struct {
	portal   Portal
	opts     Options
	overview *Overview
	log      *zap.Logger
}

func New(portal Portal, opts Options, log *zap.Logger) *Scraper {
	return &Scraper{
		portal:   portal,
		opts:     opts,
		overview: NewOverview(opts.DownloadDir, log),
		log:      log,
	}
}

// Run walks every page of the portal table. Failures on a row are logged and
// the row is skipped; a failed page turn ends pagination. Only filter,
// filesystem and overview errors abort the run.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	if err := os.MkdirAll(s.opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}

	if s.opts.ComplexityOnly {
		if err := s.portal.ApplyFilter(ctx, complexityColumn, complexityValue); err != nil {
			return nil, fmt.Errorf("scraper: filter %q: %w", complexityColumn, err)
		}
	}

	sum := &Summary{}
	for {
		if err := ctx.Err(); err != nil {
			return s.interrupted(sum, err)
		}
		sum.Pages++
		log := s.log.With(zap.Int("page", sum.Pages))
		log.Info("processing page")

		rows, err := s.portal.Rows(ctx)
		if err != nil {
			log.Error("failed to read table rows", zap.Error(err))
			break
		}
		if len(rows) == 0 {
			log.Info("no data rows on page, stopping")
			break
		}

		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return s.interrupted(sum, err)
			}
			sum.Rows++
			rowLog := log.With(zap.Int("row", row.Index), zap.String("dataset", row.Dataset.Name))

			ds, downloaded, err := s.process(ctx, row, rowLog)
			switch {
			case err != nil:
				sum.Failed++
				rowLog.Error("row failed", zap.Error(err))
				if cerr := s.portal.Close(ctx); cerr != nil {
					rowLog.Debug("close after failure", zap.Error(cerr))
				}
			case downloaded:
				sum.Downloaded = append(sum.Downloaded, ds)
			default:
				sum.Skipped++
			}
		}

		more, err := s.portal.NextPage(ctx)
		if err != nil {
			log.Error("failed to move to the next page", zap.Error(err))
			break
		}
		if !more {
			break
		}
	}

	s.log.Info("waiting for downloads to complete", zap.Duration("timeout", s.opts.DownloadTimeout))
	complete, err := WaitForDownloads(ctx, s.opts.DownloadDir, s.opts.DownloadTimeout, s.opts.PollInterval)
	if err != nil {
		return s.interrupted(sum, fmt.Errorf("scraper: wait for downloads: %w", err))
	}
	sum.Complete = complete
	if !complete {
		s.log.Warn("download timeout reached, some files may be incomplete")
	}

	n, err := s.overview.Upsert(sum.Downloaded)
	if err != nil {
		return sum, err
	}
	sum.OverviewRows = n
	s.log.Info("scraping complete",
		zap.Int("downloaded", len(sum.Downloaded)),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("overview_rows", n),
		zap.String("overview", s.overview.Path))
	return sum, nil
}

// interrupted records the datasets already sent to download in the overview
// before giving up with err.
func (s *Scraper) interrupted(sum *Summary, err error) (*Summary, error) {
	n, uerr := s.overview.Upsert(sum.Downloaded)
	if uerr != nil {
		s.log.Error("failed to update overview", zap.Error(uerr))
		return sum, errors.Join(err, uerr)
	}
	sum.OverviewRows = n
	s.log.Warn("scraping interrupted",
		zap.Int("downloaded", len(sum.Downloaded)),
		zap.Int("overview_rows", n),
		zap.Error(err))
	return sum, err
}

// process opens one dataset and downloads it unless the files on disk are
// already current. The detail is closed on every successful path.
func (s *Scraper) process(ctx context.Context, row Row, log *zap.Logger) (Dataset, bool, error) {
	detail, err := s.portal.Open(ctx, row)
	if err != nil {
		return Dataset{}, false, err
	}
	ds := row.Dataset.WithDetail(detail)

	if !detail.CanDownload {
		log.Warn("no download button in detail")
		return ds, false, s.portal.Close(ctx)
	}

	if !safeFilename(ds.Filename) {
		return ds, false, fmt.Errorf("%w: %q", ErrBadFilename, ds.Filename)
	}

	target := filepath.Join(s.opts.DownloadDir, ds.Filename)
	features := FeaturePath(s.opts.DownloadDir, ds.Filename)
	if exists(target) {
		if exists(features) {
			current, err := s.overview.Current(ds)
			if err != nil {
				return ds, false, err
			}
			if current {
				log.Info("already up to date", zap.String("filename", ds.Filename))
				return ds, false, s.portal.Close(ctx)
			}
			if err := os.Remove(features); err != nil {
				return ds, false, err
			}
		}
		if err := os.Remove(target); err != nil {
			return ds, false, err
		}
	}

	if _, err := WriteFeatureDescription(s.opts.DownloadDir, ds.Filename, detail.Features); err != nil {
		log.Warn("could not save feature description", zap.Error(err))
	}
	if err := s.portal.Download(ctx); err != nil {
		return ds, false, err
	}
	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return ds, false, err
	}
	log.Info("downloading", zap.String("filename", ds.Filename))

	if err := s.portal.Close(ctx); err != nil {
		log.Debug("close after download", zap.Error(err))
	}
	return ds, true, nil
}

// safeFilename accepts a plain file name that stays inside the download dir.
func safeFilename(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return name == filepath.Base(name) && !strings.ContainsAny(name, `/\`)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
