package scan

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gubarz/cmtscan/internal/logging"
)

// ProgressReporter receives callbacks while files are scanned. OnFileScanned
// is called from worker goroutines and must be safe for concurrent use.
type ProgressReporter interface {
	OnScanStart(totalFiles int)
	OnFileScanned(outcome Outcome)
	OnScanComplete(stats Stats)
}

// NoOpProgressReporter ignores all progress callbacks
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnScanStart(totalFiles int)    {}
func (NoOpProgressReporter) OnFileScanned(outcome Outcome) {}
func (NoOpProgressReporter) OnScanComplete(stats Stats)    {}

// FileError records a file that could not be scanned
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Stats summarises a workspace scan
type Stats struct {
	Files       int
	Scanned     int
	Skipped     map[Reason]int
	Failed      int
	Annotations int
}

// Result is everything a workspace scan produced
type Result struct {
	Annotations []Annotation // In input file order, then line order
	Failures    []FileError
	Stats       Stats
}

// ScanFiles scans files with up to Options.Workers goroutines. A file that
// fails does not stop the others; its error lands in Result.Failures. The
// only error returned is ctx's, and progress is completed even then.
func (s *Scanner) ScanFiles(ctx context.Context, files []string, progress ProgressReporter) (*Result, error) {
	if progress == nil {
		progress = NoOpProgressReporter{}
	}
	progress.OnScanStart(len(files))

	outcomes := make([]Outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.ScanFile(path)
			progress.OnFileScanned(outcomes[i])
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		// Close out the reporter with what finished before cancellation
		progress.OnScanComplete(collect(finished(outcomes)).Stats)
		return nil, err
	}

	result := collect(outcomes)
	progress.OnScanComplete(result.Stats)
	return result, nil
}

// finished drops the slots of files that were never scanned
func finished(outcomes []Outcome) []Outcome {
	done := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Path != "" {
			done = append(done, o)
		}
	}
	return done
}

func collect(outcomes []Outcome) *Result {
	result := &Result{
		Annotations: make([]Annotation, 0),
		Stats: Stats{
			Files:   len(outcomes),
			Skipped: make(map[Reason]int),
		},
	}

	for _, o := range outcomes {
		switch o.Status {
		case StatusScanned:
			result.Stats.Scanned++
			result.Annotations = append(result.Annotations, o.Annotations...)
		case StatusSkipped:
			result.Stats.Skipped[o.Reason]++
			logging.Debug("skipped file", zap.String("path", o.Path), zap.Stringer("status", o.Status), zap.String("reason", string(o.Reason)))
		case StatusFailed:
			result.Stats.Failed++
			result.Failures = append(result.Failures, FileError{Path: o.Path, Err: o.Err})
			logging.Warn("failed to scan file", zap.String("path", o.Path), zap.Error(o.Err))
		}
	}
	result.Stats.Annotations = len(result.Annotations)
	return result
}

// SortForDisplay returns a copy of annotations ordered by marker token. The
// sort is stable, so file and line order is kept within a marker.
func SortForDisplay(annotations []Annotation) []Annotation {
	sorted := make([]Annotation, len(annotations))
	copy(sorted, annotations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Marker.Token < sorted[j].Marker.Token
	})
	return sorted
}
