package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"phtrending/lib/chrono"
	"phtrending/lib/snapshot"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("summary")
var meter = otel.Meter("summary")

// ErrNoSnapshots is returned when the output directory holds no snapshot
// files, in which case nothing is written.
var ErrNoSnapshots = errors.New("no snapshot files found")

type Options struct {
	Dir string
	// defaults to chrono.NewStandardTime()
	Time chrono.TimeAPI
}

type Aggregator struct {
	dir  string
	time chrono.TimeAPI

	skipped metric.Int64Counter
}

func NewAggregator(opts Options) Aggregator {
	t := opts.Time
	if t == nil {
		t = chrono.NewStandardTime()
	}
	skipped, err := meter.Int64Counter(
		"summary.snapshots_skipped",
		metric.WithDescription("Number of snapshot files that could not be read."),
	)
	if err != nil {
		slog.Warn("failed to create skipped snapshots counter", "err", err)
	}
	return Aggregator{
		dir:     opts.Dir,
		time:    t,
		skipped: skipped,
	}
}

type Result struct {
	Summary Summary
	// every snapshot file that was considered, newest first
	Files   []string
	Skipped []*snapshot.ReadError
}

// Aggregate rebuilds the summary from the snapshot files on disk. Files that
// cannot be read are skipped and reported in Result.Skipped.
func (a Aggregator) Aggregate(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "Aggregate")
	defer span.End()

	paths, err := snapshot.List(a.dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("list snapshots: %w", err)
	}
	if len(paths) == 0 {
		return Result{}, ErrNoSnapshots
	}

	result := Result{
		Summary: Summary{
			LastUpdated: snapshot.FormatTimestamp(a.time.Now()),
			DataPoints:  make([]DataPoint, 0, len(paths)),
		},
		Files: paths,
	}
	for _, path := range paths {
		doc, err := snapshot.Read(path)
		if err != nil {
			var readErr *snapshot.ReadError
			if !errors.As(err, &readErr) {
				readErr = &snapshot.ReadError{Path: path, Reason: "unreadable", Err: err}
			}
			slog.WarnContext(
				ctx, "skipping snapshot",
				"path", path,
				"reason", readErr.Reason,
				"excerpt", readErr.Excerpt,
				"err", readErr.Err,
			)
			result.Skipped = append(result.Skipped, readErr)
			if a.skipped != nil {
				a.skipped.Add(ctx, 1)
			}
			continue
		}
		result.Summary.DataPoints = append(result.Summary.DataPoints, NewDataPoint(doc))
	}

	span.SetAttributes(
		attribute.Int("custom.files", len(paths)),
		attribute.Int("custom.skipped", len(result.Skipped)),
	)
	return result, nil
}

// Write replaces summary.json in the output directory with `summary`.
func (a Aggregator) Write(ctx context.Context, summary Summary) (string, error) {
	_, span := tracer.Start(ctx, "WriteSummary")
	defer span.End()

	contents, err := snapshot.EncodeJSON(summary)
	if err != nil {
		return "", err
	}
	path := filepath.Join(a.dir, snapshot.SummaryName)
	err = snapshot.WriteFile(path, contents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("write %s: %w", snapshot.SummaryName, err)
	}
	return path, nil
}

// Run aggregates and writes the result. With no snapshot files it returns
// ErrNoSnapshots and leaves any existing summary.json alone.
func (a Aggregator) Run(ctx context.Context) (Result, error) {
	result, err := a.Aggregate(ctx)
	if err != nil {
		return Result{}, err
	}
	_, err = a.Write(ctx, result.Summary)
	if err != nil {
		return Result{}, err
	}
	slog.InfoContext(
		ctx, "summary updated",
		"data_points", len(result.Summary.DataPoints),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// Load reads a summary.json previously written to `dir`.
func Load(dir string) (Summary, error) {
	contents, err := os.ReadFile(filepath.Join(dir, snapshot.SummaryName))
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = json.Unmarshal(contents, &summary)
	if err != nil {
		return Summary{}, fmt.Errorf("parse %s: %w", snapshot.SummaryName, err)
	}
	return summary, nil
}
