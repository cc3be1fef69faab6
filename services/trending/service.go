package trending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"phtrending/lib/chrono"
	"phtrending/lib/htmlindex"
	"phtrending/lib/platforms/producthunt"
	"phtrending/lib/snapshot"
	"phtrending/lib/summary"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/trending")

type Fetcher interface {
	FetchPosts(ctx context.Context) ([]producthunt.Post, error)
}

type Recorder interface {
	Record(ctx context.Context, doc snapshot.Document) error
}

type Notifier interface {
	Send(ctx context.Context, s summary.Summary) error
}

type Options struct {
	OutputDir string
	Retention snapshot.Retention
	// defaults to chrono.NewStandardTime()
	Time    chrono.TimeAPI
	Fetcher Fetcher

	// the remaining steps are skipped when left unset
	History   Recorder
	HTMLIndex bool
	Digest    Notifier
}

type Service struct {
	fetcher    Fetcher
	writer     snapshot.Writer
	aggregator summary.Aggregator

	history   Recorder
	htmlIndex bool
	digest    Notifier
	outputDir string
}

func NewService(opts Options) Service {
	t := opts.Time
	if t == nil {
		t = chrono.NewStandardTime()
	}
	return Service{
		fetcher: opts.Fetcher,
		writer: snapshot.NewWriter(snapshot.WriterOptions{
			Dir:       opts.OutputDir,
			Retention: opts.Retention,
			Time:      t,
		}),
		aggregator: summary.NewAggregator(summary.Options{
			Dir:  opts.OutputDir,
			Time: t,
		}),
		history:   opts.History,
		htmlIndex: opts.HTMLIndex,
		digest:    opts.Digest,
		outputDir: opts.OutputDir,
	}
}

// Fetch returns the current trending posts without touching the output
// directory.
func (s Service) Fetch(ctx context.Context) ([]producthunt.Post, error) {
	posts, err := s.fetcher.FetchPosts(ctx)
	if err != nil {
		var malformed *producthunt.MalformedResponseError
		if errors.As(err, &malformed) {
			slog.ErrorContext(ctx, "unexpected response payload", "payload", malformed.Excerpt())
		}
		return nil, err
	}
	return posts, nil
}

// Aggregate rebuilds summary.json from the snapshots already on disk.
func (s Service) Aggregate(ctx context.Context) (summary.Result, error) {
	return s.aggregator.Run(ctx)
}

type RunResult struct {
	SnapshotPath string
	Snapshot     snapshot.Snapshot
	Summary      summary.Result
	// empty unless the html index is enabled
	IndexPath string
	// failures of the optional steps, they do not fail the run
	StepErrors []error
}

// Run fetches the trending posts, stores them as a new snapshot and
// refreshes the summary. History, html index and digest run afterwards if
// configured.
func (s Service) Run(ctx context.Context) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	fail := func(err error) (RunResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunResult{}, err
	}

	posts, err := s.Fetch(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch posts: %w", err))
	}
	path, snap, err := s.writer.Write(ctx, posts)
	if err != nil {
		return fail(err)
	}
	slog.InfoContext(ctx, "saved snapshot", "path", path, "posts", len(snap.Posts))

	aggregated, err := s.aggregator.Run(ctx)
	if err != nil {
		return fail(fmt.Errorf("aggregate: %w", err))
	}

	result := RunResult{
		SnapshotPath: path,
		Snapshot:     snap,
		Summary:      aggregated,
	}
	s.runSteps(ctx, &result)

	span.SetAttributes(
		attribute.Int("custom.posts", len(snap.Posts)),
		attribute.Int("custom.step_errors", len(result.StepErrors)),
	)
	return result, nil
}

func (s Service) runSteps(ctx context.Context, result *RunResult) {
	stepFailed := func(step string, err error) {
		slog.WarnContext(ctx, "step failed", "step", step, "err", err)
		result.StepErrors = append(result.StepErrors, fmt.Errorf("%s: %w", step, err))
	}

	if s.history != nil {
		doc, err := snapshot.Read(result.SnapshotPath)
		if err == nil {
			err = s.history.Record(ctx, doc)
		}
		if err != nil {
			stepFailed("history", err)
		}
	}

	if s.htmlIndex {
		path, err := htmlindex.Write(s.outputDir, result.Summary.Summary)
		if err != nil {
			stepFailed("html index", err)
		} else {
			result.IndexPath = path
		}
	}

	if s.digest != nil {
		err := s.digest.Send(ctx, result.Summary.Summary)
		if err != nil {
			stepFailed("digest", err)
		}
	}
}
