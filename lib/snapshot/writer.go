package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"phtrending/lib/chrono"
	"phtrending/lib/platforms/producthunt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Retention decides which snapshot files survive a write.
type Retention string

const (
	// every snapshot is kept, the directory grows without bound
	RetainAll Retention = "full"
	// only the snapshot just written is kept
	RetainLatest Retention = "latest"
)

func ParseRetention(value string) (Retention, error) {
	switch Retention(value) {
	case "", RetainAll:
		return RetainAll, nil
	case RetainLatest:
		return RetainLatest, nil
	}
	return "", fmt.Errorf("unknown retention policy '%s' (expected 'full' or 'latest')", value)
}

type WriterOptions struct {
	Dir       string
	Retention Retention
	// defaults to chrono.NewStandardTime()
	Time chrono.TimeAPI
}

type Writer struct {
	dir       string
	retention Retention
	time      chrono.TimeAPI
}

func NewWriter(opts WriterOptions) Writer {
	t := opts.Time
	if t == nil {
		t = chrono.NewStandardTime()
	}
	retention := opts.Retention
	if retention == "" {
		retention = RetainAll
	}
	return Writer{
		dir:       opts.Dir,
		retention: retention,
		time:      t,
	}
}

// WriteFile writes `contents` to `path` and flushes it to disk before
// returning.
func WriteFile(path string, contents []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = f.Write(contents)
	if err != nil {
		f.Close()
		return err
	}
	err = f.Sync()
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write stores `posts` under a new timestamped name and replaces latest.json
// with the same bytes. It returns the path of the timestamped file.
func (w Writer) Write(ctx context.Context, posts []producthunt.Post) (string, Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()

	fail := func(err error) (string, Snapshot, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", Snapshot{}, err
	}

	err := os.MkdirAll(w.dir, 0755)
	if err != nil {
		return fail(fmt.Errorf("create output directory: %w", err))
	}

	snap := New(w.time.Now(), posts)
	contents, err := snap.Encode()
	if err != nil {
		return fail(fmt.Errorf("encode snapshot: %w", err))
	}

	path := filepath.Join(w.dir, FileName(snap.FetchedAt))
	err = WriteFile(path, contents)
	if err != nil {
		return fail(fmt.Errorf("write snapshot: %w", err))
	}
	err = WriteFile(filepath.Join(w.dir, LatestName), contents)
	if err != nil {
		return fail(fmt.Errorf("write %s: %w", LatestName, err))
	}

	span.SetAttributes(
		attribute.String("custom.path", path),
		attribute.Int("custom.posts", len(snap.Posts)),
	)
	slog.DebugContext(ctx, "wrote snapshot", "path", path, "posts", len(snap.Posts))

	if w.retention == RetainLatest {
		err = w.prune(ctx, path)
		if err != nil {
			return fail(fmt.Errorf("prune snapshots: %w", err))
		}
	}

	return path, snap, nil
}

// prune removes every snapshot the writer produced except `keep`. Other
// json files in the directory are never touched.
func (w Writer) prune(ctx context.Context, keep string) error {
	paths, err := List(w.dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if path == keep {
			continue
		}
		_, ours := TimestampFromName(filepath.Base(path))
		if !ours {
			continue
		}
		err = os.Remove(path)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "pruned snapshot", "path", path)
	}
	return nil
}
