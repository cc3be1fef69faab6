package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"phtrending/lib/history/db"
	"phtrending/lib/snapshot"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("history")

// Store indexes the vote and comment counts of every post across snapshots.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

// NewStore creates the tables if they do not exist yet.
func NewStore(ctx context.Context, database *sql.DB) (Store, error) {
	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("create history schema: %w", err)
	}
	return Store{
		db:  database,
		qry: db.New(database),
	}, nil
}

// Record replaces everything known about the snapshot `doc` came from.
// Posts without an id cannot be tracked and are left out.
func (s Store) Record(ctx context.Context, doc snapshot.Document) error {
	ctx, span := tracer.Start(ctx, "Record")
	defer span.End()

	err := s.record(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) record(ctx context.Context, doc snapshot.Document) error {
	if doc.FetchedAt == "" {
		return fmt.Errorf("%s has no fetch time", doc.Name())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.UpsertSnapshot(ctx, db.UpsertSnapshotParams{
		FetchedAt: doc.FetchedAt,
		File:      filepath.Base(doc.Path),
		PostCount: int64(len(doc.Posts)),
	})
	if err != nil {
		return err
	}
	err = txqry.DeleteObservations(ctx, doc.FetchedAt)
	if err != nil {
		return err
	}

	for i, post := range doc.Posts {
		id, ok := post.Str("id")
		if !ok {
			slog.DebugContext(ctx, "post without id", "file", doc.Name(), "rank", i+1)
			continue
		}
		name, _ := post.Str("name")
		url, _ := post.Str("url")
		err = txqry.CreateObservation(ctx, db.CreateObservationParams{
			FetchedAt: doc.FetchedAt,
			PostID:    id,
			Rank:      int64(i + 1),
			Name:      name,
			Url:       url,
			Votes:     post.Count("votesCount"),
			Comments:  post.Count("commentsCount"),
		})
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

type RebuildResult struct {
	Indexed int
	Skipped []*snapshot.ReadError
}

// Rebuild records every readable snapshot in `dir`.
func (s Store) Rebuild(ctx context.Context, dir string) (RebuildResult, error) {
	ctx, span := tracer.Start(ctx, "Rebuild")
	defer span.End()

	paths, err := snapshot.List(dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RebuildResult{}, err
	}

	var result RebuildResult
	for _, path := range paths {
		doc, err := snapshot.Read(path)
		var readErr *snapshot.ReadError
		if errors.As(err, &readErr) {
			slog.WarnContext(ctx, "skipping snapshot", "path", path, "reason", readErr.Reason)
			result.Skipped = append(result.Skipped, readErr)
			continue
		}
		if err != nil {
			return result, err
		}
		err = s.Record(ctx, doc)
		if err != nil {
			return result, fmt.Errorf("record %s: %w", filepath.Base(path), err)
		}
		result.Indexed++
	}

	span.SetAttributes(attribute.Int("custom.indexed", result.Indexed))
	return result, nil
}

type Point struct {
	FetchedAt string
	Rank      int64
	Votes     int64
	Comments  int64
}

type PostSeries struct {
	PostID string
	// the name from the most recent observation
	Name   string
	URL    string
	Points []Point
}

// Series returns the history of every post whose id is `query` or whose
// name contains it. Points are ordered oldest first.
func (s Store) Series(ctx context.Context, query string) ([]PostSeries, error) {
	ctx, span := tracer.Start(ctx, "Series")
	defer span.End()

	rows, err := s.qry.FindObservations(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var series []PostSeries
	for _, row := range rows {
		if len(series) == 0 || series[len(series)-1].PostID != row.PostID {
			series = append(series, PostSeries{PostID: row.PostID})
		}
		current := &series[len(series)-1]
		current.Name = row.Name
		current.URL = row.Url
		current.Points = append(current.Points, Point{
			FetchedAt: row.FetchedAt,
			Rank:      row.Rank,
			Votes:     row.Votes,
			Comments:  row.Comments,
		})
	}
	return series, nil
}

func (s Store) SnapshotCount(ctx context.Context) (int64, error) {
	return s.qry.CountSnapshots(ctx)
}
