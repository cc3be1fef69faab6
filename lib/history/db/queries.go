package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertSnapshot = `insert into snapshot (fetched_at, file, post_count)
values (?, ?, ?)
on conflict (fetched_at) do update set
    file = excluded.file,
    post_count = excluded.post_count`

type UpsertSnapshotParams struct {
	FetchedAt string
	File      string
	PostCount int64
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, arg.FetchedAt, arg.File, arg.PostCount)
	return err
}

const deleteObservations = `delete from post_observation where fetched_at = ?`

func (q *Queries) DeleteObservations(ctx context.Context, fetchedAt string) error {
	_, err := q.db.ExecContext(ctx, deleteObservations, fetchedAt)
	return err
}

const createObservation = `insert or replace into post_observation (
    fetched_at, post_id, rank, name, url, votes, comments
) values (?, ?, ?, ?, ?, ?, ?)`

type CreateObservationParams struct {
	FetchedAt string
	PostID    string
	Rank      int64
	Name      string
	Url       string
	Votes     int64
	Comments  int64
}

func (q *Queries) CreateObservation(ctx context.Context, arg CreateObservationParams) error {
	_, err := q.db.ExecContext(
		ctx, createObservation,
		arg.FetchedAt,
		arg.PostID,
		arg.Rank,
		arg.Name,
		arg.Url,
		arg.Votes,
		arg.Comments,
	)
	return err
}

const countSnapshots = `select count(*) from snapshot`

func (q *Queries) CountSnapshots(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSnapshots)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const findObservations = `select fetched_at, post_id, rank, name, url, votes, comments
from post_observation
where post_id = ?1 or name like '%' || ?1 || '%'
order by post_id, fetched_at`

type PostObservation struct {
	FetchedAt string
	PostID    string
	Rank      int64
	Name      string
	Url       string
	Votes     int64
	Comments  int64
}

func (q *Queries) FindObservations(ctx context.Context, query string) ([]PostObservation, error) {
	rows, err := q.db.QueryContext(ctx, findObservations, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostObservation
	for rows.Next() {
		var i PostObservation
		err := rows.Scan(
			&i.FetchedAt,
			&i.PostID,
			&i.Rank,
			&i.Name,
			&i.Url,
			&i.Votes,
			&i.Comments,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
