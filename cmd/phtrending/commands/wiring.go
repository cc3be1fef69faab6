package commands

import (
	"context"
	"log/slog"
	"phtrending/lib/digest"
	"phtrending/lib/history"
	"phtrending/lib/platforms/producthunt"
	"phtrending/lib/restyutil"
	"phtrending/services/trending"
)

const restyDumpDir = "<dev_state>/resty/producthunt"

func newClient(cfg Config, token string) (*producthunt.Client, error) {
	timeout, err := cfg.timeout()
	if err != nil {
		return nil, err
	}

	opts := producthunt.Options{
		Endpoint:     cfg.Endpoint,
		Token:        token,
		PageSize:     cfg.PageSize,
		IncludeMedia: *cfg.IncludeMedia,
		Timeout:      timeout,
	}
	if *verbose {
		output, err := restyutil.NewFilesystemOutput(restyDumpDir)
		if err != nil {
			slog.Warn("http exchanges will not be dumped", "err", err)
		} else {
			slog.Debug("dumping http exchanges", "dir", output.Directory())
			opts.InstrumentOutput = output
		}
	}
	return producthunt.NewClient(opts)
}

func openHistory(ctx context.Context, cfg Config) (history.Store, func(), error) {
	database, err := cfg.History.OpenDB()
	if err != nil {
		return history.Store{}, nil, err
	}
	store, err := history.NewStore(ctx, database)
	if err != nil {
		database.Close()
		return history.Store{}, nil, err
	}
	return store, func() {
		database.Close()
	}, nil
}

// newService wires every component the config enables. `fetcher` may be nil
// for commands that never fetch.
func newService(ctx context.Context, cfg Config, fetcher trending.Fetcher) (trending.Service, func(), error) {
	retention, err := cfg.retention()
	if err != nil {
		return trending.Service{}, nil, err
	}

	opts := trending.Options{
		OutputDir: cfg.OutputDir,
		Retention: retention,
		Fetcher:   fetcher,
		HTMLIndex: cfg.HTMLIndex,
	}
	cleanup := func() {}

	if cfg.History.Enabled() {
		store, closeHistory, err := openHistory(ctx, cfg)
		if err != nil {
			return trending.Service{}, nil, err
		}
		opts.History = store
		cleanup = closeHistory
	}
	if cfg.Digest.Enabled() {
		opts.Digest = digest.NewSender(cfg.Digest)
	}

	return trending.NewService(opts), cleanup, nil
}
